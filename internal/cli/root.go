// Package cli implements the asanasync command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "asanasync",
	Short: "Incremental Asana task warehouse",
	Long: `asanasync pulls completed tasks out of an Asana workspace into a local
warehouse, incrementally and idempotently.

Each run fetches only what changed since the previous one, normalizes
time-tracking custom fields into minutes, and merges the batch so that
re-running a sync never duplicates or loses data.

Quick start:
  asanasync init              Write a default config file
  asanasync sync              Pull changes since the last run
  asanasync sync --full       Refetch from the configured horizon
  asanasync snapshot          Capture today's open tasks
  asanasync status            Show watermark and record counts`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .asanasync/asanasync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRollupCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in .asanasync directory
		viper.AddConfigPath(".asanasync")
		viper.AddConfigPath("$HOME/.asanasync")
		viper.SetConfigType("yaml")
		viper.SetConfigName("asanasync")
	}

	viper.SetEnvPrefix("ASYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// newLogger builds the run logger honoring --verbose and --quiet.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
