// Package cli implements the asanasync command-line interface.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show warehouse status",
		Long: `Show the sync watermark and record counts at a glance.

Examples:
  asanasync status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.ReadStats(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "store:\t%s (%s)\n", cfg.Store.DSN, cfg.Store.Dialect)
			if stats.Watermark != nil {
				fmt.Fprintf(w, "watermark:\t%s\n", stats.Watermark.Format("2006-01-02 15:04:05 MST"))
			} else {
				fmt.Fprintf(w, "watermark:\tnone (next sync is full)\n")
			}
			fmt.Fprintf(w, "revisions:\t%d\n", stats.Revisions)
			fmt.Fprintf(w, "tasks:\t%d (%d completed)\n", stats.Tasks, stats.CompletedTasks)
			if stats.LastSnapshot != "" {
				fmt.Fprintf(w, "last snapshot:\t%s\n", stats.LastSnapshot)
			} else {
				fmt.Fprintf(w, "last snapshot:\tnever\n")
			}
			return w.Flush()
		},
	}
}
