// Package cli implements the asanasync command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oknozoka/asanasync/internal/syncer"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull changed tasks into the warehouse",
		Long: `Fetch tasks that changed since the last run and merge them.

The first run (or --full) fetches everything completed since the
configured horizon. --sweep refetches every task regardless of age,
which repairs any drift at the cost of a much larger fetch.

Examples:
  asanasync sync                     # Incremental since last watermark
  asanasync sync --full              # Refetch from the horizon
  asanasync sync --sweep             # Refetch everything
  asanasync sync --project-filter x  # Only projects whose name contains x
  asanasync sync --dry-run           # Fetch and report, merge nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			sweep, _ := cmd.Flags().GetBool("sweep")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			filter, _ := cmd.Flags().GetString("project-filter")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if filter != "" {
				cfg.Sync.ProjectFilter = filter
			}

			logger := newLogger()
			eng, store, err := newEngine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := eng.Run(cmd.Context(), syncer.RunOptions{
				ForceFull:  full,
				ForceSweep: sweep,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Printf("window: %s\n", res.Window.Kind)
				fmt.Printf("projects fetched: %d (skipped %d)\n", res.ProjectsFetched, res.ProjectsSkipped)
				fmt.Printf("records fetched: %d, merged: %d, unchanged: %d\n",
					res.RecordsFetched, res.RecordsMerged, res.RecordsSkipped)
				if res.ParseSkipped > 0 {
					fmt.Printf("records dropped as unparseable: %d\n", res.ParseSkipped)
				}
			}
			if len(res.ProjectErrors) > 0 {
				for gid, perr := range res.ProjectErrors {
					fmt.Printf("project %s failed: %v\n", gid, perr)
				}
				return fmt.Errorf("%d project(s) failed", len(res.ProjectErrors))
			}
			return nil
		},
	}

	cmd.Flags().Bool("full", false, "refetch from the configured horizon")
	cmd.Flags().Bool("sweep", false, "refetch every task since the epoch")
	cmd.Flags().Bool("dry-run", false, "fetch and report without merging")
	cmd.Flags().String("project-filter", "", "only sync projects whose name contains this")

	return cmd
}
