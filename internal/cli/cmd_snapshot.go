// Package cli implements the asanasync command-line interface.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newSnapshotCmd creates the snapshot command
func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture today's open tasks",
		Long: `Record every still-open task as of a given date.

Snapshots accumulate one row per task per day. Running the command twice
for the same date changes nothing, so it is safe to schedule.

Examples:
  asanasync snapshot                 # Capture for today
  asanasync snapshot --date 2024-01-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := newLogger()
			eng, store, err := newEngine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := eng.Snapshot(cmd.Context(), date)
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Printf("snapshot %s: %d open task(s), %d overdue\n",
					res.Date, res.TasksCaptured, res.Overdue)
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

	cmd.Flags().String("date", "", "snapshot date (YYYY-MM-DD, default today)")

	return cmd
}
