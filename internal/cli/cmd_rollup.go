// Package cli implements the asanasync command-line interface.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// newRollupCmd creates the rollup command
func newRollupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollup [month]",
		Short: "Summarize completed work per assignee",
		Long: `Aggregate the completed tasks of one month by assignee.

Counts tasks and sums their estimated and actual minutes from the
current state of the warehouse.

Examples:
  asanasync rollup            # Current month
  asanasync rollup 2024-01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := time.Now().UTC().Format("2006-01")
			if len(args) == 1 {
				month = args[0]
			}
			if _, err := time.Parse("2006-01", month); err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", month)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := store.RollupMonth(cmd.Context(), month)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Printf("No completed tasks in %s.\n", month)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ASSIGNEE\tTASKS\tESTIMATED(h)\tACTUAL(h)")
			for _, r := range rows {
				name := r.AssigneeName
				if name == "" {
					name = "(unassigned)"
				}
				fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\n",
					name, r.TaskCount, r.EstimatedMinutes/60, r.ActualMinutes/60)
			}
			return w.Flush()
		},
	}
}
