// Package cli implements the asanasync command-line interface.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newProjectsCmd creates the projects command
func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List workspace projects",
		Long:  `List the non-archived projects the configured workspace exposes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := newRemoteClient(cfg, newLogger())
			if err != nil {
				return err
			}

			projects, err := client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GID\tNAME")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\n", p.GID, p.Name)
			}
			return w.Flush()
		},
	}
}
