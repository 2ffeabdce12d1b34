package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/webvault/webvault/internal/archive"
)

// newListCmd creates the 'list' subcommand, which prints recorded captures.
func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List previously committed captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			captures, err := app.Index.List(limit)
			if err != nil {
				return fmt.Errorf("list captures: %w", err)
			}
			if len(captures) == 0 {
				cmd.Println("no captures recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tSOURCE\tCREATED\tDOCUMENT")
			for _, c := range captures {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.ID, c.Kind, c.Source, c.CreatedAt.Format(time.RFC3339), c.Path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of captures to show")
	return cmd
}

// printSummary reports a finished capture on the command's stdout.
func printSummary(cmd *cobra.Command, s *archive.Summary) {
	cmd.Printf("%s capture committed: %s\n", s.Kind, s.DocumentPath)
	cmd.Printf("  captured: %d  failed: %d\n", s.Captured, s.Failed)
	if s.CaptureID != "" {
		cmd.Printf("  capture id: %s\n", s.CaptureID)
	}
	for _, warning := range s.Warnings {
		cmd.Printf("  warning: %s\n", warning)
	}
}
