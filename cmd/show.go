package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/webvault/webvault/internal/index"
)

// newShowCmd creates the 'show' subcommand, which prints one recorded
// capture and optionally its committed document.
func newShowCmd() *cobra.Command {
	var withDocument bool

	cmd := &cobra.Command{
		Use:   "show <capture-id>",
		Short: "Show a recorded capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			capture, err := app.Index.Lookup(args[0])
			if errors.Is(err, index.ErrNotFound) {
				return fmt.Errorf("no capture with id %s", args[0])
			}
			if err != nil {
				return err
			}

			cmd.Printf("id:       %s\n", capture.ID)
			cmd.Printf("kind:     %s\n", capture.Kind)
			cmd.Printf("source:   %s\n", capture.Source)
			cmd.Printf("document: %s\n", capture.Path)
			cmd.Printf("digest:   %s\n", capture.Digest)
			cmd.Printf("created:  %s\n", capture.CreatedAt.Format(time.RFC3339))

			if withDocument {
				data := app.Engine.Read(capture.Path)
				if data == nil {
					return fmt.Errorf("document %s is no longer readable", capture.Path)
				}
				cmd.Println()
				cmd.Print(string(data))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDocument, "document", false, "print the committed document body")
	return cmd
}
