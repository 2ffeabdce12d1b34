package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSiteCmd creates the 'site' subcommand, which captures a website.
func newSiteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "site <url>",
		Short: "Capture a website into a YAML document",
		Long: `Downloads the page at the given URL, discovers its linked stylesheets,
scripts, images, and videos, fetches them concurrently, and commits the
result as site_<timestamp>/site_data.yaml under the save directory.
Images and videos are stored beside the document and referenced by path.`,
		Args: cobra.ExactArgs(1),
		RunE: runSiteCommand,
	}
}

func runSiteCommand(cmd *cobra.Command, args []string) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := app.Archiver.SaveSite(ctx, args[0])
	if err != nil {
		return fmt.Errorf("site capture: %w", err)
	}

	printSummary(cmd, summary)
	app.Logger.Info("site command finished", zap.String("document", summary.DocumentPath))
	return nil
}
