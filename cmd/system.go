package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSystemCmd creates the 'system' subcommand, which captures a directory
// tree.
func newSystemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "system <path>",
		Short: "Capture a filesystem tree into a YAML document",
		Long: `Scans the directory at the given path to unbounded depth, recording the
structure tree and the text content of every file within the configured
quotas, and commits the result as system_<timestamp>.yaml under the save
directory.`,
		Args: cobra.ExactArgs(1),
		RunE: runSystemCommand,
	}
}

func runSystemCommand(cmd *cobra.Command, args []string) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := app.Archiver.SaveSystem(ctx, args[0])
	if err != nil {
		return fmt.Errorf("system capture: %w", err)
	}

	printSummary(cmd, summary)
	app.Logger.Info("system command finished", zap.String("document", summary.DocumentPath))
	return nil
}
