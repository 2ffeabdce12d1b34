// Package cmd defines and implements the CLI commands for the webvault
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/archive"
	"github.com/webvault/webvault/internal/config"
	"github.com/webvault/webvault/internal/fetch"
	"github.com/webvault/webvault/internal/governor"
	"github.com/webvault/webvault/internal/index"
	"github.com/webvault/webvault/internal/logging"
	"github.com/webvault/webvault/internal/metrics"
	"github.com/webvault/webvault/internal/pathsafe"
	"github.com/webvault/webvault/internal/persist"
	"github.com/webvault/webvault/internal/walker"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App bundles the initialized services commands run against. Building it in
// PersistentPreRunE and injecting it through the context lets tests swap in
// a stub factory.
type App struct {
	Cfg      config.Config
	Logger   *zap.Logger
	Engine   *persist.Engine
	Archiver *archive.Archiver
	Index    *index.Store
	Ops      *metrics.Server
}

// Close shuts services down in reverse construction order.
func (a *App) Close() {
	if a.Ops != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Ops.Shutdown(ctx); err != nil {
			a.Logger.Warn("ops listener shutdown failed", zap.Error(err))
		}
	}
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Index != nil {
		if err := a.Index.Close(); err != nil {
			a.Logger.Warn("index close failed", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// newApp is the application factory, a variable so tests can replace it.
var newApp = buildApp

func buildApp(context.Context) (*App, error) {
	v := viper.GetViper()
	config.InitDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	used, err := config.ReadFile(v)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogDevelopment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if used != "" {
		logger.Info("config file loaded", zap.String("path", used))
	}

	metrics.Init()

	gov, err := governor.New(cfg.Quota.MemoryCeiling, cfg.Quota.DiskFloor, logging.Component(logger, "governor"))
	if err != nil {
		return nil, fmt.Errorf("init governor: %w", err)
	}
	resolver := pathsafe.NewResolver(cfg.RestrictedPath, logging.Component(logger, "pathsafe"))
	engine := persist.NewEngine(gov, resolver, logging.Component(logger, "persist"))

	if err := os.MkdirAll(cfg.SaveDir, 0o750); err != nil {
		return nil, fmt.Errorf("create save dir %s: %w", cfg.SaveDir, err)
	}
	idx, err := index.Open(filepath.Join(cfg.SaveDir, "captures.db"))
	if err != nil {
		return nil, fmt.Errorf("open capture index: %w", err)
	}

	client := fetch.NewClient(fetch.ClientConfig{
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.FetchTimeout,
		AllowedDomains: cfg.AllowedDomains,
	})
	archiver := archive.New(
		archive.Config{
			SaveDir:        cfg.SaveDir,
			Concurrency:    cfg.FetchConcurrency,
			RetryAttempts:  cfg.RetryAttempts,
			FetchTimeout:   cfg.FetchTimeout,
			UserAgent:      cfg.UserAgent,
			AllowedDomains: cfg.AllowedDomains,
			Walker: walker.Config{
				FileSizeCap:    cfg.Quota.FileSizeCap,
				FileCountLimit: cfg.Quota.FileCountLimit,
				ExcludedDirs:   cfg.ExcludedDirs,
				ExcludedFiles:  cfg.ExcludedFiles,
			},
		},
		engine, resolver, client, idx,
		logging.Component(logger, "archive"),
	)

	app := &App{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   engine,
		Archiver: archiver,
		Index:    idx,
	}
	if cfg.OpsListen != "" {
		app.Ops = metrics.NewServer(cfg.OpsListen, logging.Component(logger, "ops"))
		app.Ops.Start()
	}
	return app, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webvault",
		Short: "Archive websites and filesystem trees into durable YAML captures.",
		Long: `webvault downloads a website's page and its linked resources, or scans a
local directory tree, and commits the result as a single YAML document
through a crash-safe persistence layer with quota enforcement.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if app, ok := cmd.Context().Value(appKey).(*App); ok && app != nil {
				app.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/webvault, $HOME/.webvault)")

	cmd.AddCommand(newSiteCmd())
	cmd.AddCommand(newSystemCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey).(*App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "webvault: %v\n", err)
		os.Exit(1)
	}
}
