// Command portfolioctl imports, inspects and searches landlord portfolios
// from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vyuha/portfolioviz/internal/bbl"
	"github.com/vyuha/portfolioviz/internal/config"
	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/source"
	"github.com/vyuha/portfolioviz/internal/storage"
	"github.com/vyuha/portfolioviz/internal/ui"
)

var version = "0.3.0"

var (
	configPath string
	dbPath     string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.StatusIcon(false), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolioctl",
		Short: "portfolioctl — landlord portfolio catalog tool",
		Long: ui.Brand.Sprint("portfolioctl") + " — import, inspect and search landlord portfolios\n" +
			ui.Subtle.Sprint("Portfolios are graphs of owner names and business addresses"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger(logLevel)
		},
	}
	root.SetVersionTemplate("portfolioctl {{ .Version }}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	root.PersistentFlags().StringVar(&dbPath, "db-path", "", "Catalog database (overrides config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	root.AddCommand(
		importCmd(),
		infoCmd(),
		rankingCmd(),
		dotCmd(),
		graphCmd(),
		searchCmd(),
	)

	return root
}

// initLogger sends text logs to stderr so stdout stays clean for DOT and
// JSON output.
func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadConfig resolves configuration the same way the server does, then
// applies --db-path.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, nil)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Storage, error) {
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", cfg.DBPath, err)
	}
	return store, nil
}

// loadPortfolio resolves a location (path, URL, s3:// or catalog:slug).
// The catalog is only opened for catalog: locations.
func loadPortfolio(ctx context.Context, cfg *config.Config, location string) (*portfolio.Portfolio, []byte, error) {
	opts := source.Options{AWSRegion: cfg.AWSRegion}
	if strings.HasPrefix(location, "catalog:") {
		store, err := openStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		defer store.Close()
		opts.Catalog = store
	}
	return source.LoadURI(ctx, location, opts)
}

// loadModel loads a location and builds its graph model.
func loadModel(ctx context.Context, cfg *config.Config, location string) (*portfolio.Portfolio, *graph.Model, error) {
	p, _, err := loadPortfolio(ctx, cfg, location)
	if err != nil {
		return nil, nil, err
	}
	m, err := graph.Builder{Link: bbl.Linker{Base: cfg.LinkBaseURL}.URL}.Build(p)
	if err != nil {
		return nil, nil, err
	}
	return p, m, nil
}
