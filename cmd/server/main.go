package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vyuha/portfolioviz/internal/api"
	"github.com/vyuha/portfolioviz/internal/bbl"
	"github.com/vyuha/portfolioviz/internal/config"
	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/metrics"
	"github.com/vyuha/portfolioviz/internal/registry"
	"github.com/vyuha/portfolioviz/internal/session"
	"github.com/vyuha/portfolioviz/internal/source"
	"github.com/vyuha/portfolioviz/internal/storage"
	"github.com/vyuha/portfolioviz/internal/watch"
)

// initLogger configures the global slog default with JSON output.
func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(h))
}

func main() {
	// ---- Config ----------------------------------------------------------
	// Priority: explicitly set flag > env var (.env included) > file > default.
	configPath := flag.String("config", "", "Path to a TOML config file")
	config.RegisterFlags(flag.CommandLine, config.Default())
	flag.Parse()

	cfg, err := config.Load(*configPath, flag.CommandLine)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	// Positional arguments are extra portfolio locations.
	locations := append(append([]string(nil), cfg.Portfolios...), flag.Args()...)

	initLogger(cfg.LogLevel)

	// ---- Storage ---------------------------------------------------------
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialise storage: %v", err)
	}

	// ---- Portfolios ------------------------------------------------------
	ctx := context.Background()
	m := metrics.DefaultRegistry()
	loader := &registry.Loader{
		Sources: source.Options{
			AWSRegion: cfg.AWSRegion,
			Catalog:   store,
		},
		Builder: graph.Builder{Link: bbl.Linker{Base: cfg.LinkBaseURL}.URL},
		Layout: layout.Config{
			Width:      cfg.Layout.Width,
			Height:     cfg.Layout.Height,
			Iterations: cfg.Layout.Iterations,
		},
		Metrics: m,
		TopN:    10,
	}
	reg := registry.New(m)
	failed := reg.LoadAll(ctx, loader, locations)
	catalog, err := reg.LoadCatalog(ctx, loader, store)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	// ---- File watcher (optional) ------------------------------------------
	var watcher *watch.Watcher
	if cfg.WatchInterval.Duration > 0 {
		watcher = watch.New(reg, loader, cfg.WatchInterval.Duration)
		if watcher.AddLocations(locations) > 0 {
			watcher.Start(ctx)
		} else {
			watcher = nil
		}
	}

	// ---- Sessions --------------------------------------------------------
	sessions := session.NewManager(cfg.SessionTTL.Duration)
	pruneCtx, stopPrune := context.WithCancel(ctx)
	go sessions.Run(pruneCtx, time.Minute)

	// ---- HTTP Server -----------------------------------------------------
	srv := api.NewServer(api.Options{
		Registry:    reg,
		Store:       store,
		Sessions:    sessions,
		Metrics:     m,
		Loader:      loader,
		Locations:   locations,
		SearchRate:  cfg.SearchRate,
		SearchBurst: cfg.SearchBurst,
	})

	// ---- Startup banner --------------------------------------------------
	loaded := len(reg.List())
	banner := fmt.Sprintf(`
═══════════════════════════════
 PORTFOLIOVIZ — Landlord Portfolios
 DB:   %s
 Port: %d
 Portfolios: %d (%d from catalog)
 Failed:     %d
═══════════════════════════════`, cfg.DBPath, cfg.Port, loaded, catalog, failed)
	fmt.Println(banner)

	slog.Info("portfolioviz starting",
		"db_path", cfg.DBPath,
		"port", cfg.Port,
		"portfolios", loaded,
		"catalog", catalog,
		"failed", failed,
		"session_ttl", cfg.SessionTTL.String(),
	)

	srv.RegisterRoutes()

	addr := fmt.Sprintf(":%d", cfg.Port)

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// ---- Graceful shutdown -----------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	stopPrune()
	if watcher != nil {
		watcher.Stop()
	}

	if err := store.Close(); err != nil {
		slog.Error("storage close error", "error", err)
	}

	slog.Info("portfolioviz shutdown complete")
}
