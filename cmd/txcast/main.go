package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/txcast/internal/cache"
	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/events"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/router"
	"github.com/soltixdb/txcast/internal/services"
	"github.com/soltixdb/txcast/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("txcast starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the dataset. A missing file leaves the API up in degraded mode
	// until an admin reload succeeds.
	store := dataset.NewStore(cfg.Dataset.Path, cfg.Dataset.UserPath, logger)
	loadCtx, loadCancel := context.WithTimeout(ctx, utils.DatasetLoadTimeout)
	snap, err := store.Load(loadCtx)
	loadCancel()
	if err != nil {
		logger.Error("Initial dataset load failed, serving degraded", "path", cfg.Dataset.Path, "error", err)
	} else {
		logger.Info("Dataset loaded", "version", snap.Version, "records", len(snap.Records), "users", len(snap.Users))
	}

	// Forecast result cache
	logger.Info("Initializing cache", "type", cfg.Cache.Type)
	resultCache, err := cache.NewTyped(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize cache", "error", err)
	}
	defer func() { _ = resultCache.Cache.Close() }()

	// Event bus (configurable backend)
	logger.Info("Connecting to event bus", "type", cfg.Events.Type, "url", cfg.Events.URL)
	bus, err := events.New(cfg.Events)
	if err != nil {
		logger.Fatal("Failed to connect to event bus", "error", err)
	}
	emitter := events.NewEmitter(bus, cfg.Events.Prefix, logger)
	defer func() { _ = emitter.Close() }()

	svc := router.Services{
		Forecast:   services.NewForecastService(logger, store, resultCache, emitter, cfg),
		TimeSeries: services.NewTimeSeriesService(logger, store, cfg),
		Dataset:    services.NewDatasetService(logger, store, emitter),
	}

	if cfg.Events.Enabled() {
		if err := svc.Dataset.ListenForReloads(); err != nil {
			logger.Fatal("Failed to subscribe to reload commands", "error", err)
		}
		logger.Info("Listening for reload commands", "subject", emitter.Subject(events.TypeDatasetReload))
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - admin routes are open")
	}

	app := router.New(logger, svc, cfg)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Dataset.ReloadInterval > 0 {
		logger.Info("Periodic dataset reload enabled", "interval", cfg.Dataset.ReloadInterval)
		g.Go(func() error {
			store.Watch(gctx, cfg.Dataset.ReloadInterval)
			return nil
		})
	}
	if cfg.Dataset.ReloadSchedule != "" {
		if err := store.Schedule(gctx, cfg.Dataset.ReloadSchedule); err != nil {
			logger.Fatal("Failed to schedule dataset reloads", "error", err)
		}
		logger.Info("Scheduled dataset reload enabled", "schedule", cfg.Dataset.ReloadSchedule)
	}

	g.Go(func() error {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		return app.Listen(addr)
	})

	// Shut the server down once a signal arrives or the listener fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
	}

	logger.Info("Server exited")
}
