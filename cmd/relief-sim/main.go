package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"relief/internal/config"
	"relief/internal/logger"
	"relief/internal/models"
	"relief/internal/observability"
	"relief/internal/relief"
	"relief/internal/storage"
	"relief/internal/version"
	"sync"
	"syscall"
	"time"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envFile    = flag.String("env-file", ".env", "Path to a dotenv file; a missing file is ignored")
	duration   = flag.Duration("duration", 0, "How long to run the simulation (0 runs until interrupted)")
)

func main() {
	flag.Parse()

	if err := config.LoadDotenv(*envFile); err != nil {
		slog.Error("Failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadSimulation(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.Get()

	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	if err := run(cfg, ver, log); err != nil {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *models.Config, ver version.Info, log *slog.Logger) error {
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	storageInstance, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		return err
	}
	defer storageInstance.Close()

	// Wrap storage with instrumentation if metrics are enabled
	var activeStorage storage.Storage = storageInstance
	if otelProvider.MetricsEnabled() {
		instrumented, err := observability.NewInstrumentedStorage(storageInstance)
		if err != nil {
			return err
		}
		activeStorage = instrumented

		metricsServer := observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := activeStorage.Ping(ctx); err != nil {
		return err
	}

	graph, err := relief.NewGraphFromConfig(cfg.Simulation.Locations, cfg.Simulation.Routes)
	if err != nil {
		return err
	}

	service := relief.NewService(activeStorage, relief.NewAllocator(graph), relief.WithLogger(log))
	seeded, err := service.SeedCenters(ctx, cfg.Simulation.Centers)
	if err != nil {
		return err
	}

	generator := relief.NewGenerator(service, cfg.Simulation, log)
	dispatcher := relief.NewDispatcher(service, cfg.Simulation.DispatchInterval, log)

	slog.Info("relief simulation started",
		"centers", len(cfg.Simulation.Centers),
		"seeded", seeded,
		"locations", len(graph.Locations()),
		"storage", cfg.Storage.Type,
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = generator.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = dispatcher.Run(ctx)
	}()
	wg.Wait()

	summarize(service, dispatcher)
	return nil
}

// summarize logs the final dispatch counters and the stock left at each center.
func summarize(service *relief.Service, dispatcher *relief.Dispatcher) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := dispatcher.Stats()
	slog.Info("relief simulation stopped",
		"fulfilled", stats.Fulfilled,
		"unfulfilled", stats.Unfulfilled,
		"failed", stats.Failed,
		"pending", len(service.Pending()),
	)

	centers, err := service.Centers(ctx)
	if err != nil {
		slog.Error("Failed to load final center stock", "error", err)
		return
	}
	for _, c := range centers {
		slog.Info("final center stock",
			"center", c.Name,
			"location", c.Location,
			"food", c.Stock.Food,
			"water", c.Stock.Water,
			"medicine", c.Stock.Medicine,
		)
	}
}
