package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"relief/internal/api"
	"relief/internal/config"
	"relief/internal/logger"
	"relief/internal/observability"
	"relief/internal/server"
	"relief/internal/version"
	"time"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envFile    = flag.String("env-file", ".env", "Path to a dotenv file; a missing file is ignored")
)

func main() {
	flag.Parse()

	if err := config.LoadDotenv(*envFile); err != nil {
		slog.Error("Failed to load env file", "error", err)
		os.Exit(1)
	}

	// Load configuration; PORT is mandatory
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.Get()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	routeOpts := []api.RouteOption{}
	if otelProvider.TracingEnabled() {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if otelProvider.MetricsEnabled() {
		instrumentation, err := observability.NewHTTPInstrumentation(nil)
		if err != nil {
			slog.Error("Failed to create HTTP instrumentation", "error", err)
			os.Exit(1)
		}
		routeOpts = append(routeOpts, api.WithMetrics(instrumentation.Middleware))

		metricsServer := observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	router := api.SetupRoutes(api.NewHandlers(api.WithLogger(log)), routeOpts...)

	// Serve until the process is killed; there is no graceful shutdown
	srv := server.New(cfg.Server, router, log)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
