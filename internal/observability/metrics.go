package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves Prometheus metrics on its own port, away from the
// health API.
type MetricsServer struct {
	server *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// NewMetricsServer creates a metrics HTTP server serving the Prometheus handler
// at the given path on the given port. Without a Prometheus exporter every
// path returns 404.
func NewMetricsServer(port int, path string, provider *Provider) *MetricsServer {
	mux := http.NewServeMux()

	if provider != nil && provider.promExporter != nil {
		mux.Handle(path, promhttp.Handler())
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// Start binds and serves metrics in a blocking call.
// Returns http.ErrServerClosed after Shutdown.
func (ms *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", ms.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}

	ms.mu.Lock()
	ms.addr = ln.Addr()
	ms.mu.Unlock()

	slog.Info("metrics server listening", "addr", ln.Addr().String())
	err = ms.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return http.ErrServerClosed
	}
	return err
}

// Addr returns the bound address once Start has bound the listener.
func (ms *MetricsServer) Addr() net.Addr {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.addr
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
