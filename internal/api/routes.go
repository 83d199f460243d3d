package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// HealthPath is the only route served by the relief API.
const HealthPath = "/api/health"

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName))
	}
}

// WithMetrics adds a request metrics middleware to the router.
func WithMetrics(middleware func(http.Handler) http.Handler) RouteOption {
	return func(r *mux.Router) {
		r.Use(middleware)
	}
}

// SetupRoutes registers GET /api/health. Every other path or method gets the
// plain 404 from http.NotFoundHandler; mux's 405 for a known path with the
// wrong method is folded into that 404 as well.
func SetupRoutes(handlers *Handlers, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	router.HandleFunc(HealthPath, handlers.HealthCheck).Methods(http.MethodGet, http.MethodHead)

	router.NotFoundHandler = http.NotFoundHandler()
	router.MethodNotAllowedHandler = http.NotFoundHandler()

	return router
}
