package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"relief/internal/models"
)

// Handlers contains HTTP handlers for the relief API
type Handlers struct {
	logger *slog.Logger
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithLogger sets the logger used for response encoding failures.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handlers) {
		h.logger = logger
	}
}

// NewHandlers creates a new handlers instance
func NewHandlers(opts ...HandlerOption) *Handlers {
	h := &Handlers{logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck handles health check requests
// GET /api/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, models.NewHealthResponse())
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing more can be sent to the client.
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}
