// Package models - API response types.
package models

// HealthMessage is the fixed message returned by the health endpoint.
const HealthMessage = "api is working perfectly"

// HealthResponse is the body of GET /api/health. Field order is part of the
// wire format: message first, then success.
type HealthResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// NewHealthResponse builds a fresh health payload.
func NewHealthResponse() *HealthResponse {
	return &HealthResponse{
		Message: HealthMessage,
		Success: true,
	}
}
