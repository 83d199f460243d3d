package relief

import (
	"context"
	"relief/internal/models"
)

// ServiceInterface defines the relief allocation operations
type ServiceInterface interface {
	// Submit validates a request, assigns its ID and timestamp, and queues it
	Submit(ctx context.Context, req *models.ReliefRequest) (*models.ReliefRequest, error)

	// Pending returns the queued requests in dispatch order
	Pending() []*models.ReliefRequest

	// Centers returns the stored relief centers
	Centers(ctx context.Context) ([]*models.Center, error)

	// AllocateNext dispatches the most urgent pending request
	AllocateNext(ctx context.Context) (*models.Allocation, error)

	// SeedCenters stores configured centers that are not persisted yet
	SeedCenters(ctx context.Context, centers []models.CenterConfig) (int, error)

	// Allocations returns the most recent allocation records
	Allocations(ctx context.Context, limit int) ([]*models.Allocation, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
