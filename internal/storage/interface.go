package storage

import (
	"context"
	"relief/internal/models"
	"time"
)

// Storage defines the interface for relief center and allocation persistence.
// Implementations return copies; callers may mutate what they get back.
type Storage interface {
	// Centers returns all relief centers sorted by name
	Centers(ctx context.Context) ([]*models.Center, error)

	// GetCenter retrieves a center by name, wrapping ErrNotFound when missing
	GetCenter(ctx context.Context, name string) (*models.Center, error)

	// SaveCenter stores or updates a center
	SaveCenter(ctx context.Context, center *models.Center) error

	// DeleteCenter removes a center, wrapping ErrNotFound when missing
	DeleteCenter(ctx context.Context, name string) error

	// RecordAllocation appends an allocation record
	RecordAllocation(ctx context.Context, allocation *models.Allocation) error

	// Allocations returns up to limit records, most recent first. A limit of
	// zero or less returns everything.
	Allocations(ctx context.Context, limit int) ([]*models.Allocation, error)

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type
	Type string

	// Path is used for file-based storage backends. A ".zst" suffix selects
	// zstd compression for the JSON backend.
	Path string

	// ConnectionString is used for database backends
	ConnectionString string

	// CacheTTL specifies how long the JSON backend trusts its in-memory copy
	CacheTTL time.Duration

	// Pool settings for database backends
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}
