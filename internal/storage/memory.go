package storage

import (
	"context"
	"fmt"
	"relief/internal/models"
	"sort"
	"sync"
)

// MemoryStorage implements the Storage interface using in-memory data structures.
// Data is lost on restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	centers     map[string]*models.Center
	allocations []*models.Allocation
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		centers: make(map[string]*models.Center),
	}, nil
}

// Centers returns all relief centers sorted by name
func (m *MemoryStorage) Centers(ctx context.Context) ([]*models.Center, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	centers := make([]*models.Center, 0, len(m.centers))
	for _, c := range m.centers {
		centers = append(centers, copyCenter(c))
	}
	sort.Slice(centers, func(i, j int) bool {
		return centers[i].Name < centers[j].Name
	})

	return centers, nil
}

// GetCenter retrieves a center by name
func (m *MemoryStorage) GetCenter(ctx context.Context, name string) (*models.Center, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.centers[name]
	if !exists {
		return nil, fmt.Errorf("center %s: %w", name, ErrNotFound)
	}
	return copyCenter(c), nil
}

// SaveCenter stores or updates a center
func (m *MemoryStorage) SaveCenter(ctx context.Context, center *models.Center) error {
	if err := validateCenter(center); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.centers[center.Name] = copyCenter(center)
	return nil
}

// DeleteCenter removes a center by name
func (m *MemoryStorage) DeleteCenter(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.centers[name]; !exists {
		return fmt.Errorf("center %s: %w", name, ErrNotFound)
	}
	delete(m.centers, name)
	return nil
}

// RecordAllocation appends an allocation record
func (m *MemoryStorage) RecordAllocation(ctx context.Context, allocation *models.Allocation) error {
	if err := validateAllocation(allocation); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations = append(m.allocations, copyAllocation(allocation))
	return nil
}

// Allocations returns the most recent allocation records
func (m *MemoryStorage) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return newestFirst(m.allocations, limit), nil
}

// Ping always succeeds for memory storage
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}
