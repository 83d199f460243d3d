package relief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"relief/internal/models"
	"relief/internal/storage"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service queues relief requests and dispatches them against stored centers.
type Service struct {
	storage   storage.Storage
	allocator *Allocator
	queue     *RequestQueue
	logger    *slog.Logger
	now       func() time.Time

	// serializes the read-modify-write of center stock
	allocMu sync.Mutex
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithLogger sets the logger for request and allocation events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a relief service. A nil allocator means first-fit.
func NewService(store storage.Storage, allocator *Allocator, opts ...Option) *Service {
	if allocator == nil {
		allocator = NewAllocator(nil)
	}
	s := &Service{
		storage:   store,
		allocator: allocator,
		queue:     NewRequestQueue(),
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates req and queues a copy with a fresh ID and timestamp.
func (s *Service) Submit(ctx context.Context, req *models.ReliefRequest) (*models.ReliefRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	queued := *req
	queued.ID = uuid.NewString()
	queued.CreatedAt = s.now()
	s.queue.Push(&queued)

	s.logger.InfoContext(ctx, "new relief request",
		"request_id", queued.ID,
		"location", queued.Location,
		"urgency", queued.Urgency,
		"needs", queued.Needs.String(),
		"pending", s.queue.Len(),
	)

	out := queued
	return &out, nil
}

// Pending returns the queued requests in dispatch order.
func (s *Service) Pending() []*models.ReliefRequest {
	return s.queue.Snapshot()
}

// Centers returns the stored relief centers.
func (s *Service) Centers(ctx context.Context) ([]*models.Center, error) {
	centers, err := s.storage.Centers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load centers: %w", err)
	}
	return centers, nil
}

// AllocateNext pops the most urgent request and serves it from the nearest
// center with enough stock. An allocation record is written whether or not
// the request was fulfilled; an unfulfilled request is dropped.
func (s *Service) AllocateNext(ctx context.Context) (*models.Allocation, error) {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	req, ok := s.queue.Pop()
	if !ok {
		return nil, ErrNoPendingRequests
	}

	centers, err := s.storage.Centers(ctx)
	if err != nil {
		s.queue.Push(req)
		return nil, fmt.Errorf("failed to load centers: %w", err)
	}

	allocation := &models.Allocation{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		Location:  req.Location,
		Needs:     req.Needs,
		Urgency:   req.Urgency,
		Distance:  -1,
		CreatedAt: s.now(),
	}

	center, distance, err := s.allocator.Allocate(req, centers)
	switch {
	case err == nil:
		center.UpdatedAt = allocation.CreatedAt
		if err := s.storage.SaveCenter(ctx, center); err != nil {
			s.queue.Push(req)
			return nil, fmt.Errorf("failed to save center %s: %w", center.Name, err)
		}
		allocation.Fulfilled = true
		allocation.Center = center.Name
		allocation.Distance = distance
	case errors.Is(err, ErrInsufficientStock):
		// recorded as unfulfilled
	default:
		s.queue.Push(req)
		return nil, fmt.Errorf("failed to allocate request %s: %w", req.ID, err)
	}

	if err := s.storage.RecordAllocation(ctx, allocation); err != nil {
		return allocation, fmt.Errorf("failed to record allocation %s: %w", allocation.ID, err)
	}

	if allocation.Fulfilled {
		s.logger.InfoContext(ctx, "request fulfilled",
			"request_id", req.ID,
			"location", req.Location,
			"center", center.Name,
			"distance", distance,
			"remaining", center.Stock.String(),
		)
	} else {
		s.logger.WarnContext(ctx, "request could not be fulfilled",
			"request_id", req.ID,
			"location", req.Location,
			"needs", req.Needs.String(),
		)
	}

	return allocation, nil
}

// SeedCenters stores each configured center that is not persisted yet and
// returns how many were added. Existing centers keep their stored stock.
func (s *Service) SeedCenters(ctx context.Context, centers []models.CenterConfig) (int, error) {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	seeded := 0
	for _, cfg := range centers {
		_, err := s.storage.GetCenter(ctx, cfg.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return seeded, fmt.Errorf("failed to look up center %s: %w", cfg.Name, err)
		}

		center := models.NewCenter(cfg)
		center.UpdatedAt = s.now()
		if err := s.storage.SaveCenter(ctx, center); err != nil {
			return seeded, fmt.Errorf("failed to seed center %s: %w", cfg.Name, err)
		}
		seeded++
		s.logger.InfoContext(ctx, "seeded relief center", "center", center.Name, "location", center.Location, "stock", center.Stock.String())
	}
	return seeded, nil
}

// Allocations returns the most recent allocation records.
func (s *Service) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	allocations, err := s.storage.Allocations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	return allocations, nil
}
