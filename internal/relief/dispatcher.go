package relief

import (
	"context"
	"errors"
	"log/slog"
	"relief/internal/models"
	"sync/atomic"
	"time"
)

// NextAllocator dispatches the most urgent pending request.
type NextAllocator interface {
	AllocateNext(ctx context.Context) (*models.Allocation, error)
}

// DispatchStats counts dispatch outcomes.
type DispatchStats struct {
	Fulfilled   int64
	Unfulfilled int64
	Failed      int64
}

// Dispatcher calls AllocateNext once per interval.
type Dispatcher struct {
	allocator NextAllocator
	interval  time.Duration
	logger    *slog.Logger

	fulfilled   atomic.Int64
	unfulfilled atomic.Int64
	failed      atomic.Int64
}

func NewDispatcher(allocator NextAllocator, interval time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{allocator: allocator, interval: interval, logger: logger}
}

// Run dispatches until ctx is done. An empty queue is not an error; other
// failures are logged and counted.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.dispatchOnce(ctx)
		}
	}
}

func (d *Dispatcher) dispatchOnce(ctx context.Context) {
	allocation, err := d.allocator.AllocateNext(ctx)
	switch {
	case errors.Is(err, ErrNoPendingRequests):
		d.logger.DebugContext(ctx, "no pending requests")
	case err != nil:
		d.failed.Add(1)
		d.logger.ErrorContext(ctx, "dispatch failed", "error", err)
	case allocation.Fulfilled:
		d.fulfilled.Add(1)
	default:
		d.unfulfilled.Add(1)
	}
}

// Stats returns the outcome counters so far.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Fulfilled:   d.fulfilled.Load(),
		Unfulfilled: d.unfulfilled.Load(),
		Failed:      d.failed.Load(),
	}
}
