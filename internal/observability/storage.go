package observability

import (
	"context"
	"relief/internal/models"
	"relief/internal/storage"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("relief/storage")
	meter := otel.Meter("relief/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

// observe runs op inside a span and records its latency and any error.
func (s *InstrumentedStorage) observe(ctx context.Context, operation string, op func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	defer span.End()

	start := time.Now()
	err := op(ctx)

	metricAttrs := metric.WithAttributes(attribute.String("operation", operation))
	s.duration.Record(ctx, time.Since(start).Seconds(), metricAttrs)

	if err != nil {
		s.errors.Add(ctx, 1, metricAttrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

func (s *InstrumentedStorage) Centers(ctx context.Context) ([]*models.Center, error) {
	var result []*models.Center
	err := s.observe(ctx, "Centers", func(ctx context.Context) error {
		var err error
		result, err = s.inner.Centers(ctx)
		return err
	})
	return result, err
}

func (s *InstrumentedStorage) GetCenter(ctx context.Context, name string) (*models.Center, error) {
	var result *models.Center
	err := s.observe(ctx, "GetCenter", func(ctx context.Context) error {
		var err error
		result, err = s.inner.GetCenter(ctx, name)
		return err
	}, attribute.String("center", name))
	return result, err
}

func (s *InstrumentedStorage) SaveCenter(ctx context.Context, center *models.Center) error {
	var attrs []attribute.KeyValue
	if center != nil {
		attrs = append(attrs, attribute.String("center", center.Name))
	}
	return s.observe(ctx, "SaveCenter", func(ctx context.Context) error {
		return s.inner.SaveCenter(ctx, center)
	}, attrs...)
}

func (s *InstrumentedStorage) DeleteCenter(ctx context.Context, name string) error {
	return s.observe(ctx, "DeleteCenter", func(ctx context.Context) error {
		return s.inner.DeleteCenter(ctx, name)
	}, attribute.String("center", name))
}

func (s *InstrumentedStorage) RecordAllocation(ctx context.Context, allocation *models.Allocation) error {
	var attrs []attribute.KeyValue
	if allocation != nil {
		attrs = append(attrs,
			attribute.String("allocation_id", allocation.ID),
			attribute.Bool("fulfilled", allocation.Fulfilled),
		)
	}
	return s.observe(ctx, "RecordAllocation", func(ctx context.Context) error {
		return s.inner.RecordAllocation(ctx, allocation)
	}, attrs...)
}

func (s *InstrumentedStorage) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	var result []*models.Allocation
	err := s.observe(ctx, "Allocations", func(ctx context.Context) error {
		var err error
		result, err = s.inner.Allocations(ctx, limit)
		return err
	}, attribute.Int("limit", limit))
	return result, err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	return s.observe(ctx, "Ping", s.inner.Ping)
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
