package relief

import (
	"context"
	"errors"
	"log/slog"
	"relief/internal/models"
	"relief/internal/storage"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of storage.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Centers(ctx context.Context) ([]*models.Center, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Center), args.Error(1)
}

func (m *MockStorage) GetCenter(ctx context.Context, name string) (*models.Center, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Center), args.Error(1)
}

func (m *MockStorage) SaveCenter(ctx context.Context, center *models.Center) error {
	args := m.Called(ctx, center)
	return args.Error(0)
}

func (m *MockStorage) DeleteCenter(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockStorage) RecordAllocation(ctx context.Context, allocation *models.Allocation) error {
	args := m.Called(ctx, allocation)
	return args.Error(0)
}

func (m *MockStorage) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Allocation), args.Error(1)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ storage.Storage = (*MockStorage)(nil)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newMemoryService(t *testing.T) (*Service, *storage.MemoryStorage) {
	t.Helper()

	store, err := storage.NewMemoryStorage(storage.Config{})
	require.NoError(t, err)

	svc := NewService(store, NewAllocator(testGraph(t)),
		WithLogger(discardLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)

	seeded, err := svc.SeedCenters(context.Background(), models.NewDefaultConfig().Simulation.Centers)
	require.NoError(t, err)
	require.Equal(t, 3, seeded)

	return svc, store
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(new(MockStorage), nil)

	assert.NotNil(t, svc.allocator)
	assert.Nil(t, svc.allocator.graph)
	assert.NotNil(t, svc.logger)
	assert.Equal(t, time.UTC, svc.now().Location())
	assert.Empty(t, svc.Pending())
}

func TestService_Submit(t *testing.T) {
	svc, _ := newMemoryService(t)
	input := smallRequest("Chennai")
	input.ID = ""

	queued, err := svc.Submit(context.Background(), input)

	require.NoError(t, err)
	assert.NotEmpty(t, queued.ID)
	assert.Equal(t, fixedNow, queued.CreatedAt)
	assert.Equal(t, "Chennai", queued.Location)
	assert.Equal(t, input.Needs, queued.Needs)
	assert.Empty(t, input.ID, "input must not be modified")

	pending := svc.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, queued.ID, pending[0].ID)
}

func TestService_SubmitAssignsUniqueIDs(t *testing.T) {
	svc, _ := newMemoryService(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		queued, err := svc.Submit(context.Background(), smallRequest("Chennai"))
		require.NoError(t, err)
		assert.False(t, seen[queued.ID], "duplicate id %s", queued.ID)
		seen[queued.ID] = true
	}
}

func TestService_SubmitInvalid(t *testing.T) {
	svc, _ := newMemoryService(t)

	tests := []struct {
		name string
		req  *models.ReliefRequest
	}{
		{name: "nil request", req: nil},
		{name: "empty location", req: &models.ReliefRequest{Urgency: 5}},
		{name: "urgency too low", req: &models.ReliefRequest{Location: "Chennai", Urgency: 0}},
		{name: "urgency too high", req: &models.ReliefRequest{Location: "Chennai", Urgency: 11}},
		{name: "negative needs", req: &models.ReliefRequest{Location: "Chennai", Urgency: 5, Needs: models.Stock{Water: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queued, err := svc.Submit(context.Background(), tt.req)

			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, queued)
		})
	}
	assert.Empty(t, svc.Pending())
}

func TestService_AllocateNextFulfilled(t *testing.T) {
	svc, store := newMemoryService(t)
	ctx := context.Background()

	queued, err := svc.Submit(ctx, smallRequest("Hyderabad"))
	require.NoError(t, err)

	allocation, err := svc.AllocateNext(ctx)

	require.NoError(t, err)
	assert.True(t, allocation.Fulfilled)
	assert.Equal(t, queued.ID, allocation.RequestID)
	assert.Equal(t, "Center A", allocation.Center)
	assert.Equal(t, 627, allocation.Distance)
	assert.Equal(t, "Hyderabad", allocation.Location)
	assert.Equal(t, fixedNow, allocation.CreatedAt)
	assert.NotEmpty(t, allocation.ID)

	center, err := store.GetCenter(ctx, "Center A")
	require.NoError(t, err)
	assert.Equal(t, models.Stock{Food: 90, Water: 90, Medicine: 45}, center.Stock)

	recorded, err := svc.Allocations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, allocation.ID, recorded[0].ID)
	assert.Empty(t, svc.Pending())
}

func TestService_AllocateNextUnfulfilled(t *testing.T) {
	svc, store := newMemoryService(t)
	ctx := context.Background()

	req := smallRequest("Delhi")
	req.Needs.Food = 1000
	_, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	allocation, err := svc.AllocateNext(ctx)

	require.NoError(t, err)
	assert.False(t, allocation.Fulfilled)
	assert.Empty(t, allocation.Center)
	assert.Equal(t, -1, allocation.Distance)
	assert.Empty(t, svc.Pending(), "unfulfilled requests are dropped")

	recorded, err := store.Allocations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.False(t, recorded[0].Fulfilled)

	centers, err := svc.Centers(ctx)
	require.NoError(t, err)
	for i, c := range defaultCenters() {
		assert.Equal(t, c.Stock, centers[i].Stock)
	}
}

func TestService_AllocateNextMostUrgentFirst(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	low := smallRequest("Chennai")
	low.Urgency = 2
	high := smallRequest("Mumbai")
	high.Urgency = 9

	lowQueued, err := svc.Submit(ctx, low)
	require.NoError(t, err)
	highQueued, err := svc.Submit(ctx, high)
	require.NoError(t, err)

	first, err := svc.AllocateNext(ctx)
	require.NoError(t, err)
	second, err := svc.AllocateNext(ctx)
	require.NoError(t, err)

	assert.Equal(t, highQueued.ID, first.RequestID)
	assert.Equal(t, "Center B", first.Center)
	assert.Equal(t, lowQueued.ID, second.RequestID)
	assert.Equal(t, "Center A", second.Center)
}

func TestService_AllocateNextDrainsStock(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	// Center A holds 50 medicine, so the sixth request spills over to B.
	req := smallRequest("Chennai")
	req.Needs = models.Stock{Medicine: 10}
	for i := 0; i < 6; i++ {
		_, err := svc.Submit(ctx, req)
		require.NoError(t, err)
	}

	var served []string
	for i := 0; i < 6; i++ {
		allocation, err := svc.AllocateNext(ctx)
		require.NoError(t, err)
		require.True(t, allocation.Fulfilled)
		served = append(served, allocation.Center)
	}

	assert.Equal(t, []string{"Center A", "Center A", "Center A", "Center A", "Center A", "Center B"}, served)
}

func TestService_AllocateNextEmptyQueue(t *testing.T) {
	svc, _ := newMemoryService(t)

	allocation, err := svc.AllocateNext(context.Background())

	assert.ErrorIs(t, err, ErrNoPendingRequests)
	assert.Nil(t, allocation)
}

func TestService_AllocateNextCentersError(t *testing.T) {
	store := new(MockStorage)
	store.On("Centers", mock.Anything).Return(nil, errors.New("db down"))
	svc := NewService(store, nil, WithLogger(discardLogger()))

	_, err := svc.Submit(context.Background(), smallRequest("Chennai"))
	require.NoError(t, err)

	allocation, err := svc.AllocateNext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, allocation)
	assert.Len(t, svc.Pending(), 1, "request is re-queued")
	store.AssertNotCalled(t, "RecordAllocation", mock.Anything, mock.Anything)
}

func TestService_AllocateNextSaveCenterError(t *testing.T) {
	store := new(MockStorage)
	store.On("Centers", mock.Anything).Return(defaultCenters(), nil)
	store.On("SaveCenter", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc := NewService(store, nil, WithLogger(discardLogger()))

	_, err := svc.Submit(context.Background(), smallRequest("Chennai"))
	require.NoError(t, err)

	allocation, err := svc.AllocateNext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, allocation)
	assert.Len(t, svc.Pending(), 1)
	store.AssertNotCalled(t, "RecordAllocation", mock.Anything, mock.Anything)
}

func TestService_AllocateNextRecordError(t *testing.T) {
	store := new(MockStorage)
	store.On("Centers", mock.Anything).Return(defaultCenters(), nil)
	store.On("SaveCenter", mock.Anything, mock.Anything).Return(nil)
	store.On("RecordAllocation", mock.Anything, mock.Anything).Return(errors.New("write failed"))
	svc := NewService(store, nil, WithLogger(discardLogger()))

	_, err := svc.Submit(context.Background(), smallRequest("Chennai"))
	require.NoError(t, err)

	allocation, err := svc.AllocateNext(context.Background())

	require.Error(t, err)
	require.NotNil(t, allocation)
	assert.True(t, allocation.Fulfilled)
	assert.Empty(t, svc.Pending())
	store.AssertExpectations(t)
}

func TestService_AllocateNextSavesUpdatedCenter(t *testing.T) {
	store := new(MockStorage)
	store.On("Centers", mock.Anything).Return(defaultCenters(), nil)
	store.On("SaveCenter", mock.Anything, mock.MatchedBy(func(c *models.Center) bool {
		return c.Name == "Center A" && c.Stock.Food == 90 && c.UpdatedAt.Equal(fixedNow)
	})).Return(nil).Once()
	store.On("RecordAllocation", mock.Anything, mock.MatchedBy(func(a *models.Allocation) bool {
		return a.Fulfilled && a.Center == "Center A" && a.Distance == -1
	})).Return(nil).Once()

	svc := NewService(store, nil, WithLogger(discardLogger()), WithClock(func() time.Time { return fixedNow }))

	_, err := svc.Submit(context.Background(), smallRequest("Chennai"))
	require.NoError(t, err)

	_, err = svc.AllocateNext(context.Background())

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestService_SeedCentersIdempotent(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, smallRequest("Chennai"))
	require.NoError(t, err)
	_, err = svc.AllocateNext(ctx)
	require.NoError(t, err)

	seeded, err := svc.SeedCenters(ctx, models.NewDefaultConfig().Simulation.Centers)
	require.NoError(t, err)
	assert.Equal(t, 0, seeded)

	centers, err := svc.Centers(ctx)
	require.NoError(t, err)
	require.Len(t, centers, 3)
	assert.Equal(t, "Center A", centers[0].Name)
	assert.Equal(t, 90, centers[0].Stock.Food, "re-seeding must keep stored stock")
}

func TestService_SeedCentersLookupError(t *testing.T) {
	store := new(MockStorage)
	store.On("GetCenter", mock.Anything, "Center A").Return(nil, errors.New("timeout"))
	svc := NewService(store, nil, WithLogger(discardLogger()))

	seeded, err := svc.SeedCenters(context.Background(), models.NewDefaultConfig().Simulation.Centers)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Center A")
	assert.Equal(t, 0, seeded)
	store.AssertNotCalled(t, "SaveCenter", mock.Anything, mock.Anything)
}

func TestService_SeedCentersSaveError(t *testing.T) {
	store := new(MockStorage)
	store.On("GetCenter", mock.Anything, mock.Anything).Return(nil, storage.ErrNotFound)
	store.On("SaveCenter", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("SaveCenter", mock.Anything, mock.Anything).Return(errors.New("readonly"))
	svc := NewService(store, nil, WithLogger(discardLogger()))

	seeded, err := svc.SeedCenters(context.Background(), models.NewDefaultConfig().Simulation.Centers)

	require.Error(t, err)
	assert.Equal(t, 1, seeded)
}

func TestService_AllocationsError(t *testing.T) {
	store := new(MockStorage)
	store.On("Allocations", mock.Anything, 10).Return(nil, errors.New("boom"))
	svc := NewService(store, nil)

	_, err := svc.Allocations(context.Background(), 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load allocations")
}

func TestService_CentersError(t *testing.T) {
	store := new(MockStorage)
	store.On("Centers", mock.Anything).Return(nil, errors.New("boom"))
	svc := NewService(store, nil)

	_, err := svc.Centers(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load centers")
}
