package storage

import (
	"context"
	"errors"
	"fmt"
	"relief/internal/models"
	"sync"
	"testing"
	"time"
)

// runStorageSuite exercises the Storage contract against any backend.
func runStorageSuite(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Run("EmptyStorage", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		centers, err := s.Centers(ctx)
		if err != nil {
			t.Fatalf("Centers failed: %v", err)
		}
		if len(centers) != 0 {
			t.Errorf("expected no centers, got %d", len(centers))
		}

		allocations, err := s.Allocations(ctx, 0)
		if err != nil {
			t.Fatalf("Allocations failed: %v", err)
		}
		if len(allocations) != 0 {
			t.Errorf("expected no allocations, got %d", len(allocations))
		}

		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("CenterCRUD", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		center := testCenter("Center A", "Chennai", 100, 100, 50)
		if err := s.SaveCenter(ctx, center); err != nil {
			t.Fatalf("SaveCenter failed: %v", err)
		}

		got, err := s.GetCenter(ctx, "Center A")
		if err != nil {
			t.Fatalf("GetCenter failed: %v", err)
		}
		assertCenterEqual(t, center, got)

		center.Stock = models.Stock{Food: 70, Water: 60, Medicine: 45}
		center.UpdatedAt = center.UpdatedAt.Add(time.Minute)
		if err := s.SaveCenter(ctx, center); err != nil {
			t.Fatalf("SaveCenter update failed: %v", err)
		}

		got, err = s.GetCenter(ctx, "Center A")
		if err != nil {
			t.Fatalf("GetCenter after update failed: %v", err)
		}
		assertCenterEqual(t, center, got)

		centers, err := s.Centers(ctx)
		if err != nil {
			t.Fatalf("Centers failed: %v", err)
		}
		if len(centers) != 1 {
			t.Fatalf("expected 1 center after upsert, got %d", len(centers))
		}

		if err := s.DeleteCenter(ctx, "Center A"); err != nil {
			t.Fatalf("DeleteCenter failed: %v", err)
		}
		if _, err := s.GetCenter(ctx, "Center A"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("CentersSortedByName", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		for _, name := range []string{"Center C", "Center A", "Center B"} {
			if err := s.SaveCenter(ctx, testCenter(name, "Delhi", 1, 1, 1)); err != nil {
				t.Fatalf("SaveCenter %s failed: %v", name, err)
			}
		}

		centers, err := s.Centers(ctx)
		if err != nil {
			t.Fatalf("Centers failed: %v", err)
		}
		want := []string{"Center A", "Center B", "Center C"}
		if len(centers) != len(want) {
			t.Fatalf("expected %d centers, got %d", len(want), len(centers))
		}
		for i, name := range want {
			if centers[i].Name != name {
				t.Errorf("position %d: expected %s, got %s", i, name, centers[i].Name)
			}
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		if _, err := s.GetCenter(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetCenter: expected ErrNotFound, got %v", err)
		}
		if err := s.DeleteCenter(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteCenter: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		if err := s.SaveCenter(ctx, nil); err == nil {
			t.Error("expected error for nil center")
		}
		if err := s.SaveCenter(ctx, &models.Center{}); err == nil {
			t.Error("expected error for unnamed center")
		}
		if err := s.RecordAllocation(ctx, nil); err == nil {
			t.Error("expected error for nil allocation")
		}
		if err := s.RecordAllocation(ctx, &models.Allocation{}); err == nil {
			t.Error("expected error for allocation without ID")
		}
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		center := testCenter("Center A", "Chennai", 100, 100, 50)
		if err := s.SaveCenter(ctx, center); err != nil {
			t.Fatalf("SaveCenter failed: %v", err)
		}
		center.Stock.Food = 0

		got, err := s.GetCenter(ctx, "Center A")
		if err != nil {
			t.Fatalf("GetCenter failed: %v", err)
		}
		if got.Stock.Food != 100 {
			t.Errorf("stored center changed through caller pointer: food=%d", got.Stock.Food)
		}

		got.Stock.Water = 0
		again, err := s.GetCenter(ctx, "Center A")
		if err != nil {
			t.Fatalf("GetCenter failed: %v", err)
		}
		if again.Stock.Water != 100 {
			t.Errorf("stored center changed through returned pointer: water=%d", again.Stock.Water)
		}
	})

	t.Run("AllocationsNewestFirst", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			a := testAllocation(fmt.Sprintf("alloc-%d", i), base.Add(time.Duration(i)*time.Second))
			a.Fulfilled = i%2 == 0
			if a.Fulfilled {
				a.Center = "Center A"
				a.Distance = 346
			}
			if err := s.RecordAllocation(ctx, a); err != nil {
				t.Fatalf("RecordAllocation %d failed: %v", i, err)
			}
		}

		all, err := s.Allocations(ctx, 0)
		if err != nil {
			t.Fatalf("Allocations failed: %v", err)
		}
		if len(all) != 5 {
			t.Fatalf("expected 5 allocations, got %d", len(all))
		}
		for i, a := range all {
			want := fmt.Sprintf("alloc-%d", 4-i)
			if a.ID != want {
				t.Errorf("position %d: expected %s, got %s", i, want, a.ID)
			}
		}

		first := all[0]
		if !first.Fulfilled || first.Center != "Center A" || first.Distance != 346 {
			t.Errorf("unexpected fulfilled record: %+v", first)
		}
		if first.Needs != (models.Stock{Food: 20, Water: 30, Medicine: 10}) {
			t.Errorf("unexpected needs: %+v", first.Needs)
		}
		if !first.CreatedAt.Equal(base.Add(4 * time.Second)) {
			t.Errorf("unexpected created_at: %v", first.CreatedAt)
		}
		if all[1].Fulfilled || all[1].Center != "" || all[1].Distance != -1 {
			t.Errorf("unexpected unfulfilled record: %+v", all[1])
		}

		limited, err := s.Allocations(ctx, 2)
		if err != nil {
			t.Fatalf("Allocations with limit failed: %v", err)
		}
		if len(limited) != 2 || limited[0].ID != "alloc-4" || limited[1].ID != "alloc-3" {
			t.Errorf("unexpected limited allocations: %v", allocationIDs(limited))
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 40)
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				errs <- s.SaveCenter(ctx, testCenter(fmt.Sprintf("Center %02d", i), "Delhi", i, i, i))
			}(i)
			go func(i int) {
				defer wg.Done()
				errs <- s.RecordAllocation(ctx, testAllocation(fmt.Sprintf("concurrent-%d", i), time.Now().UTC()))
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("concurrent operation failed: %v", err)
			}
		}

		centers, err := s.Centers(ctx)
		if err != nil {
			t.Fatalf("Centers failed: %v", err)
		}
		if len(centers) != 20 {
			t.Errorf("expected 20 centers, got %d", len(centers))
		}
		allocations, err := s.Allocations(ctx, 0)
		if err != nil {
			t.Fatalf("Allocations failed: %v", err)
		}
		if len(allocations) != 20 {
			t.Errorf("expected 20 allocations, got %d", len(allocations))
		}
	})
}

func testCenter(name, location string, food, water, medicine int) *models.Center {
	return &models.Center{
		Name:      name,
		Location:  location,
		Stock:     models.Stock{Food: food, Water: water, Medicine: medicine},
		UpdatedAt: time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
	}
}

func testAllocation(id string, createdAt time.Time) *models.Allocation {
	return &models.Allocation{
		ID:        id,
		RequestID: "req-" + id,
		Location:  "Kolkata",
		Needs:     models.Stock{Food: 20, Water: 30, Medicine: 10},
		Urgency:   7,
		Distance:  -1,
		CreatedAt: createdAt,
	}
}

func assertCenterEqual(t *testing.T, want, got *models.Center) {
	t.Helper()
	if got.Name != want.Name || got.Location != want.Location || got.Stock != want.Stock {
		t.Errorf("center mismatch: want %+v, got %+v", want, got)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("updated_at mismatch: want %v, got %v", want.UpdatedAt, got.UpdatedAt)
	}
}

func allocationIDs(allocations []*models.Allocation) []string {
	ids := make([]string, len(allocations))
	for i, a := range allocations {
		ids[i] = a.ID
	}
	return ids
}
