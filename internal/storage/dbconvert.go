package storage

import (
	"errors"
	"relief/internal/models"
	"sort"
	"time"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// toUnixNano converts a timestamp to the integer form stored by SQLite.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// fromUnixNano converts a stored SQLite timestamp back to UTC.
func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// boolToInt converts a bool to the 0/1 form stored by SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func validateCenter(center *models.Center) error {
	if center == nil {
		return errors.New("center cannot be nil")
	}
	if center.Name == "" {
		return errors.New("center name cannot be empty")
	}
	return nil
}

func validateAllocation(allocation *models.Allocation) error {
	if allocation == nil {
		return errors.New("allocation cannot be nil")
	}
	if allocation.ID == "" {
		return errors.New("allocation ID cannot be empty")
	}
	return nil
}

func copyCenter(c *models.Center) *models.Center {
	cp := *c
	return &cp
}

func copyAllocation(a *models.Allocation) *models.Allocation {
	cp := *a
	return &cp
}

// newestFirst returns up to limit records from an append-ordered slice,
// newest CreatedAt first. Equal timestamps keep reverse insertion order.
func newestFirst(records []*models.Allocation, limit int) []*models.Allocation {
	out := make([]*models.Allocation, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, copyAllocation(records[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
