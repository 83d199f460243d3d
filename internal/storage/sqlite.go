package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"relief/internal/models"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS centers (
		name       TEXT PRIMARY KEY,
		location   TEXT NOT NULL,
		food       INTEGER NOT NULL,
		water      INTEGER NOT NULL,
		medicine   INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS allocations (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		request_id TEXT NOT NULL,
		location   TEXT NOT NULL,
		center     TEXT NOT NULL DEFAULT '',
		food       INTEGER NOT NULL,
		water      INTEGER NOT NULL,
		medicine   INTEGER NOT NULL,
		urgency    INTEGER NOT NULL,
		distance   INTEGER NOT NULL,
		fulfilled  INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_created_at ON allocations (created_at)`,
}

const sqliteAllocationColumns = `id, request_id, location, center, food, water, medicine, urgency, distance, fulfilled, created_at`

// SQLiteStorage implements the Storage interface on SQLite. Timestamps are
// stored as unix nanoseconds.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database and creates the schema if needed.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory:
	// databases from splitting across the pool.
	db.SetMaxOpenConns(1)
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteStorage{db: db}, nil
}

func scanSQLiteCenter(row rowScanner) (*models.Center, error) {
	var (
		c         models.Center
		updatedAt int64
	)
	if err := row.Scan(&c.Name, &c.Location, &c.Stock.Food, &c.Stock.Water, &c.Stock.Medicine, &updatedAt); err != nil {
		return nil, err
	}
	c.UpdatedAt = fromUnixNano(updatedAt)
	return &c, nil
}

func scanSQLiteAllocation(row rowScanner) (*models.Allocation, error) {
	var (
		a         models.Allocation
		fulfilled int
		createdAt int64
	)
	err := row.Scan(&a.ID, &a.RequestID, &a.Location, &a.Center,
		&a.Needs.Food, &a.Needs.Water, &a.Needs.Medicine,
		&a.Urgency, &a.Distance, &fulfilled, &createdAt)
	if err != nil {
		return nil, err
	}
	a.Fulfilled = fulfilled != 0
	a.CreatedAt = fromUnixNano(createdAt)
	return &a, nil
}

// Centers returns all relief centers sorted by name
func (ss *SQLiteStorage) Centers(ctx context.Context) ([]*models.Center, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT name, location, food, water, medicine, updated_at FROM centers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query centers: %w", err)
	}
	defer rows.Close()

	centers := []*models.Center{}
	for rows.Next() {
		c, err := scanSQLiteCenter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan center: %w", err)
		}
		centers = append(centers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate centers: %w", err)
	}
	return centers, nil
}

// GetCenter retrieves a center by name
func (ss *SQLiteStorage) GetCenter(ctx context.Context, name string) (*models.Center, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT name, location, food, water, medicine, updated_at FROM centers WHERE name = ?`, name)

	c, err := scanSQLiteCenter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("center %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get center: %w", err)
	}
	return c, nil
}

// SaveCenter stores or updates a center
func (ss *SQLiteStorage) SaveCenter(ctx context.Context, center *models.Center) error {
	if err := validateCenter(center); err != nil {
		return err
	}

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO centers (name, location, food, water, medicine, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			location = excluded.location,
			food = excluded.food,
			water = excluded.water,
			medicine = excluded.medicine,
			updated_at = excluded.updated_at`,
		center.Name, center.Location,
		center.Stock.Food, center.Stock.Water, center.Stock.Medicine,
		toUnixNano(center.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save center %s: %w", center.Name, err)
	}
	return nil
}

// DeleteCenter removes a center by name
func (ss *SQLiteStorage) DeleteCenter(ctx context.Context, name string) error {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM centers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete center %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete center %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("center %s: %w", name, ErrNotFound)
	}
	return nil
}

// RecordAllocation appends an allocation record
func (ss *SQLiteStorage) RecordAllocation(ctx context.Context, allocation *models.Allocation) error {
	if err := validateAllocation(allocation); err != nil {
		return err
	}

	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO allocations (`+sqliteAllocationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		allocation.ID, allocation.RequestID, allocation.Location, allocation.Center,
		allocation.Needs.Food, allocation.Needs.Water, allocation.Needs.Medicine,
		allocation.Urgency, allocation.Distance, boolToInt(allocation.Fulfilled),
		toUnixNano(allocation.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record allocation %s: %w", allocation.ID, err)
	}
	return nil
}

// Allocations returns the most recent allocation records
func (ss *SQLiteStorage) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := ss.db.QueryContext(ctx,
		`SELECT `+sqliteAllocationColumns+` FROM allocations ORDER BY created_at DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	allocations := []*models.Allocation{}
	for rows.Next() {
		a, err := scanSQLiteAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocations: %w", err)
	}
	return allocations, nil
}

// Ping verifies the database connection
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
