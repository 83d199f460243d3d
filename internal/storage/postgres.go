package storage

import (
	"context"
	"errors"
	"fmt"
	"relief/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS centers (
		name       TEXT PRIMARY KEY,
		location   TEXT NOT NULL,
		food       INTEGER NOT NULL,
		water      INTEGER NOT NULL,
		medicine   INTEGER NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS allocations (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		request_id TEXT NOT NULL,
		location   TEXT NOT NULL,
		center     TEXT NOT NULL DEFAULT '',
		food       INTEGER NOT NULL,
		water      INTEGER NOT NULL,
		medicine   INTEGER NOT NULL,
		urgency    INTEGER NOT NULL,
		distance   INTEGER NOT NULL,
		fulfilled  BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_created_at ON allocations (created_at)`,
}

const postgresAllocationColumns = `id, request_id, location, center, food, water, medicine, urgency, distance, fulfilled, created_at`

// PostgresStorage implements the Storage interface using PostgreSQL via pgxpool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a connection pool and creates the schema if needed.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(min(config.MaxIdleConns, int(poolConfig.MaxConns)))
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}
	if config.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &PostgresStorage{pool: pool}, nil
}

func scanPostgresCenter(row rowScanner) (*models.Center, error) {
	var c models.Center
	if err := row.Scan(&c.Name, &c.Location, &c.Stock.Food, &c.Stock.Water, &c.Stock.Medicine, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func scanPostgresAllocation(row rowScanner) (*models.Allocation, error) {
	var a models.Allocation
	err := row.Scan(&a.ID, &a.RequestID, &a.Location, &a.Center,
		&a.Needs.Food, &a.Needs.Water, &a.Needs.Medicine,
		&a.Urgency, &a.Distance, &a.Fulfilled, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Centers returns all relief centers sorted by name.
func (ps *PostgresStorage) Centers(ctx context.Context) ([]*models.Center, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT name, location, food, water, medicine, updated_at FROM centers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get centers: %w", err)
	}

	centers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Center, error) {
		return scanPostgresCenter(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read centers: %w", err)
	}
	return centers, nil
}

// GetCenter retrieves a center by name.
func (ps *PostgresStorage) GetCenter(ctx context.Context, name string) (*models.Center, error) {
	row := ps.pool.QueryRow(ctx,
		`SELECT name, location, food, water, medicine, updated_at FROM centers WHERE name = $1`, name)

	c, err := scanPostgresCenter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("center %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get center: %w", err)
	}
	return c, nil
}

// SaveCenter stores or updates a center (upsert).
func (ps *PostgresStorage) SaveCenter(ctx context.Context, center *models.Center) error {
	if err := validateCenter(center); err != nil {
		return err
	}

	_, err := ps.pool.Exec(ctx, `
		INSERT INTO centers (name, location, food, water, medicine, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			location = EXCLUDED.location,
			food = EXCLUDED.food,
			water = EXCLUDED.water,
			medicine = EXCLUDED.medicine,
			updated_at = EXCLUDED.updated_at`,
		center.Name, center.Location,
		center.Stock.Food, center.Stock.Water, center.Stock.Medicine,
		center.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save center %s: %w", center.Name, err)
	}
	return nil
}

// DeleteCenter removes a center by name.
func (ps *PostgresStorage) DeleteCenter(ctx context.Context, name string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM centers WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete center %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("center %s: %w", name, ErrNotFound)
	}
	return nil
}

// RecordAllocation appends an allocation record.
func (ps *PostgresStorage) RecordAllocation(ctx context.Context, allocation *models.Allocation) error {
	if err := validateAllocation(allocation); err != nil {
		return err
	}

	_, err := ps.pool.Exec(ctx,
		`INSERT INTO allocations (`+postgresAllocationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		allocation.ID, allocation.RequestID, allocation.Location, allocation.Center,
		allocation.Needs.Food, allocation.Needs.Water, allocation.Needs.Medicine,
		allocation.Urgency, allocation.Distance, allocation.Fulfilled,
		allocation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record allocation %s: %w", allocation.ID, err)
	}
	return nil
}

// Allocations returns the most recent allocation records.
func (ps *PostgresStorage) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	query := `SELECT ` + postgresAllocationColumns + ` FROM allocations ORDER BY created_at DESC, seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocations: %w", err)
	}

	allocations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Allocation, error) {
		return scanPostgresAllocation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read allocations: %w", err)
	}
	return allocations, nil
}

// Ping verifies the database connection.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}
