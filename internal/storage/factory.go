package storage

import (
	"fmt"
	"relief/internal/models"
)

// Factory provides a centralized way to create storage instances based on configuration.
type Factory struct{}

// NewFactory creates a new storage factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a storage provider based on the provided configuration.
// Supported providers:
//   - json: JSON snapshot file, zstd-compressed when the path ends in .zst
//   - memory: In-memory storage (for testing/development)
//   - postgres: PostgreSQL via pgxpool
//   - sqlite: SQLite via modernc.org/sqlite
func (f *Factory) Create(config models.StorageConfig) (Storage, error) {
	if err := f.ValidateConfig(config); err != nil {
		return nil, err
	}

	storageConfig := Config{
		Type:             config.Type,
		Path:             config.Path,
		ConnectionString: config.Database.DSN,
		MaxOpenConns:     config.Database.MaxOpenConns,
		MaxIdleConns:     config.Database.MaxIdleConns,
		ConnMaxLifetime:  config.Database.ConnMaxLifetime,
		ConnMaxIdleTime:  config.Database.ConnMaxIdleTime,
	}

	switch config.Type {
	case models.StorageTypeJSON:
		return asStorage(NewJSONStorage(storageConfig))
	case models.StorageTypeMemory:
		return asStorage(NewMemoryStorage(storageConfig))
	case models.StorageTypePostgres:
		return asStorage(NewPostgresStorage(storageConfig))
	case models.StorageTypeSQLite:
		return asStorage(NewSQLiteStorage(storageConfig))
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// asStorage keeps a failed constructor from yielding a non-nil interface
// holding a nil pointer.
func asStorage[T Storage](s T, err error) (Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSupportedProviders returns a list of all supported storage provider types
func (f *Factory) GetSupportedProviders() []string {
	return []string{models.StorageTypeJSON, models.StorageTypeMemory, models.StorageTypePostgres, models.StorageTypeSQLite}
}

// ValidateConfig validates that a storage configuration is valid for its type
func (f *Factory) ValidateConfig(config models.StorageConfig) error {
	switch config.Type {
	case models.StorageTypeJSON:
		if config.Path == "" {
			return fmt.Errorf("path is required for JSON storage")
		}
	case models.StorageTypeMemory:
		// Memory storage requires no additional configuration
	case models.StorageTypePostgres, models.StorageTypeSQLite:
		if config.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", config.Type)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", config.Type)
	}
	return nil
}
