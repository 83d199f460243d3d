package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"relief/internal/models"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const defaultCacheTTL = 5 * time.Minute

// JSONStorage implements the Storage interface on a single JSON snapshot file.
// It keeps an in-memory copy that is refreshed when the file changes on disk.
// Paths ending in ".zst" are stored zstd-compressed.
type JSONStorage struct {
	filePath     string
	cacheTTL     time.Duration
	mu           sync.RWMutex
	data         *JSONData
	lastModified time.Time
	cacheExpiry  time.Time

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// JSONData represents the structure of data stored in JSON format
type JSONData struct {
	Centers     []*models.Center     `json:"centers"`
	Allocations []*models.Allocation `json:"allocations"`
	LastUpdated time.Time            `json:"last_updated"`
}

// NewJSONStorage creates a new JSON-based storage instance
func NewJSONStorage(config Config) (*JSONStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	storage := &JSONStorage{
		filePath: config.Path,
		cacheTTL: cacheTTL,
	}

	if strings.HasSuffix(config.Path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			enc.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		storage.encoder = enc
		storage.decoder = dec
	}

	// Initialize with empty data if file doesn't exist
	if err := storage.ensureFileExists(); err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to ensure file exists: %w", err)
	}

	// Load initial data
	if err := storage.loadData(); err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	return storage, nil
}

// Compressed reports whether the snapshot is zstd-compressed.
func (j *JSONStorage) Compressed() bool {
	return j.encoder != nil
}

// ensureFileExists creates the snapshot with empty data if it doesn't exist
func (j *JSONStorage) ensureFileExists() error {
	if _, err := os.Stat(j.filePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(j.filePath), 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		emptyData := &JSONData{
			Centers:     []*models.Center{},
			Allocations: []*models.Allocation{},
		}
		return j.saveData(emptyData)
	}
	return nil
}

// loadData loads data from the snapshot with caching.
// Fast path under the read lock for cache hits; the slow path re-validates
// under the write lock before touching the file.
func (j *JSONStorage) loadData() error {
	j.mu.RLock()
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		j.mu.RUnlock()
		return nil
	}
	j.mu.RUnlock()

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		return nil
	}

	info, err := os.Stat(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// If the file hasn't changed, extend the cache and return.
	if j.data != nil && !info.ModTime().After(j.lastModified) {
		j.cacheExpiry = time.Now().Add(j.cacheTTL)
		return nil
	}

	fileData, err := os.ReadFile(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if j.decoder != nil {
		fileData, err = j.decoder.DecodeAll(fileData, nil)
		if err != nil {
			return fmt.Errorf("failed to decompress snapshot: %w", err)
		}
	}

	var data JSONData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	j.data = &data
	j.lastModified = info.ModTime()
	j.cacheExpiry = time.Now().Add(j.cacheTTL)
	return nil
}

// saveData writes the snapshot. Callers hold the write lock.
func (j *JSONStorage) saveData(data *JSONData) error {
	data.LastUpdated = time.Now().UTC()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if j.encoder != nil {
		fileData = j.encoder.EncodeAll(fileData, nil)
	}

	if err := os.WriteFile(j.filePath, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if info, err := os.Stat(j.filePath); err == nil {
		j.lastModified = info.ModTime()
	}
	return nil
}

// Centers returns all relief centers sorted by name
func (j *JSONStorage) Centers(ctx context.Context) ([]*models.Center, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	centers := make([]*models.Center, 0, len(j.data.Centers))
	for _, c := range j.data.Centers {
		centers = append(centers, copyCenter(c))
	}
	sort.Slice(centers, func(a, b int) bool {
		return centers[a].Name < centers[b].Name
	})
	return centers, nil
}

// GetCenter retrieves a center by name
func (j *JSONStorage) GetCenter(ctx context.Context, name string) (*models.Center, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, c := range j.data.Centers {
		if c.Name == name {
			return copyCenter(c), nil
		}
	}
	return nil, fmt.Errorf("center %s: %w", name, ErrNotFound)
}

// SaveCenter stores or updates a center
func (j *JSONStorage) SaveCenter(ctx context.Context, center *models.Center) error {
	if err := validateCenter(center); err != nil {
		return err
	}
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for i, existing := range j.data.Centers {
		if existing.Name == center.Name {
			j.data.Centers[i] = copyCenter(center)
			return j.saveData(j.data)
		}
	}

	j.data.Centers = append(j.data.Centers, copyCenter(center))
	return j.saveData(j.data)
}

// DeleteCenter removes a center by name
func (j *JSONStorage) DeleteCenter(ctx context.Context, name string) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for i, existing := range j.data.Centers {
		if existing.Name == name {
			j.data.Centers = append(j.data.Centers[:i], j.data.Centers[i+1:]...)
			return j.saveData(j.data)
		}
	}
	return fmt.Errorf("center %s: %w", name, ErrNotFound)
}

// RecordAllocation appends an allocation record
func (j *JSONStorage) RecordAllocation(ctx context.Context, allocation *models.Allocation) error {
	if err := validateAllocation(allocation); err != nil {
		return err
	}
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.data.Allocations = append(j.data.Allocations, copyAllocation(allocation))
	return j.saveData(j.data)
}

// Allocations returns the most recent allocation records
func (j *JSONStorage) Allocations(ctx context.Context, limit int) ([]*models.Allocation, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	return newestFirst(j.data.Allocations, limit), nil
}

// Ping checks that the snapshot file is still readable
func (j *JSONStorage) Ping(ctx context.Context) error {
	if _, err := os.Stat(j.filePath); err != nil {
		return fmt.Errorf("snapshot unavailable: %w", err)
	}
	return nil
}

// Close releases the zstd codec, if any
func (j *JSONStorage) Close() error {
	if j.decoder != nil {
		j.decoder.Close()
	}
	if j.encoder != nil {
		return j.encoder.Close()
	}
	return nil
}
