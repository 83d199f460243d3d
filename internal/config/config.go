package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"relief/internal/models"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PortEnv is the environment variable holding the listen port.
const PortEnv = "PORT"

var (
	// ErrMissingPort means no port was configured in the environment or file.
	ErrMissingPort = errors.New("PORT is not set")
	// ErrInvalidPort means the configured port is not a usable TCP port.
	ErrInvalidPort = errors.New("PORT is not a valid port number")
)

// Load loads the health server configuration from defaults, an optional YAML
// file and environment variables, in that order. A missing or malformed PORT
// fails with ErrMissingPort or ErrInvalidPort.
func Load(configPath string) (*models.Config, error) {
	config, err := load(configPath)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, translatePortError(err)
	}

	return config, nil
}

// LoadSimulation loads configuration for relief-sim. PORT is not required.
func LoadSimulation(configPath string) (*models.Config, error) {
	config, err := load(configPath)
	if err != nil {
		return nil, err
	}

	if err := config.ValidateSimulation(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadDotenv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnvironment(config); err != nil {
		return nil, err
	}

	return config, nil
}

func translatePortError(err error) error {
	switch {
	case errors.Is(err, models.ErrPortUnset):
		return fmt.Errorf("invalid configuration: %w", ErrMissingPort)
	case errors.Is(err, models.ErrPortOutOfRange):
		return fmt.Errorf("invalid configuration: %w: %w", ErrInvalidPort, err)
	default:
		return fmt.Errorf("invalid configuration: %w", err)
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", filePath)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment applies environment overrides. PORT is parsed strictly;
// every other key is ignored when it does not parse.
func loadFromEnvironment(config *models.Config) error {
	if port, ok := os.LookupEnv(PortEnv); ok {
		p, err := parsePort(port)
		if err != nil {
			return err
		}
		config.Server.Port = p
	}

	if host := os.Getenv("RELIEF_HOST"); host != "" {
		config.Server.Host = host
	}

	if d, ok := envDuration("RELIEF_READ_TIMEOUT"); ok {
		config.Server.ReadTimeout = d
	}

	if d, ok := envDuration("RELIEF_WRITE_TIMEOUT"); ok {
		config.Server.WriteTimeout = d
	}

	if d, ok := envDuration("RELIEF_IDLE_TIMEOUT"); ok {
		config.Server.IdleTimeout = d
	}

	// Storage configuration
	if storageType := os.Getenv("RELIEF_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if storagePath := os.Getenv("RELIEF_STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}

	if dsn := os.Getenv("RELIEF_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	if n, ok := envInt("RELIEF_DATABASE_MAX_OPEN_CONNS"); ok {
		config.Storage.Database.MaxOpenConns = n
	}

	if n, ok := envInt("RELIEF_DATABASE_MAX_IDLE_CONNS"); ok {
		config.Storage.Database.MaxIdleConns = n
	}

	// Simulation configuration
	if locations := os.Getenv("RELIEF_SIM_LOCATIONS"); locations != "" {
		config.Simulation.Locations = splitAndTrim(locations, ",")
	}

	if d, ok := envDuration("RELIEF_SIM_MIN_INTERVAL"); ok {
		config.Simulation.MinInterval = d
	}

	if d, ok := envDuration("RELIEF_SIM_MAX_INTERVAL"); ok {
		config.Simulation.MaxInterval = d
	}

	if d, ok := envDuration("RELIEF_SIM_DISPATCH_INTERVAL"); ok {
		config.Simulation.DispatchInterval = d
	}

	if seed := os.Getenv("RELIEF_SIM_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Simulation.Seed = s
		}
	}

	// Logging configuration
	if level := os.Getenv("RELIEF_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}

	if format := os.Getenv("RELIEF_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("RELIEF_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("RELIEF_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	if n, ok := envInt("RELIEF_LOG_MAX_SIZE"); ok {
		config.Logging.MaxSize = n
	}

	if n, ok := envInt("RELIEF_LOG_MAX_BACKUPS"); ok {
		config.Logging.MaxBackups = n
	}

	if n, ok := envInt("RELIEF_LOG_MAX_AGE"); ok {
		config.Logging.MaxAge = n
	}

	if b, ok := envBool("RELIEF_LOG_COMPRESS"); ok {
		config.Logging.Compress = b
	}

	// Metrics configuration
	if b, ok := envBool("RELIEF_METRICS_ENABLED"); ok {
		config.Metrics.Enabled = b
	}

	if path := os.Getenv("RELIEF_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if n, ok := envInt("RELIEF_METRICS_PORT"); ok {
		config.Metrics.Port = n
	}

	// Observability configuration
	if name := os.Getenv("RELIEF_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if b, ok := envBool("RELIEF_TRACING_ENABLED"); ok {
		config.Observability.Tracing.Enabled = b
	}

	if exporter := os.Getenv("RELIEF_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("RELIEF_TRACING_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv("RELIEF_TRACING_SAMPLE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = r
		}
	}

	return nil
}

func parsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("invalid configuration: %w", ErrMissingPort)
	}
	p, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid configuration: %w: %q", ErrInvalidPort, raw)
	}
	if p <= 0 || p > 65535 {
		return 0, fmt.Errorf("invalid configuration: %w: %d is out of range", ErrInvalidPort, p)
	}
	return p, nil
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	return strings.ToLower(v) == "true", true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// splitAndTrim splits a string by delimiter and drops empty parts
func splitAndTrim(s, delim string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(s, delim) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// SaveExample writes an example configuration file.
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.Server.Port = 3000
	config.Storage.Type = models.StorageTypeSQLite
	config.Storage.Database.DSN = "./data/relief.db"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
