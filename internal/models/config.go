// Package models - Service configuration.
// This file defines the configuration tree shared by the relief binaries.
//
// Configuration Layout:
// - Server: listener settings for the health API
// - Storage: persistence backend for the allocation simulation
// - Simulation: relief centers, routes and pacing for relief-sim
// - Logging, Metrics, Observability: ambient operational settings
//
// The server port has no default. It must come from the PORT environment
// variable or the config file, otherwise validation fails.
package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Storage type constants
const (
	StorageTypeJSON     = "json"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Trace exporter constants
const (
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

var (
	// ErrPortUnset is returned by ServerConfig.Validate when no port was configured.
	ErrPortUnset = errors.New("port is not set")
	// ErrPortOutOfRange is returned by ServerConfig.Validate for ports outside 1-65535.
	ErrPortOutOfRange = errors.New("port must be between 1 and 65535")
)

type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Simulation    SimulationConfig    `yaml:"simulation" json:"simulation"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

type StorageConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Path     string         `yaml:"path" json:"path"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

// SimulationConfig drives cmd/relief-sim.
type SimulationConfig struct {
	Centers          []CenterConfig `yaml:"centers" json:"centers"`
	Locations        []string       `yaml:"locations" json:"locations"`
	Routes           []RouteConfig  `yaml:"routes" json:"routes"`
	MinInterval      time.Duration  `yaml:"min_interval" json:"min_interval"`
	MaxInterval      time.Duration  `yaml:"max_interval" json:"max_interval"`
	DispatchInterval time.Duration  `yaml:"dispatch_interval" json:"dispatch_interval"`
	Seed             int64          `yaml:"seed" json:"seed"`
}

type CenterConfig struct {
	Name     string `yaml:"name" json:"name"`
	Location string `yaml:"location" json:"location"`
	Food     int    `yaml:"food" json:"food"`
	Water    int    `yaml:"water" json:"water"`
	Medicine int    `yaml:"medicine" json:"medicine"`
}

type RouteConfig struct {
	From     string `yaml:"from" json:"from"`
	To       string `yaml:"to" json:"to"`
	Distance int    `yaml:"distance" json:"distance"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig returns the baseline configuration.
//
// Defaults:
// - Server.Port is 0 (unset); there is no fallback port
// - Telemetry is off; the health API runs with a bare router
// - Memory storage so relief-sim runs without external dependencies
// - The three sample relief centers and a small Indian city graph
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
			Path: "./data/relief.json",
			Database: DatabaseConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
		},
		Simulation: SimulationConfig{
			Centers: []CenterConfig{
				{Name: "Center A", Location: "Chennai", Food: 100, Water: 100, Medicine: 50},
				{Name: "Center B", Location: "Mumbai", Food: 80, Water: 60, Medicine: 40},
				{Name: "Center C", Location: "Delhi", Food: 120, Water: 90, Medicine: 70},
			},
			Locations: []string{"Chennai", "Mumbai", "Delhi", "Kolkata", "Bengaluru", "Hyderabad"},
			Routes: []RouteConfig{
				{From: "Chennai", To: "Bengaluru", Distance: 346},
				{From: "Chennai", To: "Hyderabad", Distance: 627},
				{From: "Bengaluru", To: "Mumbai", Distance: 984},
				{From: "Hyderabad", To: "Mumbai", Distance: 711},
				{From: "Hyderabad", To: "Kolkata", Distance: 1493},
				{From: "Mumbai", To: "Delhi", Distance: 1400},
				{From: "Kolkata", To: "Delhi", Distance: 1531},
			},
			MinInterval:      2 * time.Second,
			MaxInterval:      6 * time.Second,
			DispatchInterval: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "relief",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   TraceExporterStdout,
				SampleRate: 1.0,
			},
		},
	}
}

// Validate checks everything the health server needs.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return c.validateAmbient()
}

// ValidateSimulation checks everything relief-sim needs. The server port is
// not required.
func (c *Config) ValidateSimulation() error {
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("invalid simulation config: %w", err)
	}
	return c.validateAmbient()
}

func (c *Config) validateAmbient() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}
	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port == 0 {
		return ErrPortUnset
	}
	if sc.Port < 0 || sc.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrPortOutOfRange, sc.Port)
	}
	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}
	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}
	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}
	return nil
}

func (stc *StorageConfig) Validate() error {
	switch stc.Type {
	case StorageTypeMemory:
		return nil
	case StorageTypeJSON:
		if stc.Path == "" {
			return errors.New("path is required for JSON storage")
		}
	case StorageTypePostgres, StorageTypeSQLite:
		if stc.Database.DSN == "" {
			return errors.New("database DSN is required for database storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}
	return nil
}

func (sc *SimulationConfig) Validate() error {
	if len(sc.Centers) == 0 {
		return errors.New("at least one relief center is required")
	}
	seen := make(map[string]bool, len(sc.Centers))
	for _, c := range sc.Centers {
		if c.Name == "" {
			return errors.New("relief center name cannot be empty")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate relief center: %s", c.Name)
		}
		seen[c.Name] = true
		if c.Food < 0 || c.Water < 0 || c.Medicine < 0 {
			return fmt.Errorf("relief center %s has negative stock", c.Name)
		}
	}
	if len(sc.Locations) == 0 {
		return errors.New("at least one request location is required")
	}
	for _, r := range sc.Routes {
		if r.From == "" || r.To == "" {
			return errors.New("route endpoints cannot be empty")
		}
		if r.Distance < 0 {
			return fmt.Errorf("route %s-%s has negative distance", r.From, r.To)
		}
	}
	if sc.MinInterval <= 0 {
		return errors.New("min interval must be positive")
	}
	if sc.MaxInterval < sc.MinInterval {
		return errors.New("max interval cannot be less than min interval")
	}
	if sc.DispatchInterval <= 0 {
		return errors.New("dispatch interval must be positive")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}
	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}
	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}
	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}
	if lc.MaxSize < 0 || lc.MaxBackups < 0 || lc.MaxAge < 0 {
		return errors.New("log rotation settings cannot be negative")
	}
	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}
	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}
	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}
	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}
	if !oc.Tracing.Enabled {
		return nil
	}
	switch oc.Tracing.Exporter {
	case TraceExporterStdout:
	case TraceExporterOTLP:
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %s", oc.Tracing.Exporter)
	}
	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}
	return nil
}
