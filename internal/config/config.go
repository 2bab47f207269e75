// Package config provides configuration management for reportpipe.
package config

import (
	"time"
)

// Config is the root configuration structure for reportpipe.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Email     EmailConfig     `mapstructure:"email"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string `mapstructure:"path"`

	// Enable WAL mode (recommended)
	WALMode bool `mapstructure:"wal_mode"`

	// Busy timeout
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// Cache size in KB (negative for KB, positive for pages)
	CacheSize int `mapstructure:"cache_size"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// SchedulerConfig holds due-report scheduler settings.
type SchedulerConfig struct {
	// How often to poll for due reports
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Deadline applied to each dispatched report run (0 disables)
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// SourcesConfig holds base URLs for the domain data services.
type SourcesConfig struct {
	// Base URL of the members service
	Members string `mapstructure:"members"`

	// Base URL of the revenue service
	Revenue string `mapstructure:"revenue"`

	// Base URL of the classes service
	Classes string `mapstructure:"classes"`

	// Base URL of the equipment service
	Equipment string `mapstructure:"equipment"`

	// Base URL of the system metrics service
	System string `mapstructure:"system"`

	// Per-request timeout for source calls
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds artifact storage (S3) settings. A zero value means
// storage is unconfigured and uploads are skipped.
type StorageConfig struct {
	// S3 bucket for rendered artifacts
	Bucket string `mapstructure:"bucket"`

	// AWS region
	Region string `mapstructure:"region"`

	// Custom endpoint (MinIO, R2, etc.)
	Endpoint string `mapstructure:"endpoint"`

	// Static credentials
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// Use path-style addressing (required for most custom endpoints)
	ForcePathStyle bool `mapstructure:"force_path_style"`

	// Lifetime of presigned download URLs
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`

	// Optional compression for delimited artifacts ("", "gzip", "zstd")
	Compression string `mapstructure:"compression"`
}

// Configured reports whether a storage backend has been set up.
func (s *StorageConfig) Configured() bool {
	return s.Bucket != ""
}

// EmailConfig holds SMTP delivery settings. A zero value means delivery is
// unconfigured and sends fail soft.
type EmailConfig struct {
	// SMTP server host
	Host string `mapstructure:"host"`

	// SMTP server port
	Port int `mapstructure:"port"`

	// SMTP username
	Username string `mapstructure:"username"`

	// SMTP password
	Password string `mapstructure:"password"`

	// From address for outgoing report mail
	From string `mapstructure:"from"`
}

// Configured reports whether an SMTP transport has been set up.
func (e *EmailConfig) Configured() bool {
	return e.Host != "" && e.From != ""
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enable the /metrics listener
	Enabled bool `mapstructure:"enabled"`

	// Address for the metrics listener
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`
}
