package config

import (
	"fmt"
	"time"
)

// Validate checks a loaded configuration for inconsistencies that would only
// surface at runtime otherwise.
func Validate(cfg *Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}

	if cfg.Scheduler.PollInterval < time.Second {
		return fmt.Errorf("%w: scheduler.poll_interval must be at least 1s", ErrInvalidConfig)
	}

	if cfg.Storage.Configured() {
		if cfg.Storage.AccessKeyID == "" || cfg.Storage.SecretAccessKey == "" {
			return fmt.Errorf("%w: storage credentials are required when a bucket is set", ErrInvalidConfig)
		}
		switch cfg.Storage.Compression {
		case "", "gzip", "zstd":
		default:
			return fmt.Errorf("%w: unknown storage.compression %q", ErrInvalidConfig, cfg.Storage.Compression)
		}
	}

	if cfg.Email.Host != "" && cfg.Email.From == "" {
		return fmt.Errorf("%w: email.from is required when email.host is set", ErrInvalidConfig)
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalidConfig, cfg.Logging.Level)
	}

	return nil
}
