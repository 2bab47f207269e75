package config

import "time"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/reportpipe.db",
			WALMode:      true,
			BusyTimeout:  5 * time.Second,
			CacheSize:    -64000,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 60 * time.Second,
			RunTimeout:   10 * time.Minute,
		},
		Sources: SourcesConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
			// Download links are shared in email; they need to outlive the inbox.
			PresignExpiry: 8760 * time.Hour,
		},
		Email: EmailConfig{
			Port: 587,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
