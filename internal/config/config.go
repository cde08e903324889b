// Package config loads the engine's process configuration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Server
	Port     int    `koanf:"port"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`

	// CORS
	AllowedOrigins []string `koanf:"allowed_origins"`

	// Document store
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`

	// Database URLs. Redis and ClickHouse are optional.
	PostgresURL   string `koanf:"postgres_url"`
	ClickHouseURL string `koanf:"clickhouse_url"`
	RedisURL      string `koanf:"redis_url"`

	// Worker pool
	WorkerCount   int           `koanf:"worker_count"`
	QueueSize     int           `koanf:"queue_size"`
	BatchSize     int           `koanf:"batch_size"`
	FlushInterval time.Duration `koanf:"flush_interval"`

	// Engine
	ConflictMaxRetries uint `koanf:"conflict_max_retries"`
	BatchWriteLimit    int  `koanf:"batch_write_limit"`
	RankingTopN        int  `koanf:"ranking_top_n"`
	NeighborRadius     int  `koanf:"neighbor_radius"`

	// Scheduler. Zero disables the job.
	RollupInterval  time.Duration `koanf:"rollup_interval"`
	RankingInterval time.Duration `koanf:"ranking_interval"`

	// Rate limiting
	RateLimitPerSecond int `koanf:"rate_limit_per_second"`
	RateLimitBurst     int `koanf:"rate_limit_burst"`

	// TraceStdout exports spans to stdout.
	TraceStdout bool `koanf:"trace_stdout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:     8080,
		Env:      "development",
		LogLevel: "info",

		AllowedOrigins: []string{"http://localhost:3000"},

		StoreDriver: DriverMemory,
		SQLitePath:  "stats.db",

		WorkerCount:   8,
		QueueSize:     10000,
		BatchSize:     100,
		FlushInterval: time.Second,

		ConflictMaxRetries: 5,
		BatchWriteLimit:    500,
		RankingTopN:        10,
		NeighborRadius:     2,

		RollupInterval:  15 * time.Minute,
		RankingInterval: time.Hour,

		RateLimitPerSecond: 100,
		RateLimitBurst:     200,
	}
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the selected driver has what it needs.
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.PostgresURL == "" {
			problems = append(problems, "postgres_url is required for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "sqlite_path is required for the sqlite store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store_driver %q", c.StoreDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.WorkerCount <= 0 {
		problems = append(problems, "worker_count must be positive")
	}
	if c.BatchWriteLimit <= 0 || c.BatchWriteLimit > 500 {
		problems = append(problems, "batch_write_limit must be between 1 and 500")
	}
	if c.RankingTopN <= 0 {
		problems = append(problems, "ranking_top_n must be positive")
	}
	if c.NeighborRadius < 0 {
		problems = append(problems, "neighbor_radius must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// splitOrigins accepts either a list or one comma-separated entry.
func splitOrigins(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, o := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
