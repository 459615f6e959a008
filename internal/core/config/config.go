package config

import (
	"time"

	"github.com/vietddude/sentinel/internal/gas"
	"github.com/vietddude/sentinel/internal/hedge"
	redisclient "github.com/vietddude/sentinel/internal/infra/redis"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
	"github.com/vietddude/sentinel/internal/retry"
	"github.com/vietddude/sentinel/internal/routes"
	"github.com/vietddude/sentinel/internal/stream"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Stream   StreamConfig       `yaml:"stream"`
	Gas      GasConfig          `yaml:"gas"`
	Routes   RoutesConfig       `yaml:"routes"`
	Hedge    hedge.Config       `yaml:"hedge"`
}

// ServerConfig holds the operational HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StreamConfig holds the venue feeds and the reconnect backoff they share.
type StreamConfig struct {
	Backoff retry.Config             `yaml:"backoff"`
	Feeds   []stream.WebsocketConfig `yaml:"feeds"`
}

// GasConfig combines oracle settings with the ordered source list.
type GasConfig struct {
	Oracle  gas.OracleConfig   `yaml:"oracle"`
	Sources []gas.SourceConfig `yaml:"sources"`
}

// RoutesConfig combines tracker thresholds with persistence settings.
type RoutesConfig struct {
	Tracker          routes.Config `yaml:"tracker"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}
