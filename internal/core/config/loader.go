package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/sentinel/internal/gas"
	"github.com/vietddude/sentinel/internal/hedge"
	"github.com/vietddude/sentinel/internal/retry"
	"github.com/vietddude/sentinel/internal/routes"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Stream.Backoff == (retry.Config{}) {
		cfg.Stream.Backoff = retry.DefaultConfig
	}

	if cfg.Gas.Oracle.TTL == 0 {
		cfg.Gas.Oracle.TTL = gas.DefaultTTL
	}
	if cfg.Gas.Oracle.FallbackGwei == 0 {
		cfg.Gas.Oracle.FallbackGwei = 30
	}

	if cfg.Routes.Tracker.DegradeAfter == 0 {
		cfg.Routes.Tracker.DegradeAfter = routes.DefaultConfig.DegradeAfter
	}
	if cfg.Routes.Tracker.BlacklistAfter == 0 {
		cfg.Routes.Tracker.BlacklistAfter = routes.DefaultConfig.BlacklistAfter
	}
	if cfg.Routes.SnapshotInterval == 0 {
		cfg.Routes.SnapshotInterval = 30 * time.Second
	}

	if cfg.Hedge.MaxAttempts == 0 {
		cfg.Hedge.MaxAttempts = hedge.DefaultConfig.MaxAttempts
	}
	if cfg.Hedge.Backoff == (retry.Config{}) {
		cfg.Hedge.Backoff = hedge.DefaultConfig.Backoff
	}
}
