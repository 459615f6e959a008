package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/gas"
	"github.com/vietddude/sentinel/internal/routes"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
logging:
  level: debug
redis:
  url: redis://localhost:6379/0
stream:
  feeds:
    - venue: uniswap
      url: wss://feed.example/ws
      pairs: [WETH-USDC, WBTC-USDC]
gas:
  oracle:
    fallback_gwei: 25
    max_gwei: 1000
  sources:
    - name: premium
      kind: http
      url: https://gas.example/v1
      confidence: high
    - name: node
      kind: rpc
      url: https://rpc.example
      confidence: medium
    - name: pinned
      kind: static
      value: 25
routes:
  tracker:
    degrade_after: 3
    blacklist_after: 7
hedge:
  max_attempts: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Stream.Feeds) != 1 || cfg.Stream.Feeds[0].Venue != "uniswap" {
		t.Errorf("unexpected feeds %+v", cfg.Stream.Feeds)
	}
	if len(cfg.Stream.Feeds[0].Pairs) != 2 {
		t.Errorf("pairs = %v", cfg.Stream.Feeds[0].Pairs)
	}
	if cfg.Gas.Oracle.FallbackGwei != 25 {
		t.Errorf("fallback = %v, want 25", cfg.Gas.Oracle.FallbackGwei)
	}
	if len(cfg.Gas.Sources) != 3 || cfg.Gas.Sources[0].Name != "premium" {
		t.Errorf("unexpected sources %+v", cfg.Gas.Sources)
	}
	if cfg.Routes.Tracker.DegradeAfter != 3 || cfg.Routes.Tracker.BlacklistAfter != 7 {
		t.Errorf("unexpected tracker config %+v", cfg.Routes.Tracker)
	}
	if cfg.Hedge.MaxAttempts != 4 {
		t.Errorf("hedge attempts = %d, want 4", cfg.Hedge.MaxAttempts)
	}

	// Sources from config must build cleanly.
	if _, err := gas.BuildSources(cfg.Gas.Sources); err != nil {
		t.Errorf("BuildSources: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server: {}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port default = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gas.Oracle.TTL != gas.DefaultTTL {
		t.Errorf("ttl default = %v, want %v", cfg.Gas.Oracle.TTL, gas.DefaultTTL)
	}
	if cfg.Routes.Tracker.DegradeAfter != routes.DefaultConfig.DegradeAfter {
		t.Errorf("degrade default = %d", cfg.Routes.Tracker.DegradeAfter)
	}
	if cfg.Routes.SnapshotInterval != 30*time.Second {
		t.Errorf("snapshot interval default = %v", cfg.Routes.SnapshotInterval)
	}
	if cfg.Hedge.MaxAttempts != 3 {
		t.Errorf("hedge attempts default = %d, want 3", cfg.Hedge.MaxAttempts)
	}
	if cfg.Stream.Backoff.InitialDelay != time.Second {
		t.Errorf("stream backoff default = %+v", cfg.Stream.Backoff)
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("GAS_API_URL", "https://gas.example/v1")
	path := writeConfig(t, `
gas:
  sources:
    - name: premium
      kind: http
      url: ${GAS_API_URL}
      confidence: high
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gas.Sources[0].URL != "https://gas.example/v1" {
		t.Errorf("url = %q, env expansion failed", cfg.Gas.Sources[0].URL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Error("want error for malformed yaml")
	}
}
