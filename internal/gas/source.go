// Package gas resolves gas prices from a priority-ordered list of sources
// with per-key caching, confidence grading, and a hardcoded last resort.
//
// This package contains:
//   - Source interface: one fetchable gas price provider with its own timeout
//   - HTTPSource: JSON gas API over HTTP
//   - RPCSource: eth_gasPrice over JSON-RPC
//   - GRPCSource: gas fetch over a shared gRPC connection
//   - StaticSource: fixed constant tier
//   - Oracle: cache + miss coalescing + source iteration
package gas

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Source is a single gas price provider.
type Source interface {
	// Name returns the source identifier (e.g. "blocknative", "infura-rpc")
	Name() string

	// Confidence returns the trust tier declared for this source
	Confidence() domain.Confidence

	// Timeout returns the per-fetch deadline for this source
	Timeout() time.Duration

	// Fetch returns the current gas price in gwei for the given key
	Fetch(ctx context.Context, key string) (float64, error)
}

// SourceConfig describes one source in priority order.
type SourceConfig struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"` // http, rpc, grpc, static
	URL        string        `yaml:"url"`
	Field      string        `yaml:"field"` // http kind: JSON field holding the gwei price
	Value      float64       `yaml:"value"` // static kind
	Timeout    time.Duration `yaml:"timeout"`
	Confidence string        `yaml:"confidence"` // high, medium, low
}

// BuildSources constructs sources from config, preserving order.
func BuildSources(cfgs []SourceConfig) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		conf := domain.Confidence(c.Confidence)
		switch conf {
		case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
		case "":
			conf = domain.ConfidenceMedium
		default:
			return nil, fmt.Errorf("source %s: unknown confidence %q", c.Name, c.Confidence)
		}

		switch c.Kind {
		case "http":
			sources = append(sources, NewHTTPSource(c.Name, c.URL, c.Field, c.Timeout, conf))
		case "rpc":
			sources = append(sources, NewRPCSource(c.Name, c.URL, c.Timeout, conf))
		case "grpc":
			fetch, ok := grpcFetchFor(c.Name)
			if !ok {
				return nil, fmt.Errorf("grpc source %s: no fetch registered, call RegisterGRPCFetch first", c.Name)
			}
			src, err := NewGRPCSource(c.Name, c.URL, c.Timeout, conf, fetch)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		case "static":
			sources = append(sources, NewStaticSource(c.Name, c.Value))
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", c.Name, c.Kind)
		}
	}
	return sources, nil
}
