package gas

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/obs/metrics"
)

const (
	// DefaultTTL tracks fast-moving gas markets while bounding call volume.
	DefaultTTL = 12 * time.Second

	// FallbackSourceName tags quotes synthesized when every source failed.
	FallbackSourceName = "fallback"
)

// OracleConfig holds oracle-level settings; per-source settings live in the
// source list.
type OracleConfig struct {
	TTL time.Duration `yaml:"ttl"`

	// FallbackGwei is returned when all sources fail. Never cached.
	FallbackGwei float64 `yaml:"fallback_gwei"`

	// MaxGwei rejects implausible source answers. 0 disables the ceiling.
	MaxGwei float64 `yaml:"max_gwei"`
}

// Oracle resolves gas prices from sources in priority order. Price never
// fails and never blocks past the sum of the per-source timeouts; concurrent
// misses for one key share a single fetch.
type Oracle struct {
	sources []Source
	cfg     OracleConfig
	log     *slog.Logger

	mu       sync.Mutex
	cache    map[string]domain.GasQuote
	inflight map[string]*fetchCall
}

// fetchCall is one in-flight source sweep shared by all waiters for a key.
type fetchCall struct {
	done  chan struct{}
	quote domain.GasQuote
}

// NewOracle creates an oracle over the given sources, highest priority first.
func NewOracle(sources []Source, cfg OracleConfig, log *slog.Logger) *Oracle {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Oracle{
		sources:  sources,
		cfg:      cfg,
		log:      log,
		cache:    make(map[string]domain.GasQuote),
		inflight: make(map[string]*fetchCall),
	}
}

// Price returns the current gas quote for a key. A fresh cached quote is
// returned without any network call; otherwise sources are tried in order and
// the first plausible answer wins. When everything fails the configured
// fallback is returned with low confidence, uncached so real sources are
// retried on the very next call.
func (o *Oracle) Price(ctx context.Context, key string) domain.GasQuote {
	o.mu.Lock()
	if q, ok := o.cache[key]; ok && q.Fresh(time.Now()) {
		o.mu.Unlock()
		metrics.GasCacheTotal.WithLabelValues("hit").Inc()
		return q
	}

	if call, ok := o.inflight[key]; ok {
		o.mu.Unlock()
		metrics.GasCacheTotal.WithLabelValues("wait").Inc()
		select {
		case <-call.done:
			return call.quote
		case <-ctx.Done():
			return o.fallbackQuote(key)
		}
	}

	call := &fetchCall{done: make(chan struct{})}
	o.inflight[key] = call
	o.mu.Unlock()
	metrics.GasCacheTotal.WithLabelValues("miss").Inc()

	quote := o.resolve(ctx, key)

	o.mu.Lock()
	if quote.Source != FallbackSourceName {
		o.cache[key] = quote
	}
	delete(o.inflight, key)
	o.mu.Unlock()

	call.quote = quote
	close(call.done)
	return quote
}

// resolve sweeps the source list in priority order.
func (o *Oracle) resolve(ctx context.Context, key string) domain.GasQuote {
	for _, src := range o.sources {
		start := time.Now()
		srcCtx, cancel := context.WithTimeout(ctx, src.Timeout())
		value, err := src.Fetch(srcCtx, key)
		cancel()
		metrics.GasFetchLatency.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.GasFetchTotal.WithLabelValues(src.Name(), "error").Inc()
			o.log.Debug("gas source failed", "source", src.Name(), "key", key, "error", err)
			continue
		}
		if !o.plausible(value) {
			metrics.GasFetchTotal.WithLabelValues(src.Name(), "implausible").Inc()
			o.log.Warn("gas source returned implausible value", "source", src.Name(), "key", key, "value", value)
			continue
		}

		metrics.GasFetchTotal.WithLabelValues(src.Name(), "ok").Inc()
		return domain.GasQuote{
			Key:        key,
			GweiPrice:  value,
			Source:     src.Name(),
			Confidence: src.Confidence(),
			FetchedAt:  time.Now(),
			TTL:        o.cfg.TTL,
		}
	}

	o.log.Warn("all gas sources exhausted, using fallback", "key", key, "fallback_gwei", o.cfg.FallbackGwei)
	return o.fallbackQuote(key)
}

// fallbackQuote synthesizes the last-resort answer. TTL 0 keeps it out of the
// freshness window so the next call goes back to the real sources.
func (o *Oracle) fallbackQuote(key string) domain.GasQuote {
	return domain.GasQuote{
		Key:        key,
		GweiPrice:  o.cfg.FallbackGwei,
		Source:     FallbackSourceName,
		Confidence: domain.ConfidenceLow,
		FetchedAt:  time.Now(),
		TTL:        0,
	}
}

func (o *Oracle) plausible(value float64) bool {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	if o.cfg.MaxGwei > 0 && value > o.cfg.MaxGwei {
		return false
	}
	return true
}
