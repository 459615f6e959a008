// Package retry provides the bounded exponential backoff primitive shared by
// the stream reconnector, the route tracker, and the hedge retrier. Each
// component owns its own Backoff so failure signals from unrelated
// dependencies never cross-contaminate.
package retry

import (
	"math"
	"time"
)

// Config defines backoff behavior.
type Config struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

// DefaultConfig bounds the request rate to a failing dependency at one call
// per minute during a sustained outage while keeping recovery from a brief
// glitch at one second.
var DefaultConfig = Config{
	InitialDelay: 1 * time.Second,
	MaxDelay:     60 * time.Second,
	Multiplier:   2.0,
}

func (c Config) withDefaults() Config {
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultConfig.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultConfig.MaxDelay
	}
	if c.Multiplier <= 1 {
		c.Multiplier = DefaultConfig.Multiplier
	}
	return c
}

// Delay computes the wait for a given attempt count:
// min(initial × multiplier^attempt, max). Pure and monotone non-decreasing.
func (c Config) Delay(attempt int) time.Duration {
	c = c.withDefaults()
	if attempt < 0 {
		attempt = 0
	}
	// Clamp the exponent once the curve saturates so Pow never overflows.
	maxExp := math.Log(float64(c.MaxDelay)/float64(c.InitialDelay)) / math.Log(c.Multiplier)
	if float64(attempt) > maxExp {
		return c.MaxDelay
	}
	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

// Backoff tracks consecutive failures and converts them into wait durations.
// Not safe for concurrent use; every retry loop owns its own instance.
type Backoff struct {
	cfg      Config
	attempts int
}

// NewBackoff creates a Backoff with the given config, applying defaults for
// unset fields.
func NewBackoff(cfg Config) *Backoff {
	return &Backoff{cfg: cfg.withDefaults()}
}

// Next returns the wait for the current failure and advances the counter.
func (b *Backoff) Next() time.Duration {
	d := b.cfg.Delay(b.attempts)
	b.attempts++
	return d
}

// Attempts returns the number of failures observed since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Reset zeroes the failure counter; the next Next returns the initial delay.
func (b *Backoff) Reset() {
	b.attempts = 0
}
