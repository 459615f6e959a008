// Package hedge retries safety-critical order submissions a small, bounded
// number of times and escalates loudly when that fails. The system keeps
// running past an escalation, but the unprotected position becomes a human
// responsibility.
package hedge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/obs/metrics"
	"github.com/vietddude/sentinel/internal/retry"
)

// SubmitFunc places the hedge order with the execution engine.
type SubmitFunc func(ctx context.Context) (domain.Fill, error)

// Action is one critical submission with the context needed to escalate it.
type Action struct {
	// Name identifies the action in logs and escalations (e.g. "close-hedge").
	Name string

	// Position is the exposure left open if every attempt fails.
	Position domain.Position

	// Submit performs the actual order placement. It must be idempotent or
	// compensating; the retrier will call it up to MaxAttempts times.
	Submit SubmitFunc
}

// Escalator receives the record when retries are exhausted.
type Escalator interface {
	Escalate(ctx context.Context, e domain.Escalation)
}

// Config bounds the retry loop.
type Config struct {
	// MaxAttempts is deliberately small: the action is time-critical, and an
	// alert channel, not more backoff, is the right response past this point.
	MaxAttempts int          `yaml:"max_attempts"`
	Backoff     retry.Config `yaml:"backoff"`
}

// DefaultConfig retries three times with 1s/2s waits between attempts.
var DefaultConfig = Config{
	MaxAttempts: 3,
	Backoff: retry.Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	},
}

// Retrier executes critical actions with bounded retry.
type Retrier struct {
	cfg        Config
	escalators []Escalator
	log        *slog.Logger
}

// NewRetrier creates a retrier that fans escalations out to the given sinks.
func NewRetrier(cfg Config, log *slog.Logger, escalators ...Escalator) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retrier{cfg: cfg, escalators: escalators, log: log}
}

// Execute runs the action until it succeeds, the attempts are exhausted, or
// ctx is cancelled. Exhaustion emits exactly one escalation and returns
// domain.ErrEscalated wrapping the final error.
func (r *Retrier) Execute(ctx context.Context, action Action) (domain.Fill, error) {
	backoff := retry.NewBackoff(r.cfg.Backoff)
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		fill, err := action.Submit(ctx)
		if err == nil {
			metrics.HedgeAttemptsTotal.WithLabelValues("success").Inc()
			if attempt > 1 {
				r.log.Info("critical action recovered",
					"action", action.Name,
					"route", action.Position.Route.String(),
					"attempt", attempt)
			}
			return fill, nil
		}

		lastErr = err
		metrics.HedgeAttemptsTotal.WithLabelValues("failure").Inc()
		r.log.Warn("critical action failed",
			"action", action.Name,
			"route", action.Position.Route.String(),
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"error", err)

		if attempt == r.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return domain.Fill{}, ctx.Err()
		case <-time.After(backoff.Next()):
		}
	}

	r.escalate(ctx, action, lastErr)
	return domain.Fill{}, fmt.Errorf("%w: %s: %w", domain.ErrEscalated, action.Name, lastErr)
}

// escalate builds the record and fans it out. Never raises past the caller.
func (r *Retrier) escalate(ctx context.Context, action Action, lastErr error) {
	esc := domain.Escalation{
		ID:        uuid.NewString(),
		Action:    action.Name,
		Route:     action.Position.Route,
		Position:  action.Position,
		LastError: lastErr.Error(),
		Attempts:  r.cfg.MaxAttempts,
		Timestamp: time.Now(),
	}

	metrics.EscalationsTotal.Inc()
	r.log.Error("critical action exhausted retries, manual intervention required",
		"escalation", true,
		"escalation_id", esc.ID,
		"action", esc.Action,
		"route", esc.Route.String(),
		"origin_tx", esc.Position.OriginTx,
		"attempts", esc.Attempts,
		"error", esc.LastError)

	for _, e := range r.escalators {
		e.Escalate(ctx, esc)
	}
}
