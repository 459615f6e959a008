// Package stream keeps a long-lived event stream alive. The controller
// reopens the stream after every failure with bounded exponential backoff and
// never gives up on its own; network partitions are assumed transitory and
// only external cancellation stops the loop.
package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/obs/metrics"
	"github.com/vietddude/sentinel/internal/retry"
)

// EventStream is one live session. Next blocks until an event arrives, the
// stream fails, or ctx is cancelled. End-of-stream and transport errors are
// treated identically by the controller: reconnect.
type EventStream interface {
	Next(ctx context.Context) (domain.MarketEvent, error)
	Close() error
}

// Source opens stream sessions.
type Source interface {
	// Name identifies the source in logs and metrics (e.g. the venue)
	Name() string

	// Open establishes a new session
	Open(ctx context.Context) (EventStream, error)
}

// Handler receives events in the order the stream delivers them.
type Handler func(domain.MarketEvent)

// Controller reattaches to a source forever.
type Controller struct {
	source  Source
	handler Handler
	backoff *retry.Backoff
	log     *slog.Logger
}

// NewController wires a source to a handler with the given backoff config.
func NewController(source Source, handler Handler, cfg retry.Config, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		source:  source,
		handler: handler,
		backoff: retry.NewBackoff(cfg),
		log:     log,
	}
}

// Run loops until ctx is cancelled. Any single delivered event proves
// liveness and resets the backoff; stale real-time data costs more than a
// spurious reset. The backoff sleep is interruptible so shutdown is prompt
// even mid-wait.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.log.Info("stream connecting", "source", c.source.Name(), "attempt", c.backoff.Attempts())
		metrics.StreamReconnectsTotal.WithLabelValues(c.source.Name()).Inc()

		s, err := c.source.Open(ctx)
		if err == nil {
			c.log.Info("stream connected", "source", c.source.Name())
			err = c.consume(ctx, s)
			_ = s.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := c.backoff.Next()
		c.log.Warn("stream disconnected",
			"source", c.source.Name(),
			"error", err,
			"next_delay", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// consume delivers events until the session dies. Returns the terminal error
// (domain.ErrStreamClosed for a clean end).
func (c *Controller) consume(ctx context.Context, s EventStream) error {
	for {
		ev, err := s.Next(ctx)
		if err != nil {
			return err
		}
		// Every event proves the connection is live.
		c.backoff.Reset()
		metrics.StreamEventsTotal.WithLabelValues(c.source.Name()).Inc()
		c.handler(ev)
	}
}
