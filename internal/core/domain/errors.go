package domain

import "errors"

var (
	// ErrStreamClosed marks a stream that ended without a transport error.
	// The reconnection loop treats it the same as any other disconnect.
	ErrStreamClosed = errors.New("stream closed")

	// ErrEscalated is returned when a critical action exhausted its retries
	// and an Escalation record was emitted.
	ErrEscalated = errors.New("retries exhausted, escalated")

	// ErrRouteNotFound is returned by operational tooling when a reset names
	// a route that was never recorded.
	ErrRouteNotFound = errors.New("route not found")
)
