package domain

import (
	"fmt"
	"strings"
	"time"
)

// RouteID identifies a tradable route: a pair on a venue on a chain.
type RouteID struct {
	Chain string `json:"chain"`
	Venue string `json:"venue"`
	Pair  string `json:"pair"`
}

// String renders the route as "chain:venue:pair".
func (r RouteID) String() string {
	return fmt.Sprintf("%s:%s:%s", r.Chain, r.Venue, r.Pair)
}

// ParseRouteID parses a "chain:venue:pair" string.
func ParseRouteID(s string) (RouteID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return RouteID{}, fmt.Errorf("invalid route id %q, want chain:venue:pair", s)
	}
	return RouteID{Chain: parts[0], Venue: parts[1], Pair: parts[2]}, nil
}

// RouteState is the health state of a route.
type RouteState string

const (
	RouteHealthy     RouteState = "healthy"
	RouteDegraded    RouteState = "degraded"
	RouteBlacklisted RouteState = "blacklisted"
)

// RouteReport is an immutable snapshot of one route's health counters.
type RouteReport struct {
	Route               RouteID    `json:"route"`
	State               RouteState `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	TotalAttempts       int64      `json:"total_attempts"`
	TotalSuccesses      int64      `json:"total_successes"`
	WinRate             float64    `json:"win_rate"`
	LastFailureAt       time.Time  `json:"last_failure_at,omitempty"`
	LastSuccessAt       time.Time  `json:"last_success_at,omitempty"`
}
