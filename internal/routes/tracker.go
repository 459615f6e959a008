// Package routes tracks the health of tradable routes and demotes the
// unreliable ones. A route degrades and then blacklists on consecutive
// failures; it only returns to healthy through an explicit reset, manual or
// cooldown-driven.
package routes

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/obs/metrics"
)

// Config defines demotion thresholds and the optional cooldown policy.
type Config struct {
	// DegradeAfter consecutive failures move a healthy route to degraded.
	DegradeAfter int `yaml:"degrade_after"`

	// BlacklistAfter consecutive failures blacklist the route.
	BlacklistAfter int `yaml:"blacklist_after"`

	// Cooldown auto-resets a blacklisted route once its last failure is this
	// old. 0 disables auto-reset; a persistently bad route then stays
	// blacklisted until an operator steps in.
	Cooldown time.Duration `yaml:"cooldown"`
}

// DefaultConfig demotes quickly and keeps recovery a deliberate act.
var DefaultConfig = Config{
	DegradeAfter:   2,
	BlacklistAfter: 5,
	Cooldown:       0,
}

func (c Config) withDefaults() Config {
	if c.DegradeAfter <= 0 {
		c.DegradeAfter = DefaultConfig.DegradeAfter
	}
	if c.BlacklistAfter <= c.DegradeAfter {
		c.BlacklistAfter = DefaultConfig.BlacklistAfter
		if c.BlacklistAfter <= c.DegradeAfter {
			c.BlacklistAfter = c.DegradeAfter + 3
		}
	}
	return c
}

type record struct {
	state               domain.RouteState
	consecutiveFailures int
	totalAttempts       int64
	totalSuccesses      int64
	lastFailureAt       time.Time
	lastSuccessAt       time.Time
}

// Tracker is the concurrently shared route registry. Records are created
// lazily on first use and never deleted, only reset.
type Tracker struct {
	cfg Config
	log *slog.Logger

	mu      sync.RWMutex
	records map[domain.RouteID]*record
}

// NewTracker creates a tracker with the given thresholds.
func NewTracker(cfg Config, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		cfg:     cfg.withDefaults(),
		log:     log,
		records: make(map[domain.RouteID]*record),
	}
}

// nextState is the automatic downgrade path: a pure function of the previous
// state and the consecutive-failure count. It never moves a route upward.
func nextState(prev domain.RouteState, consecutiveFailures int, cfg Config) domain.RouteState {
	switch {
	case consecutiveFailures >= cfg.BlacklistAfter:
		return domain.RouteBlacklisted
	case consecutiveFailures >= cfg.DegradeAfter:
		if prev == domain.RouteBlacklisted {
			return prev
		}
		return domain.RouteDegraded
	default:
		return prev
	}
}

// IsUsable reports whether the caller should attempt the route. Unknown
// routes are usable; blacklisted ones are excluded until reset.
func (t *Tracker) IsUsable(id domain.RouteID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[id]
	if !ok {
		return true
	}
	return r.state != domain.RouteBlacklisted
}

// State returns the current state of a route, healthy for unknown routes.
func (t *Tracker) State(id domain.RouteID) domain.RouteState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if r, ok := t.records[id]; ok {
		return r.state
	}
	return domain.RouteHealthy
}

// RecordSuccess zeroes the consecutive-failure count. It never auto-heals a
// demoted route: degraded stays degraded, blacklisted stays blacklisted.
func (t *Tracker) RecordSuccess(id domain.RouteID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.ensure(id)
	r.totalAttempts++
	r.totalSuccesses++
	r.consecutiveFailures = 0
	r.lastSuccessAt = time.Now()

	metrics.RouteOutcomesTotal.WithLabelValues(id.String(), "success").Inc()
	t.updateGauges()
}

// RecordFailure bumps the consecutive-failure count and applies the
// thresholds.
func (t *Tracker) RecordFailure(id domain.RouteID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.ensure(id)
	r.totalAttempts++
	r.consecutiveFailures++
	r.lastFailureAt = time.Now()

	prev := r.state
	r.state = nextState(prev, r.consecutiveFailures, t.cfg)
	if r.state != prev {
		t.log.Warn("route demoted",
			"route", id.String(),
			"from", prev,
			"to", r.state,
			"consecutive_failures", r.consecutiveFailures)
	}

	metrics.RouteOutcomesTotal.WithLabelValues(id.String(), "failure").Inc()
	t.updateGauges()
}

// Reset forces a route back to healthy. Unknown routes return
// domain.ErrRouteNotFound so tooling can report "not found" without treating
// it as a failure.
func (t *Tracker) Reset(id domain.RouteID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[id]
	if !ok {
		return domain.ErrRouteNotFound
	}

	prev := r.state
	r.state = domain.RouteHealthy
	r.consecutiveFailures = 0
	if prev != domain.RouteHealthy {
		t.log.Info("route reset", "route", id.String(), "from", prev)
	}
	t.updateGauges()
	return nil
}

// Report returns a sorted snapshot of every tracked route.
func (t *Tracker) Report() []domain.RouteReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.RouteReport, 0, len(t.records))
	for id, r := range t.records {
		rep := domain.RouteReport{
			Route:               id,
			State:               r.state,
			ConsecutiveFailures: r.consecutiveFailures,
			TotalAttempts:       r.totalAttempts,
			TotalSuccesses:      r.totalSuccesses,
			LastFailureAt:       r.lastFailureAt,
			LastSuccessAt:       r.lastSuccessAt,
		}
		if r.totalAttempts > 0 {
			rep.WinRate = float64(r.totalSuccesses) / float64(r.totalAttempts)
		}
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Route.String() < out[j].Route.String()
	})
	return out
}

// Restore seeds the registry from a persisted snapshot, keeping blacklists
// across restarts. Existing records win over the snapshot.
func (t *Tracker) Restore(reports []domain.RouteReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rep := range reports {
		if _, ok := t.records[rep.Route]; ok {
			continue
		}
		t.records[rep.Route] = &record{
			state:               rep.State,
			consecutiveFailures: rep.ConsecutiveFailures,
			totalAttempts:       rep.TotalAttempts,
			totalSuccesses:      rep.TotalSuccesses,
			lastFailureAt:       rep.LastFailureAt,
			lastSuccessAt:       rep.LastSuccessAt,
		}
	}
	t.updateGauges()
}

// SweepCooldown resets blacklisted routes whose last failure is older than
// the cooldown. No-op when the cooldown policy is disabled.
func (t *Tracker) SweepCooldown(now time.Time) []domain.RouteID {
	if t.cfg.Cooldown <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var reset []domain.RouteID
	for id, r := range t.records {
		if r.state != domain.RouteBlacklisted {
			continue
		}
		if now.Sub(r.lastFailureAt) < t.cfg.Cooldown {
			continue
		}
		r.state = domain.RouteHealthy
		r.consecutiveFailures = 0
		reset = append(reset, id)
		t.log.Info("route cooldown expired, reset", "route", id.String())
	}
	if len(reset) > 0 {
		t.updateGauges()
	}
	return reset
}

// RunCooldown periodically sweeps blacklisted routes until ctx is cancelled.
func (t *Tracker) RunCooldown(ctx context.Context, interval time.Duration) {
	if t.cfg.Cooldown <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.SweepCooldown(now)
		}
	}
}

func (t *Tracker) ensure(id domain.RouteID) *record {
	r, ok := t.records[id]
	if !ok {
		r = &record{state: domain.RouteHealthy}
		t.records[id] = r
	}
	return r
}

// updateGauges recomputes the per-state route counts. Caller holds the lock.
func (t *Tracker) updateGauges() {
	counts := map[domain.RouteState]int{}
	for _, r := range t.records {
		counts[r.state]++
	}
	for _, s := range []domain.RouteState{domain.RouteHealthy, domain.RouteDegraded, domain.RouteBlacklisted} {
		metrics.RoutesByState.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
