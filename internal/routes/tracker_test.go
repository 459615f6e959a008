package routes

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

var testRoute = domain.RouteID{Chain: "ethereum", Venue: "uniswap", Pair: "WETH-USDC"}

func newTestTracker() *Tracker {
	return NewTracker(Config{DegradeAfter: 2, BlacklistAfter: 5}, nil)
}

func TestDemotionThresholds(t *testing.T) {
	tr := newTestTracker()

	want := []domain.RouteState{
		domain.RouteHealthy,     // 1 failure
		domain.RouteDegraded,    // 2
		domain.RouteDegraded,    // 3
		domain.RouteDegraded,    // 4
		domain.RouteBlacklisted, // 5
		domain.RouteBlacklisted, // 6
	}
	for i, w := range want {
		tr.RecordFailure(testRoute)
		if got := tr.State(testRoute); got != w {
			t.Fatalf("after %d failures state = %s, want %s", i+1, got, w)
		}
	}

	if tr.IsUsable(testRoute) {
		t.Error("blacklisted route must not be usable")
	}
}

func TestSuccessDoesNotAutoHeal(t *testing.T) {
	tr := newTestTracker()

	tr.RecordFailure(testRoute)
	tr.RecordFailure(testRoute)
	if got := tr.State(testRoute); got != domain.RouteDegraded {
		t.Fatalf("state = %s, want degraded", got)
	}

	tr.RecordSuccess(testRoute)
	rep := tr.Report()[0]
	if rep.ConsecutiveFailures != 0 {
		t.Errorf("consecutive failures = %d, want 0 after success", rep.ConsecutiveFailures)
	}
	if rep.State != domain.RouteDegraded {
		t.Errorf("state = %s, a single success must not heal a degraded route", rep.State)
	}
	if !tr.IsUsable(testRoute) {
		t.Error("degraded route should still be usable")
	}
}

func TestBlacklistSurvivesSuccess(t *testing.T) {
	tr := newTestTracker()

	for i := 0; i < 5; i++ {
		tr.RecordFailure(testRoute)
	}
	tr.RecordSuccess(testRoute)

	if got := tr.State(testRoute); got != domain.RouteBlacklisted {
		t.Errorf("state = %s, blacklist must only clear via reset", got)
	}
}

func TestFailureCountRestartsAfterSuccess(t *testing.T) {
	tr := newTestTracker()

	// Alternate so the count never reaches the blacklist threshold.
	for i := 0; i < 20; i++ {
		tr.RecordFailure(testRoute)
		tr.RecordSuccess(testRoute)
	}
	if got := tr.State(testRoute); got != domain.RouteHealthy {
		t.Errorf("state = %s, want healthy while failures never run consecutively", got)
	}
}

func TestReset(t *testing.T) {
	tr := newTestTracker()

	for i := 0; i < 6; i++ {
		tr.RecordFailure(testRoute)
	}
	if err := tr.Reset(testRoute); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := tr.State(testRoute); got != domain.RouteHealthy {
		t.Errorf("state after reset = %s, want healthy", got)
	}
	rep := tr.Report()[0]
	if rep.ConsecutiveFailures != 0 {
		t.Errorf("consecutive failures after reset = %d, want 0", rep.ConsecutiveFailures)
	}
	// Totals survive the reset.
	if rep.TotalAttempts != 6 {
		t.Errorf("total attempts after reset = %d, want 6", rep.TotalAttempts)
	}
}

func TestResetUnknownRoute(t *testing.T) {
	tr := newTestTracker()

	err := tr.Reset(domain.RouteID{Chain: "ethereum", Venue: "nowhere", Pair: "X-Y"})
	if !errors.Is(err, domain.ErrRouteNotFound) {
		t.Errorf("Reset unknown = %v, want ErrRouteNotFound", err)
	}
}

func TestReportWinRateAndOrder(t *testing.T) {
	tr := newTestTracker()
	a := domain.RouteID{Chain: "ethereum", Venue: "uniswap", Pair: "WETH-USDC"}
	b := domain.RouteID{Chain: "arbitrum", Venue: "camelot", Pair: "ARB-USDC"}

	tr.RecordSuccess(a)
	tr.RecordSuccess(a)
	tr.RecordFailure(a)
	tr.RecordFailure(b)

	reps := tr.Report()
	if len(reps) != 2 {
		t.Fatalf("want 2 routes, got %d", len(reps))
	}
	// Sorted by route id string: arbitrum before ethereum.
	if reps[0].Route != b || reps[1].Route != a {
		t.Fatalf("unexpected order: %v, %v", reps[0].Route, reps[1].Route)
	}
	if got := reps[1].WinRate; got != 2.0/3.0 {
		t.Errorf("win rate = %v, want 2/3", got)
	}
	if got := reps[0].WinRate; got != 0 {
		t.Errorf("win rate = %v, want 0", got)
	}
}

func TestRestoreKeepsExistingRecords(t *testing.T) {
	tr := newTestTracker()
	tr.RecordFailure(testRoute)

	tr.Restore([]domain.RouteReport{
		{Route: testRoute, State: domain.RouteBlacklisted, ConsecutiveFailures: 9},
		{Route: domain.RouteID{Chain: "base", Venue: "aerodrome", Pair: "ETH-USDC"}, State: domain.RouteBlacklisted},
	})

	if got := tr.State(testRoute); got != domain.RouteHealthy {
		t.Errorf("live record overwritten by snapshot: %s", got)
	}
	restored := domain.RouteID{Chain: "base", Venue: "aerodrome", Pair: "ETH-USDC"}
	if tr.IsUsable(restored) {
		t.Error("restored blacklist must hold until reset")
	}
}

func TestCooldownSweep(t *testing.T) {
	tr := NewTracker(Config{DegradeAfter: 2, BlacklistAfter: 5, Cooldown: time.Hour}, nil)

	for i := 0; i < 5; i++ {
		tr.RecordFailure(testRoute)
	}

	// Too recent: nothing to reset.
	if got := tr.SweepCooldown(time.Now()); len(got) != 0 {
		t.Fatalf("sweep reset %v before cooldown elapsed", got)
	}

	reset := tr.SweepCooldown(time.Now().Add(2 * time.Hour))
	if len(reset) != 1 || reset[0] != testRoute {
		t.Fatalf("sweep = %v, want [%v]", reset, testRoute)
	}
	if got := tr.State(testRoute); got != domain.RouteHealthy {
		t.Errorf("state after cooldown = %s, want healthy", got)
	}
}

func TestCooldownDisabledByDefault(t *testing.T) {
	tr := newTestTracker()
	for i := 0; i < 5; i++ {
		tr.RecordFailure(testRoute)
	}
	if got := tr.SweepCooldown(time.Now().Add(1000 * time.Hour)); got != nil {
		t.Errorf("sweep with disabled cooldown = %v, want nil", got)
	}
}

func TestConcurrentRecording(t *testing.T) {
	tr := newTestTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.RecordSuccess(testRoute)
				tr.RecordFailure(testRoute)
			}
		}()
	}
	wg.Wait()

	rep := tr.Report()[0]
	if rep.TotalAttempts != 1600 {
		t.Errorf("total attempts = %d, want 1600", rep.TotalAttempts)
	}
	if rep.TotalSuccesses != 800 {
		t.Errorf("total successes = %d, want 800", rep.TotalSuccesses)
	}
}
