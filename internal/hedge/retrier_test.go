package hedge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/retry"
)

var testPosition = domain.Position{
	Route:    domain.RouteID{Chain: "ethereum", Venue: "uniswap", Pair: "WETH-USDC"},
	Quantity: 1.5,
	OriginTx: "0xabc123",
}

// captureEscalator records every escalation it receives.
type captureEscalator struct {
	mu   sync.Mutex
	seen []domain.Escalation
}

func (c *captureEscalator) Escalate(ctx context.Context, e domain.Escalation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, e)
}

func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts: maxAttempts,
		Backoff: retry.Config{
			InitialDelay: time.Millisecond,
			MaxDelay:     10 * time.Millisecond,
			Multiplier:   2.0,
		},
	}
}

func TestSucceedsAfterRetries(t *testing.T) {
	sink := &captureEscalator{}
	r := NewRetrier(fastConfig(3), nil, sink)

	calls := 0
	fill, err := r.Execute(context.Background(), Action{
		Name:     "close-hedge",
		Position: testPosition,
		Submit: func(ctx context.Context) (domain.Fill, error) {
			calls++
			if calls < 3 {
				return domain.Fill{}, errors.New("venue unavailable")
			}
			return domain.Fill{OrderID: "ord-1", Quantity: 1.5}, nil
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 3 {
		t.Errorf("submit called %d times, want 3", calls)
	}
	if fill.OrderID != "ord-1" {
		t.Errorf("unexpected fill %+v", fill)
	}
	if len(sink.seen) != 0 {
		t.Errorf("no escalation expected on eventual success, got %d", len(sink.seen))
	}
}

func TestExhaustionEscalatesOnce(t *testing.T) {
	sink := &captureEscalator{}
	r := NewRetrier(fastConfig(3), nil, sink)

	finalErr := errors.New("execution engine down")
	calls := 0
	_, err := r.Execute(context.Background(), Action{
		Name:     "close-hedge",
		Position: testPosition,
		Submit: func(ctx context.Context) (domain.Fill, error) {
			calls++
			return domain.Fill{}, finalErr
		},
	})

	if !errors.Is(err, domain.ErrEscalated) {
		t.Fatalf("err = %v, want ErrEscalated", err)
	}
	if !errors.Is(err, finalErr) {
		t.Fatalf("err = %v, must wrap the final submit error", err)
	}
	if calls != 3 {
		t.Errorf("submit called %d times, want exactly 3", calls)
	}

	if len(sink.seen) != 1 {
		t.Fatalf("want exactly one escalation, got %d", len(sink.seen))
	}
	esc := sink.seen[0]
	if esc.Action != "close-hedge" || esc.Attempts != 3 {
		t.Errorf("unexpected escalation %+v", esc)
	}
	if esc.LastError != finalErr.Error() {
		t.Errorf("escalation error = %q, want %q", esc.LastError, finalErr)
	}
	if esc.Position.OriginTx != "0xabc123" {
		t.Errorf("escalation must carry the origin tx, got %+v", esc.Position)
	}
	if esc.ID == "" {
		t.Error("escalation must carry an id")
	}
}

func TestBackoffWaitsBetweenAttempts(t *testing.T) {
	cfg := Config{
		MaxAttempts: 3,
		Backoff: retry.Config{
			InitialDelay: 30 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
	}
	r := NewRetrier(cfg, nil)

	start := time.Now()
	_, _ = r.Execute(context.Background(), Action{
		Name:     "close-hedge",
		Position: testPosition,
		Submit: func(ctx context.Context) (domain.Fill, error) {
			return domain.Fill{}, errors.New("nope")
		},
	})
	elapsed := time.Since(start)

	// Two waits between three attempts: 30ms + 60ms.
	if elapsed < 90*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 90ms of backoff", elapsed)
	}
}

func TestContextCancelStopsRetry(t *testing.T) {
	sink := &captureEscalator{}
	cfg := Config{
		MaxAttempts: 3,
		Backoff: retry.Config{
			InitialDelay: time.Hour,
			MaxDelay:     time.Hour,
			Multiplier:   2.0,
		},
	}
	r := NewRetrier(cfg, nil, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Execute(ctx, Action{
		Name:     "close-hedge",
		Position: testPosition,
		Submit: func(ctx context.Context) (domain.Fill, error) {
			return domain.Fill{}, errors.New("nope")
		},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded from interruptible sleep", err)
	}
	if len(sink.seen) != 0 {
		t.Errorf("cancellation must not escalate, got %d", len(sink.seen))
	}
}

func TestZeroConfigDefaults(t *testing.T) {
	r := NewRetrier(Config{MaxAttempts: 0, Backoff: retry.Config{InitialDelay: time.Millisecond}}, nil)
	calls := 0
	_, err := r.Execute(context.Background(), Action{
		Name:     "close-hedge",
		Position: testPosition,
		Submit: func(ctx context.Context) (domain.Fill, error) {
			calls++
			return domain.Fill{}, errors.New("nope")
		},
	})
	if calls != DefaultConfig.MaxAttempts {
		t.Errorf("submit called %d times, want default %d", calls, DefaultConfig.MaxAttempts)
	}
	if !errors.Is(err, domain.ErrEscalated) {
		t.Errorf("err = %v, want ErrEscalated", err)
	}
}
