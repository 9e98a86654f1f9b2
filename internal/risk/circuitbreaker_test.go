package risk

import (
	"context"
	"strings"
	"testing"
	"time"
)

type recordingEventLogger struct {
	calls []string
}

func (r *recordingEventLogger) LogCircuitBreakerEvent(ctx context.Context, reason string, notes *string) error {
	r.calls = append(r.calls, reason)
	return nil
}

func TestCircuitBreakerTriggerIsIdempotent(t *testing.T) {
	events := &recordingEventLogger{}
	cb := NewCircuitBreaker(events, nil)

	cb.Trigger(context.Background(), DailyLoss(123.45))
	cb.Trigger(context.Background(), Drawdown(0.5))

	if !cb.IsTripped() {
		t.Fatal("expected tripped after first trigger")
	}
	if len(events.calls) != 1 {
		t.Fatalf("expected exactly one logged event, got %d: %v", len(events.calls), events.calls)
	}
	if events.calls[0] != "DailyLoss($123.45)" {
		t.Errorf("logged reason = %q, want DailyLoss($123.45)", events.calls[0])
	}
}

func TestCircuitBreakerResetClearsState(t *testing.T) {
	cb := NewCircuitBreaker(nil, nil)
	cb.Trigger(context.Background(), RpcFailure())
	cb.Reset()
	if cb.IsTripped() {
		t.Fatal("expected Armed after Reset")
	}
}

func TestCanResetDailyLossRequires24h(t *testing.T) {
	cb := NewCircuitBreaker(nil, nil)
	cb.Trigger(context.Background(), DailyLoss(10))
	ready, _ := cb.CanReset(context.Background())
	if ready {
		t.Fatal("expected not-ready immediately after DailyLoss trip")
	}
}

func TestCanResetLeggedPositionAlwaysManual(t *testing.T) {
	cb := NewCircuitBreaker(nil, nil)
	cb.Trigger(context.Background(), LeggedPositionStuck())
	ready, detail := cb.CanReset(context.Background())
	if ready {
		t.Fatalf("expected LeggedPositionStuck to never auto-reset, detail=%q", detail)
	}
}

func TestCanResetRpcFailureUsesHealthCheck(t *testing.T) {
	healthy := false
	checker := func(ctx context.Context) (bool, bool) { return healthy, healthy }
	cb := NewCircuitBreaker(nil, checker)
	cb.Trigger(context.Background(), RpcFailure())

	if ready, _ := cb.CanReset(context.Background()); ready {
		t.Fatal("expected not-ready while RPCs unhealthy")
	}
	healthy = true
	if ready, _ := cb.CanReset(context.Background()); !ready {
		t.Fatal("expected ready once both RPCs healthy")
	}
}

func TestCanResetDefaultCooldown(t *testing.T) {
	cb := NewCircuitBreaker(nil, nil)
	cb.Trigger(context.Background(), ApiErrors(5))
	ready, detail := cb.CanReset(context.Background())
	if ready {
		t.Fatalf("expected cooldown not yet elapsed, detail=%q", detail)
	}

	// The elapsed-cooldown branch is not exercised here; instead assert
	// the not-ready detail mentions the remaining minutes.
	if !strings.Contains(detail, "minutes remaining") {
		t.Fatalf("expected cooldown detail to mention remaining minutes, got %q", detail)
	}
	_ = time.Hour
}
