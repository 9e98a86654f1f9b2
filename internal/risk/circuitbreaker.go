package risk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BreakerReason is the latching trip reason. Each variant carries the
// measurement that caused the trip and has a human-readable Display form
// used as the ledger event's reason column.
type BreakerReason struct {
	kind string
	// at most one of these is populated, depending on kind
	usd      float64
	pct      float64
	duration time.Duration
	count    int
}

func DailyLoss(usd float64) BreakerReason         { return BreakerReason{kind: "DailyLoss", usd: usd} }
func Drawdown(pct float64) BreakerReason          { return BreakerReason{kind: "Drawdown", pct: pct} }
func FillRate(pct float64) BreakerReason          { return BreakerReason{kind: "FillRate", pct: pct} }
func Latency(d time.Duration) BreakerReason       { return BreakerReason{kind: "Latency", duration: d} }
func ApiErrors(count int) BreakerReason           { return BreakerReason{kind: "ApiErrors", count: count} }
func LeggedPositionStuck() BreakerReason          { return BreakerReason{kind: "LeggedPositionStuck"} }
func RpcFailure() BreakerReason                   { return BreakerReason{kind: "RpcFailure"} }

// String renders the reason the same way it is persisted to the ledger's
// reason column, e.g. "DailyLoss($123.45)", "Drawdown(12.3%)".
func (r BreakerReason) String() string {
	switch r.kind {
	case "DailyLoss":
		return fmt.Sprintf("DailyLoss($%.2f)", r.usd)
	case "Drawdown":
		return fmt.Sprintf("Drawdown(%.1f%%)", r.pct*100)
	case "FillRate":
		return fmt.Sprintf("FillRate(%.1f%%)", r.pct*100)
	case "Latency":
		return fmt.Sprintf("Latency(%s)", r.duration)
	case "ApiErrors":
		return fmt.Sprintf("ApiErrors(%d)", r.count)
	default:
		return r.kind
	}
}

// HealthChecker reports whether the two configured RPC endpoints are
// currently healthy. Supplied by the caller; the circuit breaker itself
// never dials out.
type HealthChecker func(ctx context.Context) (primaryOK, secondaryOK bool)

// EventLogger is the narrow ledger capability the breaker needs to
// append circuit-breaker events. Satisfied by the ledger's Store.
type EventLogger interface {
	LogCircuitBreakerEvent(ctx context.Context, reason string, notes *string) error
}

// CircuitBreaker is a latching state machine with states
// {Armed, Tripped(reason, triggerTime)}.
type CircuitBreaker struct {
	mu          sync.Mutex
	tripped     bool
	reason      BreakerReason
	triggeredAt time.Time

	Events      EventLogger
	HealthCheck HealthChecker
}

// NewCircuitBreaker creates an armed circuit breaker.
func NewCircuitBreaker(events EventLogger, healthCheck HealthChecker) *CircuitBreaker {
	return &CircuitBreaker{Events: events, HealthCheck: healthCheck}
}

// Trigger transitions Armed → Tripped and appends an event to the ledger.
// Idempotent while already Tripped.
func (cb *CircuitBreaker) Trigger(ctx context.Context, reason BreakerReason) {
	cb.mu.Lock()
	alreadyTripped := cb.tripped
	if !alreadyTripped {
		cb.tripped = true
		cb.reason = reason
		cb.triggeredAt = time.Now()
	}
	cb.mu.Unlock()

	if alreadyTripped {
		return
	}
	if cb.Events != nil {
		_ = cb.Events.LogCircuitBreakerEvent(ctx, reason.String(), nil)
	}
}

// IsTripped reports whether the breaker is currently latched.
func (cb *CircuitBreaker) IsTripped() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.tripped
}

// CanReset evaluates the reason-keyed reset policy and returns (ready,
// detail). Ready=false with a detail message describing what remains.
func (cb *CircuitBreaker) CanReset(ctx context.Context) (bool, string) {
	cb.mu.Lock()
	tripped := cb.tripped
	reason := cb.reason
	triggeredAt := cb.triggeredAt
	cb.mu.Unlock()

	if !tripped {
		return true, "not triggered"
	}

	switch reason.kind {
	case "DailyLoss":
		if time.Since(triggeredAt) < 24*time.Hour {
			return false, "must wait 24h before reset"
		}
		return true, "manual review required"

	case "LeggedPositionStuck":
		return false, "manual confirmation required: position closed via UI?"

	case "RpcFailure":
		if cb.HealthCheck == nil {
			return false, "no health checker configured"
		}
		primaryOK, secondaryOK := cb.HealthCheck(ctx)
		if primaryOK && secondaryOK {
			return true, "both RPC endpoints healthy"
		}
		return false, "waiting for both RPC endpoints to pass health check"

	default:
		cooldown := time.Hour
		elapsed := time.Since(triggeredAt)
		if elapsed >= cooldown {
			return true, "can reset"
		}
		remaining := cooldown - elapsed
		return false, fmt.Sprintf("cooldown: %.0f minutes remaining", remaining.Minutes())
	}
}

// Reset clears the latch back to Armed, regardless of CanReset — callers
// are expected to gate calls to Reset on CanReset themselves.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.tripped = false
	cb.reason = BreakerReason{}
	cb.triggeredAt = time.Time{}
}

// Reason returns the current trip reason's display string, or "" if Armed.
func (cb *CircuitBreaker) Reason() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.tripped {
		return ""
	}
	return cb.reason.String()
}
