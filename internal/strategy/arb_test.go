package strategy

import (
	"testing"

	"github.com/nagavaishak/celsius-go/internal/cache"
)

func TestSumToOneArbEvaluatorBelowThreshold(t *testing.T) {
	eval := NewSumToOneArbEvaluator(SumToOneArbConfig{MinSpread: 0.05, MaxPositionPct: 0.10}, cache.New())

	sig := eval.Evaluate("m1", 0.51, 0.48, 2000)
	if sig != nil {
		t.Errorf("expected nil signal for spread below MinSpread, got %+v", sig)
	}
}

func TestSumToOneArbEvaluatorAboveThreshold(t *testing.T) {
	eval := NewSumToOneArbEvaluator(SumToOneArbConfig{MinSpread: 0.05, MaxPositionPct: 0.10}, cache.New())

	sig := eval.Evaluate("m1", 0.60, 0.48, 2000)
	if sig == nil {
		t.Fatal("expected non-nil signal for spread above MinSpread")
	}
	if sig.ID == "" {
		t.Error("expected signal to carry a generated ID")
	}
	if sig.MarketID != "m1" {
		t.Errorf("MarketID = %q, want m1", sig.MarketID)
	}
	if sig.Edge == nil || *sig.Edge <= 0 {
		t.Errorf("expected positive edge, got %+v", sig.Edge)
	}
}

func TestSumToOneArbEvaluatorCapsPositionSize(t *testing.T) {
	eval := NewSumToOneArbEvaluator(SumToOneArbConfig{MinSpread: 0.01, MaxPositionPct: 0.05}, cache.New())

	sig := eval.Evaluate("m1", 0.90, 0.90, 2000)
	if sig == nil {
		t.Fatal("expected non-nil signal")
	}
	if sig.Size > 2000*0.05 {
		t.Errorf("Size = %v, want capped at %v", sig.Size, 2000*0.05)
	}
}
