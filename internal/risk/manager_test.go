package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/nagavaishak/celsius-go/internal/market"
)

type fakeLedger struct {
	openPositions    int
	tradesToday      int
	dailyPnL         float64
	peakEquity       float64
	cityPositions    map[string]int
	err              error
}

func (f *fakeLedger) CountOpenPositions(ctx context.Context) (int, error) { return f.openPositions, f.err }
func (f *fakeLedger) CountTradesToday(ctx context.Context) (int, error)   { return f.tradesToday, f.err }
func (f *fakeLedger) GetDailyPnL(ctx context.Context) (float64, error)    { return f.dailyPnL, f.err }
func (f *fakeLedger) GetPeakEquity(ctx context.Context) (float64, error)  { return f.peakEquity, f.err }
func (f *fakeLedger) CountPositionsForCityToday(ctx context.Context, city string) (int, error) {
	return f.cityPositions[city], f.err
}

func baseConfig() Config {
	return Config{
		MaxPositionSizeUSD:        1000,
		MaxPositionPct:            0.10,
		MaxOpenPositions:          5,
		MaxDailyTrades:            20,
		MaxDailyLossUSD:           500,
		MaxDrawdownPct:            0.20,
		MaxPositionsPerCityPerDay: 2,
	}
}

func TestValidateMaxPositionsReached(t *testing.T) {
	ledger := &fakeLedger{openPositions: 5}
	m := New(baseConfig(), ledger, nil)
	edge := 0.10
	sig := market.Signal{MarketID: "m1", Size: 50, Edge: &edge}

	err := m.Validate(context.Background(), sig, "", 2000)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != MaxPositionsReached {
		t.Fatalf("expected MaxPositionsReached, got %v", err)
	}
}

func TestValidatePassesAllChecks(t *testing.T) {
	ledger := &fakeLedger{cityPositions: map[string]int{}}
	m := New(baseConfig(), ledger, nil)
	edge := 0.10
	sig := market.Signal{MarketID: "m1", Size: 50, Edge: &edge}

	if err := m.Validate(context.Background(), sig, "London", 2000); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateCorrelationLimit(t *testing.T) {
	ledger := &fakeLedger{cityPositions: map[string]int{"London": 2}}
	m := New(baseConfig(), ledger, nil)
	edge := 0.10
	sig := market.Signal{MarketID: "m1", Size: 50, Edge: &edge}

	err := m.Validate(context.Background(), sig, "London", 2000)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != CorrelationLimitExceeded {
		t.Fatalf("expected CorrelationLimitExceeded, got %v", err)
	}
}

func TestValidateEdgeTooGood(t *testing.T) {
	ledger := &fakeLedger{}
	m := New(baseConfig(), ledger, nil)
	edge := 0.35
	sig := market.Signal{MarketID: "m1", Size: 50, Edge: &edge}

	err := m.Validate(context.Background(), sig, "", 2000)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != EdgeTooGoodToBeTrue {
		t.Fatalf("expected EdgeTooGoodToBeTrue, got %v", err)
	}
}

func TestValidateShortCircuitsOnFirstFailure(t *testing.T) {
	// Insufficient balance (check 1) should fire before max-positions
	// (check 2) even though both would fail.
	ledger := &fakeLedger{openPositions: 999}
	m := New(baseConfig(), ledger, nil)
	edge := 0.10
	sig := market.Signal{MarketID: "m1", Size: 5000, Edge: &edge}

	err := m.Validate(context.Background(), sig, "", 2000)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != InsufficientBalance {
		t.Fatalf("expected InsufficientBalance short-circuit, got %v", err)
	}
}
