package strategy

import (
	"github.com/nagavaishak/celsius-go/internal/cache"
	"github.com/nagavaishak/celsius-go/internal/market"
)

// SumToOneArbConfig parameterizes the arbitrage evaluator per
// [strategies.arbitrage].
type SumToOneArbConfig struct {
	MinSpread      float64
	MaxPositionPct float64
}

// SumToOneArbEvaluator compares yes-ask + no-ask against 1.0 and sizes a
// hedged (both-leg) signal on the spread. The yes-ask is taken from the
// price cache when the market has a cached price there.
type SumToOneArbEvaluator struct {
	Config SumToOneArbConfig
	Prices cache.Store
}

// NewSumToOneArbEvaluator wires a price store into the evaluator.
func NewSumToOneArbEvaluator(cfg SumToOneArbConfig, prices cache.Store) *SumToOneArbEvaluator {
	return &SumToOneArbEvaluator{Config: cfg, Prices: prices}
}

// Evaluate checks whether yesAsk+noAsk deviates from 1.0 by at least
// MinSpread, sizing a hedged signal (Side=None) proportional to the
// spread, capped at capital*MaxPositionPct.
func (e *SumToOneArbEvaluator) Evaluate(marketID string, yesAsk, noAsk, capital float64) *market.Signal {
	// Prefer a CLOB order-book price freshly warmed into the cache over the
	// caller's snapshot, which may be a stale Gamma last-trade price.
	if e.Prices != nil {
		if cached, ok := e.Prices.Get(marketID); ok {
			yesAsk = cached
		}
	}

	sum := yesAsk + noAsk
	spread := absFloat(1.0 - sum)
	if spread < e.Config.MinSpread {
		return nil
	}

	maxPosition := capital * e.Config.MaxPositionPct
	size := capital * spread
	if size > maxPosition {
		size = maxPosition
	}

	edge := spread
	return &market.Signal{
		ID:         market.NewSignalID(),
		MarketID:   marketID,
		Strategy:   market.SumToOneArb,
		Side:       market.None,
		EntryPrice: sum,
		Size:       size,
		Edge:       &edge,
		Confidence: 1.0,
	}
}
