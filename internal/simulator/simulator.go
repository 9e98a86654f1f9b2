// Package simulator implements the paper-trading simulator: a stochastic
// fill-rate and slippage model over a mutable balance, used for offline
// strategy evaluation without touching a real exchange.
package simulator

import (
	"math/rand"
	"time"

	"github.com/nagavaishak/celsius-go/internal/market"
)

// Config holds the [paper_trading] settings.
type Config struct {
	FillRate          float64 // default 0.70
	SlippagePct       float64 // default 0.005
	InitialBalanceUSD float64 // default 2000
}

// Simulator holds the single-owner mutable balance for paper trading.
// Callers must not share a Simulator across goroutines without external
// coordination.
type Simulator struct {
	config  Config
	balance float64
	rng     *rand.Rand
}

// New creates a simulator with balance initialized from config. Pass a
// seeded rand.Rand for deterministic tests; nil uses a time-seeded source.
func New(cfg Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{config: cfg, balance: cfg.InitialBalanceUSD, rng: rng}
}

// Balance returns the current simulated balance.
func (s *Simulator) Balance() float64 { return s.balance }

// AddToBalance adjusts the balance directly, e.g. to realize pnl on close.
func (s *Simulator) AddToBalance(amount float64) { s.balance += amount }

// ExecuteOrder draws a fill-rate roll and, on fill, a slippage roll,
// applying the order against the simulated balance. Returns a zero Fill and
// false when the order does not fill (missed the roll, or insufficient
// balance).
func (s *Simulator) ExecuteOrder(order market.Order) (market.Fill, bool) {
	if s.rng.Float64() >= s.config.FillRate {
		return market.Fill{}, false
	}

	slippage := s.rng.Float64() * s.config.SlippagePct
	executedPrice := order.Price * (1 + slippage)
	cost := order.Size * executedPrice

	if cost > s.balance {
		return market.Fill{}, false
	}

	s.balance -= cost
	return market.Fill{
		MarketID:  order.MarketID,
		Size:      order.Size,
		Price:     executedPrice,
		Cost:      cost,
		Timestamp: time.Now().UTC(),
	}, true
}

// CreatePositionFromFill maps a Fill into an open Position for the given
// side, strategy, and city (used downstream by the per-city correlation
// check; city is the question-parsed city name, not part of the opaque
// on-chain market ID).
func CreatePositionFromFill(fill market.Fill, side market.Side, strategy market.Strategy, city string) market.Position {
	pos := market.Position{
		MarketID:   fill.MarketID,
		City:       city,
		Strategy:   strategy,
		EntryPrice: fill.Price,
		Cost:       fill.Cost,
		OpenedAt:   fill.Timestamp,
		Status:     market.StatusOpen,
	}
	sideCopy := side
	pos.Side = &sideCopy

	switch side {
	case market.Yes:
		pos.YesShares = fill.Size
	case market.No:
		pos.NoShares = fill.Size
	}
	return pos
}
