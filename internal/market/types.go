// Package market holds the shared data model plus the question parser
// and market tradability filter.
package market

import (
	"time"

	"github.com/google/uuid"
)

// Market is an immutable snapshot of a binary prediction market.
type Market struct {
	ID            string
	Question      string
	EndDate       time.Time
	YesPrice      float64
	YesAsk        float64
	NoAsk         float64
	Volume24h     float64
	YesLiquidity  float64
	NoLiquidity   float64
	YesTokenID    string // CLOB token id for the Yes outcome, used to pull a live order book
	NoTokenID     string // CLOB token id for the No outcome
}

// Comparison is the direction a weather question compares a temperature
// threshold against.
type Comparison int

const (
	// Above means the question asks whether the temperature will exceed
	// the threshold.
	Above Comparison = iota
	// Below means the question asks whether the temperature will stay
	// under the threshold.
	Below
)

func (c Comparison) String() string {
	if c == Above {
		return "Above"
	}
	return "Below"
}

// WeatherMarketInfo is the structured trading target extracted from a
// market's free-text question.
type WeatherMarketInfo struct {
	City       string
	Threshold  float64 // Celsius
	Comparison Comparison
}

// Side is the outcome token side of a signal or position.
type Side int

const (
	// None indicates a hedged or both-leg position with no single side.
	None Side = iota
	Yes
	No
)

func (s Side) String() string {
	switch s {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "None"
	}
}

// Strategy tags which evaluator produced a Signal.
type Strategy int

const (
	WeatherEdge Strategy = iota
	SumToOneArb
)

func (s Strategy) String() string {
	if s == SumToOneArb {
		return "SumToOneArb"
	}
	return "WeatherEdge"
}

// Signal is a candidate trade produced by a strategy evaluator.
type Signal struct {
	// ID identifies this signal for correlation tracking and idempotent
	// downstream processing (a given signal must never be acted on twice).
	ID         string
	MarketID   string
	Strategy   Strategy
	Side       Side
	EntryPrice float64
	Size       float64
	Edge       *float64
	Confidence float64
}

// NewSignalID generates a fresh random identifier for a Signal.
func NewSignalID() string {
	return uuid.NewString()
}

// OrderType is order lifetime semantics.
type OrderType int

const (
	FOK OrderType = iota
	GTC
)

// Order is a request to trade a quantity of one outcome token.
type Order struct {
	MarketID  string
	Side      Side
	Token     Side // Yes or No
	Price     float64
	Size      float64
	OrderType OrderType
}

// Fill is the execution result of an Order.
type Fill struct {
	MarketID  string
	Size      float64
	Price     float64
	Cost      float64
	Timestamp time.Time
}

// PositionStatus is the lifecycle state of a Position.
type PositionStatus string

const (
	StatusOpen             PositionStatus = "open"
	StatusClosed           PositionStatus = "closed"
	StatusEmergencyExited  PositionStatus = "emergency_exited"
)

// Position is a durable record of an opened (and possibly closed) trade.
type Position struct {
	ID         int64
	MarketID   string
	City       string // parsed from the market question at open time, used for correlation limits
	Strategy   Strategy
	Side       *Side // nil for hedged/both-leg positions
	YesShares  float64
	NoShares   float64
	EntryPrice float64
	Cost       float64
	OpenedAt   time.Time
	ClosedAt   *time.Time
	PnL        *float64
	Status     PositionStatus
}

// CircuitBreakerEvent is an append-only record of a circuit-breaker
// trip or reset.
type CircuitBreakerEvent struct {
	ID         int64
	Reason     string
	TriggeredAt time.Time
	ResetAt    *time.Time
	Notes      *string
}

// EmergencyExit is an append-only record of a forced position close.
type EmergencyExit struct {
	ID           int64
	PositionID   *int64
	Reason       string
	RealizedLoss float64
	ExitedAt     time.Time
}
