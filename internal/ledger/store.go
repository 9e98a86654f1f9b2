// Package ledger implements the position ledger: durable storage for
// positions, orders, circuit-breaker events, and emergency exits, plus
// the daily/peak-equity aggregate queries the risk gate reads.
package ledger

import (
	"context"
	"time"

	"github.com/nagavaishak/celsius-go/internal/market"
)

// PendingOrder is the (id, market_id) pair returned by GetPendingOrders.
type PendingOrder struct {
	ID       int64
	MarketID string
}

// Store is the full position-ledger capability. SQLiteStore is the
// primary implementation; PostgresStore is an alternate backend with the
// same contract.
type Store interface {
	InsertPosition(ctx context.Context, pos market.Position) (int64, error)
	GetOpenPositions(ctx context.Context) ([]market.Position, error)
	CountOpenPositions(ctx context.Context) (int, error)
	CountTradesToday(ctx context.Context) (int, error)
	CountPositionsForCityToday(ctx context.Context, city string) (int, error)
	GetDailyPnL(ctx context.Context) (float64, error)
	GetPeakEquity(ctx context.Context) (float64, error)
	UpdatePositionStatus(ctx context.Context, id int64, status market.PositionStatus, pnl *float64) error
	UpdatePositionShares(ctx context.Context, id int64, yesShares, noShares float64) error

	InsertOrder(ctx context.Context, marketID string) (int64, error)
	GetPendingOrders(ctx context.Context) ([]PendingOrder, error)
	MarkOrderFilled(ctx context.Context, id int64) error

	LogCircuitBreakerEvent(ctx context.Context, reason string, notes *string) error
	LogEmergencyExit(ctx context.Context, positionID *int64, reason string, realizedLoss float64) error

	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

func nowUTC() time.Time { return time.Now().UTC() }
