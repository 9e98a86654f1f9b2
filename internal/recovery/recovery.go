// Package recovery implements the crash-recovery routine: on startup,
// enumerate open positions and pending orders, log them, and reconcile
// any share-count discrepancies against external state.
package recovery

import (
	"context"
	"log"
	"time"

	"github.com/nagavaishak/celsius-go/internal/ledger"
)

// ChainState is the caller-provided hook for querying on-chain share
// balances. A nil ChainState skips reconciliation and only logs.
type ChainState interface {
	SharesFor(ctx context.Context, marketID string) (yesShares, noShares float64, err error)
}

// OrderState is the caller-provided hook for querying live order status
// on the venue's CLOB. A nil OrderState skips order reconciliation.
type OrderState interface {
	IsFilled(ctx context.Context, marketID string) (bool, error)
}

// Runner executes the recovery routine against a ledger.
type Runner struct {
	Ledger ledger.Store
	Chain  ChainState
	Orders OrderState
	Logger *log.Logger
}

// New creates a recovery Runner. A nil logger falls back to the standard
// logger.
func New(store ledger.Store, chain ChainState, orders OrderState, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Ledger: store, Chain: chain, Orders: orders, Logger: logger}
}

// Run enumerates open positions and pending orders, logs them, and
// reconciles discrepancies via UpdatePositionShares. Idempotent: safe to
// run repeatedly, including with nil Chain/Orders hooks.
func (r *Runner) Run(ctx context.Context) error {
	positions, err := r.Ledger.GetOpenPositions(ctx)
	if err != nil {
		return err
	}
	r.Logger.Printf("recovery: %d open position(s)", len(positions))
	for _, pos := range positions {
		r.Logger.Printf("recovery: open position id=%d market=%s strategy=%s yes=%.4f no=%.4f cost=%.2f",
			pos.ID, pos.MarketID, pos.Strategy, pos.YesShares, pos.NoShares, pos.Cost)

		if r.Chain == nil {
			continue
		}
		yes, no, err := r.Chain.SharesFor(ctx, pos.MarketID)
		if err != nil {
			r.Logger.Printf("recovery: chain query failed for %s: %v", pos.MarketID, err)
			continue
		}
		if yes != pos.YesShares || no != pos.NoShares {
			r.Logger.Printf("recovery: reconciling %s shares ledger(%.4f/%.4f) -> chain(%.4f/%.4f)",
				pos.MarketID, pos.YesShares, pos.NoShares, yes, no)
			if err := r.Ledger.UpdatePositionShares(ctx, pos.ID, yes, no); err != nil {
				return err
			}
		}
	}

	pending, err := r.Ledger.GetPendingOrders(ctx)
	if err != nil {
		return err
	}
	r.Logger.Printf("recovery: %d pending order(s)", len(pending))
	for _, o := range pending {
		r.Logger.Printf("recovery: pending order id=%d market=%s", o.ID, o.MarketID)

		if r.Orders == nil {
			continue
		}
		filled, err := r.Orders.IsFilled(ctx, o.MarketID)
		if err != nil {
			r.Logger.Printf("recovery: order status query failed for %s: %v", o.MarketID, err)
			continue
		}
		if filled {
			if err := r.Ledger.MarkOrderFilled(ctx, o.ID); err != nil {
				return err
			}
		}
	}

	return r.Ledger.SetState(ctx, "last_recovery_at", time.Now().UTC().Format(time.RFC3339))
}
