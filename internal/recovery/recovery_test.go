package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/nagavaishak/celsius-go/internal/ledger"
	"github.com/nagavaishak/celsius-go/internal/market"
)

type fakeChain struct {
	yes, no float64
}

func (f fakeChain) SharesFor(ctx context.Context, marketID string) (float64, float64, error) {
	return f.yes, f.no, nil
}

func newStore(t *testing.T) *ledger.SQLiteStore {
	t.Helper()
	s, err := ledger.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecoveryReconcilesShareMismatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.InsertPosition(ctx, market.Position{
		MarketID:   "weather-london-1",
		Strategy:   market.WeatherEdge,
		YesShares:  10,
		EntryPrice: 0.5,
		Cost:       5,
		OpenedAt:   time.Now().UTC(),
		Status:     market.StatusOpen,
	})
	if err != nil {
		t.Fatalf("InsertPosition: %v", err)
	}

	runner := New(store, fakeChain{yes: 12, no: 0}, nil, nil)
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	open, err := store.GetOpenPositions(ctx)
	if err != nil {
		t.Fatalf("GetOpenPositions: %v", err)
	}
	var found bool
	for _, p := range open {
		if p.ID == id {
			found = true
			if p.YesShares != 12 {
				t.Errorf("YesShares = %v, want 12 after reconciliation", p.YesShares)
			}
		}
	}
	if !found {
		t.Fatal("expected reconciled position still present")
	}
}

func TestRecoveryIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	runner := New(store, nil, nil, nil)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}
