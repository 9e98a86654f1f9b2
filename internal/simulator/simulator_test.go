package simulator

import (
	"math/rand"
	"testing"

	"github.com/nagavaishak/celsius-go/internal/market"
)

func TestExecuteOrderFillsWithinBalance(t *testing.T) {
	sim := New(Config{FillRate: 1.0, SlippagePct: 0.0, InitialBalanceUSD: 2000}, rand.New(rand.NewSource(1)))
	fill, ok := sim.ExecuteOrder(market.Order{MarketID: "m1", Price: 0.5, Size: 100})
	if !ok {
		t.Fatal("expected fill with FillRate=1.0")
	}
	if fill.Cost != 50 {
		t.Errorf("Cost = %v, want 50", fill.Cost)
	}
	if sim.Balance() != 1950 {
		t.Errorf("Balance = %v, want 1950", sim.Balance())
	}
}

func TestExecuteOrderMissesFill(t *testing.T) {
	sim := New(Config{FillRate: 0.0, InitialBalanceUSD: 2000}, rand.New(rand.NewSource(1)))
	_, ok := sim.ExecuteOrder(market.Order{MarketID: "m1", Price: 0.5, Size: 100})
	if ok {
		t.Fatal("expected no fill with FillRate=0.0")
	}
}

func TestExecuteOrderRejectsWhenCostExceedsBalance(t *testing.T) {
	sim := New(Config{FillRate: 1.0, InitialBalanceUSD: 10}, rand.New(rand.NewSource(1)))
	_, ok := sim.ExecuteOrder(market.Order{MarketID: "m1", Price: 0.5, Size: 100})
	if ok {
		t.Fatal("expected no fill when cost exceeds balance")
	}
	if sim.Balance() != 10 {
		t.Errorf("Balance changed on rejected fill: %v", sim.Balance())
	}
}

func TestCreatePositionFromFill(t *testing.T) {
	fill := market.Fill{MarketID: "m1", Size: 100, Price: 0.6, Cost: 60}
	pos := CreatePositionFromFill(fill, market.Yes, market.WeatherEdge, "London")
	if pos.YesShares != 100 || pos.NoShares != 0 {
		t.Errorf("shares = yes:%v no:%v, want yes:100 no:0", pos.YesShares, pos.NoShares)
	}
	if pos.Status != market.StatusOpen {
		t.Errorf("Status = %v, want open", pos.Status)
	}
	if pos.City != "London" {
		t.Errorf("City = %q, want London", pos.City)
	}
}
