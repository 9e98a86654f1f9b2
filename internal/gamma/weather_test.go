package gamma

import (
	"testing"
	"time"
)

func TestToDomainMarketMapsTokenPrices(t *testing.T) {
	gm := Market{
		ConditionID: "0xabc",
		Question:    "Will the high temperature in NYC exceed 60°F?",
		Volume24hr:  12000,
		Liquidity:   5000,
		Tokens: []Token{
			{TokenID: "1", Outcome: "Yes", Price: 0.62},
			{TokenID: "2", Outcome: "No", Price: 0.38},
		},
	}
	end := time.Now().Add(48 * time.Hour)

	dm := ToDomainMarket(gm, end)

	if dm.ID != "0xabc" {
		t.Errorf("ID = %q, want 0xabc", dm.ID)
	}
	if dm.YesPrice != 0.62 || dm.YesAsk != 0.62 {
		t.Errorf("YesPrice/YesAsk = %v/%v, want 0.62", dm.YesPrice, dm.YesAsk)
	}
	if dm.NoAsk != 0.38 {
		t.Errorf("NoAsk = %v, want 0.38", dm.NoAsk)
	}
	if dm.Volume24h != 12000 {
		t.Errorf("Volume24h = %v, want 12000", dm.Volume24h)
	}
	if dm.YesTokenID != "1" || dm.NoTokenID != "2" {
		t.Errorf("YesTokenID/NoTokenID = %q/%q, want 1/2", dm.YesTokenID, dm.NoTokenID)
	}
}

func TestToDomainMarketHandlesMissingTokens(t *testing.T) {
	gm := Market{ConditionID: "0xdef", Question: "no tokens yet"}
	dm := ToDomainMarket(gm, time.Now())

	if dm.YesPrice != 0 || dm.NoAsk != 0 {
		t.Errorf("expected zero prices when tokens are absent, got %+v", dm)
	}
}
