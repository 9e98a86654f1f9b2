package gamma

import (
	"time"

	"github.com/nagavaishak/celsius-go/internal/market"
)

// GetWeatherMarkets retrieves active, non-expired weather markets from the
// Gamma API and converts each to the engine's domain Market type.
func (c *Client) GetWeatherMarkets() ([]market.Market, error) {
	events, err := c.GetWeatherEvents()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	seen := make(map[string]market.Market)

	for _, event := range events {
		for _, gm := range event.Markets {
			if !gm.Active || gm.Closed {
				continue
			}
			endTime, err := gm.EndTime()
			if err != nil || !endTime.After(now) {
				continue
			}
			dm := ToDomainMarket(gm, endTime)
			seen[dm.ID] = dm
		}
	}

	result := make([]market.Market, 0, len(seen))
	for _, m := range seen {
		result = append(result, m)
	}
	return result, nil
}

// ToDomainMarket converts a Gamma API market into the engine's Market type.
// yesPrice/yesAsk/noAsk are derived from the Yes/No token prices; the Gamma
// API exposes a single last-trade price per token rather than a full book,
// so ask and mid price are treated as equal here (the arbitrage evaluator
// replaces the Yes ask with a cached CLOB order-book price when it has one).
func ToDomainMarket(gm Market, endTime time.Time) market.Market {
	var yesPrice, yesAsk, noAsk float64
	var yesTokenID, noTokenID string

	if yes := gm.GetYesToken(); yes != nil {
		yesPrice = yes.Price
		yesAsk = yes.Price
		yesTokenID = yes.TokenID
	}
	if no := gm.GetNoToken(); no != nil {
		noAsk = no.Price
		noTokenID = no.TokenID
	}

	return market.Market{
		ID:           gm.ConditionID,
		Question:     gm.Question,
		EndDate:      endTime,
		YesPrice:     yesPrice,
		YesAsk:       yesAsk,
		NoAsk:        noAsk,
		Volume24h:    gm.GetVolume24hr(),
		YesLiquidity: gm.Liquidity,
		NoLiquidity:  gm.Liquidity,
		YesTokenID:   yesTokenID,
		NoTokenID:    noTokenID,
	}
}
