// Package strategy implements the strategy evaluators: the WeatherEdge
// evaluator combining two independent forecasts into an edge and a
// fractional-Kelly sized Signal, and the SumToOneArb evaluator as a
// second tagged variant.
package strategy

import (
	"context"
	"log"

	"github.com/nagavaishak/celsius-go/internal/market"
	"github.com/nagavaishak/celsius-go/internal/weather"
)

// ForecastSource is the narrow capability the evaluator needs from the
// forecast client; satisfied by *weather.Client.
type ForecastSource interface {
	FetchProbabilisticForecast(ctx context.Context, city string, thresholdC float64) (weather.ProbabilisticForecast, error)
	FetchOpenMeteo(ctx context.Context, city string, thresholdC float64) (weather.ProbabilisticForecast, error)
}

// WeatherEdgeConfig parameterizes the evaluator per [strategies.weather].
type WeatherEdgeConfig struct {
	MinEdge        float64
	MaxPositionPct float64
}

// WeatherEdgeEvaluator implements the WeatherEdge strategy variant:
// parse → fetch two forecasts → agreement check → edge → Kelly size.
type WeatherEdgeEvaluator struct {
	Config  WeatherEdgeConfig
	Weather ForecastSource
	Logger  *log.Logger
}

// NewWeatherEdgeEvaluator wires a forecast source and config into an
// evaluator. A nil logger falls back to the standard logger.
func NewWeatherEdgeEvaluator(cfg WeatherEdgeConfig, src ForecastSource, logger *log.Logger) *WeatherEdgeEvaluator {
	if logger == nil {
		logger = log.Default()
	}
	return &WeatherEdgeEvaluator{Config: cfg, Weather: src, Logger: logger}
}

// AnalyzeWeatherMarket runs the full §4.F pipeline for a single market,
// given available capital and the configured max position percentage.
// Returns (nil, nil) whenever the pipeline vetoes the candidate (unparseable
// question, forecast disagreement, edge below minimum); returns a non-nil
// error only for forecast-fetch failures, which the caller should treat as
// "skip this iteration".
func (e *WeatherEdgeEvaluator) AnalyzeWeatherMarket(ctx context.Context, m market.Market, capital float64) (*market.Signal, error) {
	info, err := market.ParseWeatherQuestion(m.Question)
	if err != nil {
		e.Logger.Printf("weather: skip %s: %v", m.ID, err)
		return nil, nil
	}

	noaa, err := e.Weather.FetchProbabilisticForecast(ctx, info.City, info.Threshold)
	if err != nil {
		return nil, err
	}
	om, err := e.Weather.FetchOpenMeteo(ctx, info.City, info.Threshold)
	if err != nil {
		return nil, err
	}

	diff := absFloat(noaa.Probability - om.Probability)
	if diff > 0.10 {
		e.Logger.Printf("weather: skip %s: forecast disagreement %.1f%%", m.ID, diff*100)
		return nil, nil
	}

	pRaw := (noaa.Probability + om.Probability) / 2
	p := pRaw
	if info.Comparison == market.Below {
		p = 1 - pRaw
	}

	edge := absFloat(p - m.YesPrice)
	if edge < e.Config.MinEdge {
		return nil, nil
	}

	side := market.No
	entryPrice := m.NoAsk
	if p > m.YesPrice {
		side = market.Yes
		entryPrice = m.YesAsk
	}

	size := CalculateKellyPosition(capital, p, m.YesPrice, e.Config.MaxPositionPct)

	confidence := (noaa.Confidence + om.Confidence) / 2
	edgeCopy := edge

	e.Logger.Printf("weather: signal %s side=%s price=%.2f size=%.2f edge=%.1f%%", m.ID, side, entryPrice, size, edge*100)

	return &market.Signal{
		ID:         market.NewSignalID(),
		MarketID:   m.ID,
		Strategy:   market.WeatherEdge,
		Side:       side,
		EntryPrice: entryPrice,
		Size:       size,
		Edge:       &edgeCopy,
		Confidence: confidence,
	}, nil
}

// CalculateKellyPosition sizes a position using the fractional Kelly
// criterion: f* = (b·p - (1-p)) / b, quarter-Kelly, floored at zero,
// capped at capital·maxPct. market_price ∈ {0,1} makes odds ill-defined
// and returns 0.
func CalculateKellyPosition(capital, forecastProb, marketPrice, maxPositionPct float64) float64 {
	winProb, betPrice := forecastProb, marketPrice
	if forecastProb <= marketPrice {
		winProb, betPrice = 1-forecastProb, 1-marketPrice
	}

	if betPrice <= 0 || betPrice >= 1 {
		return 0
	}

	odds := (1 - betPrice) / betPrice
	loseProb := 1 - winProb
	kellyFraction := (odds*winProb - loseProb) / odds

	fractionalKelly := kellyFraction * 0.25
	if fractionalKelly < 0 {
		fractionalKelly = 0
	}

	position := capital * fractionalKelly
	maxPosition := capital * maxPositionPct
	if position > maxPosition {
		return maxPosition
	}
	return position
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
