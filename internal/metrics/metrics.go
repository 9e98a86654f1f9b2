// Package metrics provides Prometheus instrumentation for the trading
// engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts trades executed, partitioned by strategy and side.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celsius_trades_total",
		Help: "Total number of trades executed",
	}, []string{"strategy", "side"})

	// TradeLatency is the evaluate-to-fill latency per strategy.
	TradeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "celsius_trade_latency_seconds",
		Help:    "Time from signal generation to order fill",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	// OpenPositions tracks the number of currently open positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "celsius_open_positions",
		Help: "Number of currently open positions",
	})

	// AccountBalance tracks the current free-capital balance in USD.
	AccountBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "celsius_account_balance_usd",
		Help: "Current account balance in USD",
	})

	// RiskRejectionsTotal counts signals rejected by the risk manager,
	// partitioned by the failing check kind.
	RiskRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celsius_risk_rejections_total",
		Help: "Signals rejected by the risk manager, by check kind",
	}, []string{"kind"})

	// CircuitBreakerTripsTotal counts circuit breaker trips by reason kind.
	CircuitBreakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celsius_circuit_breaker_trips_total",
		Help: "Circuit breaker trips, by reason kind",
	}, []string{"reason"})

	// CacheHitsTotal and CacheMissesTotal track price cache effectiveness.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celsius_cache_hits_total",
		Help: "Price cache hits, by strategy",
	}, []string{"strategy"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celsius_cache_misses_total",
		Help: "Price cache misses, by strategy",
	}, []string{"strategy"})

	// ForecastFetchErrorsTotal counts upstream weather API failures by
	// provider.
	ForecastFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celsius_forecast_fetch_errors_total",
		Help: "Weather forecast fetch errors, by provider",
	}, []string{"provider"})

	// RealizedPnL accumulates realized PnL in USD, partitioned by
	// strategy. Uses a counter-style gauge since PnL can be negative.
	RealizedPnL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "celsius_realized_pnl_usd",
		Help: "Cumulative realized PnL in USD, by strategy",
	}, []string{"strategy"})
)

// Handler returns the Prometheus metrics HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
