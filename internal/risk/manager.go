// Package risk implements the ten-check risk gate and the latching
// circuit breaker state machine.
package risk

import (
	"context"
	"fmt"

	"github.com/nagavaishak/celsius-go/internal/market"
	"github.com/shopspring/decimal"
)

// Kind identifies which of the ten checks rejected a signal.
type Kind string

const (
	InsufficientBalance       Kind = "insufficient_balance"
	MaxPositionsReached       Kind = "max_positions_reached"
	DailyTradesExceeded       Kind = "daily_trades_exceeded"
	DailyLossLimitHit         Kind = "daily_loss_limit_hit"
	DrawdownExceeded          Kind = "drawdown_exceeded"
	PositionTooLarge          Kind = "position_too_large"
	PositionExceedsPercentage Kind = "position_exceeds_percentage"
	EdgeTooGoodToBeTrue       Kind = "edge_too_good_to_be_true"
	CorrelationLimitExceeded  Kind = "correlation_limit_exceeded"
	ExternalValidatorRejected Kind = "external_validator_rejected"
	LedgerError               Kind = "ledger_error"
)

// ValidationError is the typed rejection returned by Validate. Ledger
// errors are surfaced through this same type and treated conservatively
// as a refusal.
type ValidationError struct {
	Kind    Kind
	Message string
	Err     error
	// Measured carries the raw value that tripped a session-fatal check
	// (USD for DailyLossLimitHit, fraction for DrawdownExceeded), so the
	// circuit breaker can latch with an exact BreakerReason. Zero for
	// every other Kind.
	Measured float64
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func reject(kind Kind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Ledger is the narrow read-only view of the position ledger the risk
// gate needs. It must never be used to write.
type Ledger interface {
	CountOpenPositions(ctx context.Context) (int, error)
	CountTradesToday(ctx context.Context) (int, error)
	GetDailyPnL(ctx context.Context) (float64, error)
	GetPeakEquity(ctx context.Context) (float64, error)
	CountPositionsForCityToday(ctx context.Context, city string) (int, error)
}

// Validator is the optional external (e.g. AI) validation hook (check 10).
// A nil Validator always approves.
type Validator interface {
	Validate(ctx context.Context, signal market.Signal) (bool, error)
}

// Config holds the risk gate's tunable thresholds.
type Config struct {
	MaxPositionSizeUSD        float64
	MaxPositionPct            float64
	MaxOpenPositions          int
	MaxDailyTrades            int
	MaxDailyLossUSD           float64
	MaxDrawdownPct            float64
	MaxPositionsPerCityPerDay int
	MinLiquidityUSD           float64
	MaxGasGwei                float64
}

// Manager evaluates candidate signals against the ten-check gate. It is
// side-effect-free on the ledger: every check is a read.
type Manager struct {
	Config    Config
	Ledger    Ledger
	Validator Validator
}

// New creates a risk Manager. Validator may be nil.
func New(cfg Config, ledger Ledger, validator Validator) *Manager {
	return &Manager{Config: cfg, Ledger: ledger, Validator: validator}
}

// Validate runs the ten checks in order against signal, aborting and
// returning a *ValidationError at the first failure. city is the
// canonical city the signal's market resolves to; pass "" to skip the
// correlation check for non-weather strategies.
func (m *Manager) Validate(ctx context.Context, signal market.Signal, city string, currentBalance float64) error {
	cap := decimal.NewFromFloat(currentBalance)
	size := decimal.NewFromFloat(signal.Size)

	// 1. Capital
	if size.GreaterThan(cap) {
		return reject(InsufficientBalance, "signal size %.2f exceeds balance %.2f", signal.Size, currentBalance)
	}

	// 2. Open positions
	openCount, err := m.Ledger.CountOpenPositions(ctx)
	if err != nil {
		return reject(LedgerError, "count_open_positions: %v", err)
	}
	if openCount >= m.Config.MaxOpenPositions {
		return reject(MaxPositionsReached, "open positions %d >= max %d", openCount, m.Config.MaxOpenPositions)
	}

	// 3. Daily trades
	tradesToday, err := m.Ledger.CountTradesToday(ctx)
	if err != nil {
		return reject(LedgerError, "count_trades_today: %v", err)
	}
	if tradesToday >= m.Config.MaxDailyTrades {
		return reject(DailyTradesExceeded, "trades today %d >= max %d", tradesToday, m.Config.MaxDailyTrades)
	}

	// 4. Daily loss
	dailyPnL, err := m.Ledger.GetDailyPnL(ctx)
	if err != nil {
		return reject(LedgerError, "get_daily_pnl: %v", err)
	}
	if dailyPnL < -m.Config.MaxDailyLossUSD {
		vErr := reject(DailyLossLimitHit, "daily pnl %.2f below -%.2f", dailyPnL, m.Config.MaxDailyLossUSD)
		vErr.Measured = -dailyPnL
		return vErr
	}

	// 5. Drawdown
	peakEquity, err := m.Ledger.GetPeakEquity(ctx)
	if err != nil {
		return reject(LedgerError, "get_peak_equity: %v", err)
	}
	peak := peakEquity
	if currentBalance > peak {
		peak = currentBalance
	}
	if peak > 0 {
		drawdown := (peak - currentBalance) / peak
		if drawdown > m.Config.MaxDrawdownPct {
			vErr := reject(DrawdownExceeded, "drawdown %.1f%% exceeds max %.1f%%", drawdown*100, m.Config.MaxDrawdownPct*100)
			vErr.Measured = drawdown
			return vErr
		}
	}

	// 6. Absolute position cap
	maxSize := decimal.NewFromFloat(m.Config.MaxPositionSizeUSD)
	if size.GreaterThan(maxSize) {
		return reject(PositionTooLarge, "size %.2f exceeds max position size %.2f", signal.Size, m.Config.MaxPositionSizeUSD)
	}

	// 7. Percentage position cap
	maxPct := cap.Mul(decimal.NewFromFloat(m.Config.MaxPositionPct))
	if size.GreaterThan(maxPct) {
		return reject(PositionExceedsPercentage, "size %.2f exceeds %.0f%% of balance (%.2f)", signal.Size, m.Config.MaxPositionPct*100, maxPct.InexactFloat64())
	}

	// 8. Edge sanity
	if signal.Edge != nil && *signal.Edge > 0.30 {
		return reject(EdgeTooGoodToBeTrue, "edge %.1f%% exceeds sanity ceiling", *signal.Edge*100)
	}

	// 9. Per-city correlation (weather only)
	if city != "" {
		cityCount, err := m.Ledger.CountPositionsForCityToday(ctx, city)
		if err != nil {
			return reject(LedgerError, "count_positions_for_city_today: %v", err)
		}
		if cityCount >= m.Config.MaxPositionsPerCityPerDay {
			return reject(CorrelationLimitExceeded, "%s already has %d open positions today (max %d)", city, cityCount, m.Config.MaxPositionsPerCityPerDay)
		}
	}

	// 10. External validator hook
	if m.Validator != nil {
		ok, err := m.Validator.Validate(ctx, signal)
		if err != nil {
			return reject(LedgerError, "external validator: %v", err)
		}
		if !ok {
			return reject(ExternalValidatorRejected, "external validator rejected signal for %s", signal.MarketID)
		}
	}

	return nil
}
