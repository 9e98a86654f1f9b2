package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nagavaishak/celsius-go/internal/market"
	"github.com/shopspring/decimal"
)

// PostgresStore is an alternate position-ledger backend for deployments
// that already run Postgres, implementing the same Store contract as
// SQLiteStore. Monetary fields are persisted as NUMERIC via decimal.Decimal
// to avoid float round-trip drift across the network boundary.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and idempotently creates the
// ledger schema.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("ledger: connect postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id BIGSERIAL PRIMARY KEY,
			market_id TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			strategy TEXT NOT NULL,
			side TEXT,
			yes_shares NUMERIC NOT NULL DEFAULT 0,
			no_shares NUMERIC NOT NULL DEFAULT 0,
			entry_price NUMERIC NOT NULL,
			cost NUMERIC NOT NULL,
			opened_at TIMESTAMPTZ NOT NULL,
			closed_at TIMESTAMPTZ,
			pnl NUMERIC,
			status TEXT NOT NULL DEFAULT 'open'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_market_id ON positions(market_id)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_opened_at ON positions(opened_at)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_city ON positions(city)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			market_id TEXT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL,
			filled_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE TABLE IF NOT EXISTS circuit_breaker_events (
			id BIGSERIAL PRIMARY KEY,
			reason TEXT NOT NULL,
			triggered_at TIMESTAMPTZ NOT NULL,
			reset_at TIMESTAMPTZ,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS emergency_exits (
			id BIGSERIAL PRIMARY KEY,
			position_id BIGINT,
			reason TEXT NOT NULL,
			realized_loss NUMERIC NOT NULL,
			exited_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bot_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ledger: migrate postgres: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) InsertPosition(ctx context.Context, pos market.Position) (int64, error) {
	var side *string
	if pos.Side != nil {
		v := pos.Side.String()
		side = &v
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO positions (market_id, city, strategy, side, yes_shares, no_shares, entry_price, cost, opened_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		pos.MarketID, pos.City, pos.Strategy.String(), side,
		decimal.NewFromFloat(pos.YesShares), decimal.NewFromFloat(pos.NoShares),
		decimal.NewFromFloat(pos.EntryPrice), decimal.NewFromFloat(pos.Cost),
		pos.OpenedAt.UTC(), string(pos.Status)).Scan(&id)
	return id, err
}

func (s *PostgresStore) GetOpenPositions(ctx context.Context) ([]market.Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, market_id, city, strategy, side, yes_shares, no_shares, entry_price, cost, opened_at, closed_at, pnl, status
		FROM positions WHERE status = 'open' ORDER BY opened_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Position
	for rows.Next() {
		var (
			p          market.Position
			strategy   string
			side       *string
			yesShares  decimal.Decimal
			noShares   decimal.Decimal
			entryPrice decimal.Decimal
			cost       decimal.Decimal
			closedAt   *time.Time
			pnl        *decimal.Decimal
			status     string
		)
		if err := rows.Scan(&p.ID, &p.MarketID, &p.City, &strategy, &side, &yesShares, &noShares,
			&entryPrice, &cost, &p.OpenedAt, &closedAt, &pnl, &status); err != nil {
			return nil, err
		}
		p.Strategy = parseStrategy(strategy)
		p.Status = market.PositionStatus(status)
		if side != nil {
			s := parseSideString(*side)
			p.Side = &s
		}
		p.YesShares, _ = yesShares.Float64()
		p.NoShares, _ = noShares.Float64()
		p.EntryPrice, _ = entryPrice.Float64()
		p.Cost, _ = cost.Float64()
		p.ClosedAt = closedAt
		if pnl != nil {
			v, _ := pnl.Float64()
			p.PnL = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func parseSideString(s string) market.Side {
	switch s {
	case "Yes":
		return market.Yes
	case "No":
		return market.No
	default:
		return market.None
	}
}

func (s *PostgresStore) CountOpenPositions(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM positions WHERE status = 'open'`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CountTradesToday(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM positions WHERE opened_at::date = CURRENT_DATE`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CountPositionsForCityToday(ctx context.Context, city string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM positions
		WHERE city = $1 AND opened_at::date = CURRENT_DATE AND status = 'open'`, city).Scan(&n)
	return n, err
}

func (s *PostgresStore) GetDailyPnL(ctx context.Context) (float64, error) {
	var pnl decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(COALESCE(pnl, 0)), 0) FROM positions WHERE opened_at::date = CURRENT_DATE`).Scan(&pnl)
	if err != nil {
		return 0, err
	}
	v, _ := pnl.Float64()
	return v, nil
}

func (s *PostgresStore) GetPeakEquity(ctx context.Context) (float64, error) {
	var peak *decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT MAX(cumulative_pnl) FROM (
			SELECT SUM(COALESCE(pnl, 0)) OVER (ORDER BY opened_at) AS cumulative_pnl
			FROM positions WHERE pnl IS NOT NULL
		) t`).Scan(&peak)
	if err != nil {
		return 0, err
	}
	if peak == nil {
		return 0, nil
	}
	v, _ := peak.Float64()
	return v, nil
}

func (s *PostgresStore) UpdatePositionStatus(ctx context.Context, id int64, status market.PositionStatus, pnl *float64) error {
	var d *decimal.Decimal
	if pnl != nil {
		v := decimal.NewFromFloat(*pnl)
		d = &v
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE positions SET status = $1, closed_at = $2, pnl = $3 WHERE id = $4`,
		string(status), time.Now().UTC(), d, id)
	return err
}

func (s *PostgresStore) UpdatePositionShares(ctx context.Context, id int64, yesShares, noShares float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE positions SET yes_shares = $1, no_shares = $2 WHERE id = $3`,
		decimal.NewFromFloat(yesShares), decimal.NewFromFloat(noShares), id)
	return err
}

func (s *PostgresStore) InsertOrder(ctx context.Context, marketID string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO orders (market_id, submitted_at, status) VALUES ($1, $2, 'pending') RETURNING id`,
		marketID, time.Now().UTC()).Scan(&id)
	return id, err
}

func (s *PostgresStore) GetPendingOrders(ctx context.Context) ([]PendingOrder, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, market_id FROM orders WHERE status = 'pending'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingOrder
	for rows.Next() {
		var o PendingOrder
		if err := rows.Scan(&o.ID, &o.MarketID); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkOrderFilled(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE orders SET status = 'filled', filled_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

func (s *PostgresStore) LogCircuitBreakerEvent(ctx context.Context, reason string, notes *string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO circuit_breaker_events (reason, triggered_at, notes) VALUES ($1, $2, $3)`,
		reason, time.Now().UTC(), notes)
	return err
}

func (s *PostgresStore) LogEmergencyExit(ctx context.Context, positionID *int64, reason string, realizedLoss float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO emergency_exits (position_id, reason, realized_loss, exited_at) VALUES ($1, $2, $3, $4)`,
		positionID, reason, decimal.NewFromFloat(realizedLoss), time.Now().UTC())
	return err
}

func (s *PostgresStore) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM bot_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *PostgresStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bot_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
