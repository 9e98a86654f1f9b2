package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nagavaishak/celsius-go/internal/market"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the primary position-ledger implementation, backed by a
// local SQLite file opened in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and idempotently migrates) the ledger database at
// dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("ledger: enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			market_id TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			strategy TEXT NOT NULL,
			side TEXT,
			yes_shares REAL NOT NULL DEFAULT 0.0,
			no_shares REAL NOT NULL DEFAULT 0.0,
			entry_price REAL NOT NULL,
			cost REAL NOT NULL,
			opened_at TIMESTAMP NOT NULL,
			closed_at TIMESTAMP,
			pnl REAL,
			status TEXT NOT NULL DEFAULT 'open'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_market_id ON positions(market_id)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_opened_at ON positions(opened_at)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_city ON positions(city)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			market_id TEXT NOT NULL,
			submitted_at TIMESTAMP NOT NULL,
			filled_at TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,

		`CREATE TABLE IF NOT EXISTS circuit_breaker_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reason TEXT NOT NULL,
			triggered_at TIMESTAMP NOT NULL,
			reset_at TIMESTAMP,
			notes TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS emergency_exits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position_id INTEGER,
			reason TEXT NOT NULL,
			realized_loss REAL NOT NULL,
			exited_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bot_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ledger: migrate: %w", err)
		}
	}
	return nil
}

func sideToNullString(side *market.Side) sql.NullString {
	if side == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: side.String(), Valid: true}
}

func (s *SQLiteStore) InsertPosition(ctx context.Context, pos market.Position) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (market_id, city, strategy, side, yes_shares, no_shares, entry_price, cost, opened_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pos.MarketID, pos.City, pos.Strategy.String(), sideToNullString(pos.Side),
		pos.YesShares, pos.NoShares, pos.EntryPrice, pos.Cost,
		pos.OpenedAt.UTC().Format(time.RFC3339), string(pos.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert_position: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetOpenPositions(ctx context.Context) ([]market.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, market_id, city, strategy, side, yes_shares, no_shares, entry_price, cost, opened_at, closed_at, pnl, status
		 FROM positions WHERE status = 'open' ORDER BY opened_at`)
	if err != nil {
		return nil, fmt.Errorf("ledger: get_open_positions: %w", err)
	}
	defer rows.Close()

	var out []market.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (market.Position, error) {
	var (
		p          market.Position
		strategy   string
		side       sql.NullString
		openedAt   string
		closedAt   sql.NullString
		pnl        sql.NullFloat64
		status     string
	)
	if err := row.Scan(&p.ID, &p.MarketID, &p.City, &strategy, &side, &p.YesShares, &p.NoShares,
		&p.EntryPrice, &p.Cost, &openedAt, &closedAt, &pnl, &status); err != nil {
		return market.Position{}, fmt.Errorf("ledger: scan position: %w", err)
	}

	p.Strategy = parseStrategy(strategy)
	p.Status = market.PositionStatus(status)
	p.Side = parseSide(side)

	opened, err := time.Parse(time.RFC3339, openedAt)
	if err != nil {
		return market.Position{}, fmt.Errorf("ledger: parse opened_at: %w", err)
	}
	p.OpenedAt = opened

	if closedAt.Valid {
		t, err := time.Parse(time.RFC3339, closedAt.String)
		if err == nil {
			p.ClosedAt = &t
		}
	}
	if pnl.Valid {
		v := pnl.Float64
		p.PnL = &v
	}
	return p, nil
}

func parseStrategy(s string) market.Strategy {
	if s == "SumToOneArb" {
		return market.SumToOneArb
	}
	return market.WeatherEdge
}

func parseSide(s sql.NullString) *market.Side {
	if !s.Valid {
		return nil
	}
	var side market.Side
	switch s.String {
	case "Yes":
		side = market.Yes
	case "No":
		side = market.No
	default:
		side = market.None
	}
	return &side
}

func (s *SQLiteStore) CountOpenPositions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions WHERE status = 'open'`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountTradesToday(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM positions WHERE DATE(opened_at) = DATE('now')`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountPositionsForCityToday(ctx context.Context, city string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM positions
		 WHERE city = ? AND DATE(opened_at) = DATE('now') AND status = 'open'`,
		city).Scan(&n)
	return n, err
}

func (s *SQLiteStore) GetDailyPnL(ctx context.Context) (float64, error) {
	var pnl float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(COALESCE(pnl, 0)), 0) FROM positions WHERE DATE(opened_at) = DATE('now')`).Scan(&pnl)
	return pnl, err
}

// GetPeakEquity returns the running peak of the cumulative sum of realized
// pnl across closed positions in opened_at order. It does not include
// unrealized pnl from open positions, a deliberately conservative choice
// for drawdown computation.
func (s *SQLiteStore) GetPeakEquity(ctx context.Context) (float64, error) {
	var peak sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(cumulative_pnl) FROM (
			SELECT SUM(COALESCE(pnl, 0)) OVER (ORDER BY opened_at) AS cumulative_pnl
			FROM positions WHERE pnl IS NOT NULL
		)`).Scan(&peak)
	if err != nil {
		return 0, err
	}
	return peak.Float64, nil
}

func (s *SQLiteStore) UpdatePositionStatus(ctx context.Context, id int64, status market.PositionStatus, pnl *float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE positions SET status = ?, closed_at = ?, pnl = ? WHERE id = ?`,
		string(status), nowUTC().Format(time.RFC3339), pnl, id)
	return err
}

func (s *SQLiteStore) UpdatePositionShares(ctx context.Context, id int64, yesShares, noShares float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE positions SET yes_shares = ?, no_shares = ? WHERE id = ?`, yesShares, noShares, id)
	return err
}

func (s *SQLiteStore) InsertOrder(ctx context.Context, marketID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (market_id, submitted_at, status) VALUES (?, ?, 'pending')`,
		marketID, nowUTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetPendingOrders(ctx context.Context) ([]PendingOrder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, market_id FROM orders WHERE status = 'pending'`)
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

func (s *SQLiteStore) MarkOrderFilled(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = 'filled', filled_at = ? WHERE id = ?`, nowUTC().Format(time.RFC3339), id)
	return err
}

func (s *SQLiteStore) LogCircuitBreakerEvent(ctx context.Context, reason string, notes *string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO circuit_breaker_events (reason, triggered_at, notes) VALUES (?, ?, ?)`,
		reason, nowUTC().Format(time.RFC3339), notes)
	return err
}

func (s *SQLiteStore) LogEmergencyExit(ctx context.Context, positionID *int64, reason string, realizedLoss float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO emergency_exits (position_id, reason, realized_loss, exited_at) VALUES (?, ?, ?, ?)`,
		positionID, reason, realizedLoss, nowUTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM bot_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
