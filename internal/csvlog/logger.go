// Package csvlog implements the append-only CSV position/event logger:
// one row per opened/closed position or bare event, written to a file
// shared across the process lifetime.
package csvlog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nagavaishak/celsius-go/internal/market"
)

const header = "timestamp,market_id,strategy,side,entry_price,size,cost,pnl,status"

// Logger appends rows to a CSV file, creating it with the header row if
// it does not already exist.
type Logger struct {
	path string
	file *os.File
}

// New opens (creating if necessary) the CSV log at path.
func New(path string) (*Logger, error) {
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csvlog: open %s: %w", path, err)
	}
	l := &Logger{path: path, file: f}

	if needsHeader {
		if _, err := f.WriteString(header + "\n"); err != nil {
			return nil, fmt.Errorf("csvlog: write header: %w", err)
		}
	}
	return l, nil
}

// LogPosition appends a row for an opened or closed position. size is the
// total shares held (yes+no); status reflects the position's current
// lifecycle state.
func (l *Logger) LogPosition(pos market.Position) error {
	sideStr := "BOTH"
	if pos.Side != nil {
		sideStr = pos.Side.String()
	}

	pnlStr := ""
	if pos.PnL != nil {
		pnlStr = fmt.Sprintf("%.2f", *pos.PnL)
	}

	size := pos.YesShares + pos.NoShares

	row := strings.Join([]string{
		pos.OpenedAt.UTC().Format(time.RFC3339),
		pos.MarketID,
		pos.Strategy.String(),
		sideStr,
		fmt.Sprintf("%.3f", pos.EntryPrice),
		fmt.Sprintf("%.6f", size),
		fmt.Sprintf("%.2f", pos.Cost),
		pnlStr,
		string(pos.Status),
	}, ",")

	_, err := l.file.WriteString(row + "\n")
	return err
}

// LogEvent appends a bare event row: literal "EVENT" in the market_id
// column, the event string where strategy would go, and empty numeric
// fields.
func (l *Logger) LogEvent(event string) error {
	row := fmt.Sprintf("%s,EVENT,%s,,,,,,", time.Now().UTC().Format(time.RFC3339), event)
	_, err := l.file.WriteString(row + "\n")
	return err
}

// Close closes the underlying file.
func (l *Logger) Close() error { return l.file.Close() }
