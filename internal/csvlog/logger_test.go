package csvlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nagavaishak/celsius-go/internal/market"
)

func TestNewWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Close()

	l2, err := New(path)
	if err != nil {
		t.Fatalf("reopen New: %v", err)
	}
	l2.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly 1 header line after reopen, got %d: %v", len(lines), lines)
	}
	if lines[0] != header {
		t.Errorf("header = %q, want %q", lines[0], header)
	}
}

func TestLogPositionFormatsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	side := market.Yes
	pnl := 12.5
	opened := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	pos := market.Position{
		MarketID:   "weather-london-1",
		Strategy:   market.WeatherEdge,
		Side:       &side,
		YesShares:  100,
		EntryPrice: 0.65,
		Cost:       65,
		OpenedAt:   opened,
		PnL:        &pnl,
		Status:     market.StatusClosed,
	}
	if err := l.LogPosition(pos); err != nil {
		t.Fatalf("LogPosition: %v", err)
	}
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	row := lines[1]
	if !strings.Contains(row, "weather-london-1") || !strings.Contains(row, "12.50") || !strings.Contains(row, "closed") {
		t.Errorf("row missing expected fields: %q", row)
	}
}

func TestLogEventUsesEventMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if err := l.LogEvent("circuit_breaker_tripped"); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	row := lines[len(lines)-1]
	fields := strings.Split(row, ",")
	if fields[1] != "EVENT" {
		t.Errorf("market_id field = %q, want EVENT", fields[1])
	}
	if fields[2] != "circuit_breaker_tripped" {
		t.Errorf("event field = %q", fields[2])
	}
}
