package clob

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nagavaishak/celsius-go/internal/cache"
)

func TestRefreshOrderBookWarmsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OrderBook{
			Asks: []PriceLevel{{Price: "0.63", Size: "500"}, {Price: "0.64", Size: "1200"}},
			Bids: []PriceLevel{{Price: "0.61", Size: "300"}},
			Hash: "test",
		})
	}))
	defer srv.Close()

	client := NewClient("key", "c2VjcmV0", "pass", "0xabc").WithBaseURL(srv.URL)
	store := cache.New()

	if err := RefreshOrderBook(client, store, "sum_to_one_arb", "0xcondition", "tok-yes"); err != nil {
		t.Fatalf("RefreshOrderBook: %v", err)
	}

	got, ok := store.Get("0xcondition")
	if !ok {
		t.Fatal("expected cache hit after RefreshOrderBook")
	}
	if got != 0.63 {
		t.Errorf("cached best ask = %v, want 0.63", got)
	}
}

func TestRefreshOrderBookEmptyTokenIDIsNoop(t *testing.T) {
	client := NewClient("key", "c2VjcmV0", "pass", "0xabc")
	store := cache.New()

	if err := RefreshOrderBook(client, store, "sum_to_one_arb", "0xcondition", ""); err != nil {
		t.Fatalf("RefreshOrderBook: %v", err)
	}
	if _, ok := store.Get("0xcondition"); ok {
		t.Fatal("expected no cache entry for an empty token id")
	}
}

func TestRefreshOrderBookEmptyBookIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OrderBook{})
	}))
	defer srv.Close()

	client := NewClient("key", "c2VjcmV0", "pass", "0xabc").WithBaseURL(srv.URL)
	store := cache.New()

	if err := RefreshOrderBook(client, store, "sum_to_one_arb", "0xcondition", "tok-yes"); err != nil {
		t.Fatalf("RefreshOrderBook: %v", err)
	}
	if _, ok := store.Get("0xcondition"); ok {
		t.Fatal("expected no cache entry for an empty order book")
	}
}

func TestFeedTrackRoutesUpdatesByCallerID(t *testing.T) {
	ws := NewWSClient()
	store := cache.New()
	feed := NewFeed(ws, store, "sum_to_one_arb")

	feed.Track("0xcondition", "tok-yes")

	// Simulate an inbound websocket update without a live connection.
	ws.notifyHandlers(MarketUpdate{TokenID: "tok-yes", BestAsk: 0.58})

	got, ok := store.Get("0xcondition")
	if !ok {
		t.Fatal("expected cache hit keyed by caller id after a tracked update")
	}
	if got != 0.58 {
		t.Errorf("cached best ask = %v, want 0.58", got)
	}
}

func TestFeedTrackIgnoresUntrackedTokens(t *testing.T) {
	ws := NewWSClient()
	store := cache.New()
	_ = NewFeed(ws, store, "sum_to_one_arb")

	ws.notifyHandlers(MarketUpdate{TokenID: "tok-unknown", BestAsk: 0.58})

	if _, ok := store.Get("tok-unknown"); ok {
		t.Fatal("expected no cache entry for an untracked token")
	}
}

func TestFeedTrackEmptyTokenIDIsNoop(t *testing.T) {
	ws := NewWSClient()
	store := cache.New()
	feed := NewFeed(ws, store, "sum_to_one_arb")

	feed.Track("0xcondition", "")

	ws.notifyHandlers(MarketUpdate{TokenID: "", BestAsk: 0.58})
	if _, ok := store.Get("0xcondition"); ok {
		t.Fatal("expected no cache entry when tracking an empty token id")
	}
}
