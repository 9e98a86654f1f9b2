package clob

import (
	"context"
	"log"
	"strconv"
	"sync"

	"github.com/nagavaishak/celsius-go/internal/cache"
)

// RefreshOrderBook fetches the live CLOB order book for tokenID and warms
// store with its best ask price under key, tagged with strategyTag so the
// cache applies that strategy's TTL. An empty tokenID or an empty book
// (token not yet live, or no resting liquidity) is a no-op rather than an
// error, since callers poll every cycle regardless of a market's current
// depth.
func RefreshOrderBook(client *Client, store cache.Store, strategyTag, key, tokenID string) error {
	if tokenID == "" {
		return nil
	}

	book, err := client.GetOrderBook(tokenID)
	if err != nil {
		return err
	}
	if len(book.Asks) == 0 {
		return nil
	}

	// The CLOB book endpoint returns asks ordered best (lowest) first.
	bestAsk, err := strconv.ParseFloat(book.Asks[0].Price, 64)
	if err != nil {
		return err
	}

	store.Insert(key, bestAsk, strategyTag)
	return nil
}

// Feed streams live best-ask prices from the CLOB websocket into a price
// cache, keyed by the caller's own market identifier rather than the raw
// CLOB token id, so strategies can look prices up by the same id they
// already track markets under.
type Feed struct {
	ws    *WSClient
	store cache.Store
	tag   string

	mu        sync.Mutex
	tokenToID map[string]string
}

// NewFeed wires a websocket client to cache under strategyTag's TTL.
func NewFeed(ws *WSClient, store cache.Store, strategyTag string) *Feed {
	f := &Feed{ws: ws, store: store, tag: strategyTag, tokenToID: make(map[string]string)}
	ws.OnUpdate(func(u MarketUpdate) {
		if u.BestAsk <= 0 {
			return
		}
		f.mu.Lock()
		id, tracked := f.tokenToID[u.TokenID]
		f.mu.Unlock()
		if !tracked {
			return
		}
		f.store.Insert(id, u.BestAsk, f.tag)
	})
	return f
}

// Track records tokenID under the caller's id and, the first time the token
// is seen, subscribes to its live updates. A failed subscribe (for example
// while the websocket is not connected) is only logged: the token stays
// recorded, and later Track calls for it do not subscribe again.
func (f *Feed) Track(id, tokenID string) {
	if tokenID == "" {
		return
	}
	f.mu.Lock()
	_, already := f.tokenToID[tokenID]
	f.tokenToID[tokenID] = id
	f.mu.Unlock()

	if already {
		return
	}
	if err := f.ws.Subscribe(tokenID); err != nil {
		log.Printf("[clob] feed subscribe %s: %v", tokenID, err)
	}
}

// Run connects the underlying websocket and runs its reconnect loop until
// ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	return f.ws.Run(ctx)
}
