package analysis

import (
	"context"
	"sync"

	"github.com/ternarybob/stockanalyzer/internal/common"
)

// tickerLocks serializes runs for the same ticker so a cache reset cannot
// interleave with another in-flight recompute of the same artifacts.
type tickerLocks struct {
	mu    sync.Mutex
	slots map[common.Ticker]*tickerSlot
}

type tickerSlot struct {
	ch   chan struct{}
	refs int
}

func newTickerLocks() *tickerLocks {
	return &tickerLocks{slots: make(map[common.Ticker]*tickerSlot)}
}

// acquire blocks until ticker is free or ctx is done. The returned func
// releases the lock and must be called exactly once.
func (l *tickerLocks) acquire(ctx context.Context, ticker common.Ticker) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[ticker]
	if !ok {
		slot = &tickerSlot{ch: make(chan struct{}, 1)}
		l.slots[ticker] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(ticker, slot, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(ticker, slot, true) })
	}, nil
}

func (l *tickerLocks) release(ticker common.Ticker, slot *tickerSlot, held bool) {
	if held {
		<-slot.ch
	}
	l.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, ticker)
	}
	l.mu.Unlock()
}

// size returns the number of tickers with holders or waiters.
func (l *tickerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
