package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
)

// feed is a single subscriber channel with latest-wins delivery.
type feed struct {
	ch   chan []bubble.Record
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newFeed() *feed {
	return &feed{
		ch:   make(chan []bubble.Record, 1),
		done: make(chan struct{}),
	}
}

// offer replaces any undelivered snapshot with snap. It never blocks.
func (f *feed) offer(snap []bubble.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.ch:
	default:
	}
	// Only offer sends, under mu, so the buffer slot is free here.
	f.ch <- slices.Clone(snap)
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
	close(f.ch)
}

// Hub fans snapshots out to in-process subscribers, keyed by owner.
// Backends call Subscribe and Publish while holding their own write lock so
// an initial snapshot can never overtake a newer published one.
type Hub struct {
	mu     sync.Mutex
	feeds  map[string]map[*feed]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{feeds: make(map[string]map[*feed]struct{})}
}

// Subscribe registers a subscriber for owner and primes it with initial.
// The subscription ends when ctx is done or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, owner string, initial []bubble.Record) <-chan []bubble.Record {
	f := newFeed()
	f.offer(initial)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		f.close()
		return f.ch
	}
	if h.feeds[owner] == nil {
		h.feeds[owner] = make(map[*feed]struct{})
	}
	h.feeds[owner][f] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		h.remove(owner, f)
		f.close()
	}()
	return f.ch
}

// Publish delivers snap to every subscriber of owner.
func (h *Hub) Publish(owner string, snap []bubble.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for f := range h.feeds[owner] {
		f.offer(snap)
	}
}

// Subscribers returns the number of live subscriptions for owner.
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds[owner])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for owner, fs := range h.feeds {
		for f := range fs {
			f.close()
		}
		delete(h.feeds, owner)
	}
}

func (h *Hub) remove(owner string, f *feed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.feeds[owner], f)
	if len(h.feeds[owner]) == 0 {
		delete(h.feeds, owner)
	}
}
