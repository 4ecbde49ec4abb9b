package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/observability"
)

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	records map[string][]bubble.Record
	hub     *Hub
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string][]bubble.Record),
		hub:     NewHub(),
		now:     time.Now,
	}
}

// Append implements Store.
func (m *Memory) Append(ctx context.Context, owner string, ts time.Time) (bubble.Record, error) {
	start := time.Now()
	id, err := uuid.NewV7()
	if err != nil {
		observability.Store().OnAppend(ctx, "memory", owner, time.Since(start), err)
		return bubble.Record{}, err
	}

	m.mu.Lock()
	rec := bubble.Record{ID: id.String(), Owner: owner, Timestamp: stamp(ts, m.now)}
	m.records[owner] = append(m.records[owner], rec)
	snap := m.snapshot(owner)
	m.hub.Publish(owner, snap)
	m.mu.Unlock()

	rec.Seq = slices.IndexFunc(snap, func(r bubble.Record) bool { return r.ID == rec.ID })
	observability.Store().OnAppend(ctx, "memory", owner, time.Since(start), nil)
	return rec, nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context, owner string) ([]bubble.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(owner), nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[owner]
	i := slices.IndexFunc(recs, func(r bubble.Record) bool { return r.ID == id })
	if i < 0 {
		return notFound(owner, id)
	}
	m.records[owner] = slices.Delete(recs, i, i+1)
	m.hub.Publish(owner, m.snapshot(owner))
	return nil
}

// Subscribe implements Store.
func (m *Memory) Subscribe(ctx context.Context, owner string) (<-chan []bubble.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot(owner)
	observability.Store().OnSnapshot(ctx, "memory", owner, len(snap))
	return m.hub.Subscribe(ctx, owner, snap), nil
}

// Close ends all subscriptions.
func (m *Memory) Close() error {
	m.hub.Close()
	return nil
}

// snapshot must be called with mu held.
func (m *Memory) snapshot(owner string) []bubble.Record {
	return bubble.Sequence(slices.Clone(m.records[owner]))
}

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
