package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
)

func recs(ids ...string) []bubble.Record {
	out := make([]bubble.Record, len(ids))
	for i, id := range ids {
		out[i] = bubble.Record{ID: id, Seq: i}
	}
	return out
}

func TestHubLatestWins(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch := h.Subscribe(context.Background(), "sam", recs())
	h.Publish("sam", recs("a"))
	h.Publish("sam", recs("a", "b"))
	h.Publish("sam", recs("a", "b", "c"))

	snap := next(t, ch)
	assert.Equal(t, []string{"a", "b", "c"}, bubble.IDs(snap))

	select {
	case s := <-ch:
		t.Fatalf("stale snapshot delivered: %v", bubble.IDs(s))
	default:
	}
}

func TestHubOwnersIsolated(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sam := h.Subscribe(context.Background(), "sam", nil)
	alex := h.Subscribe(context.Background(), "alex", nil)
	next(t, sam)
	next(t, alex)

	h.Publish("sam", recs("x"))
	assert.Equal(t, []string{"x"}, bubble.IDs(next(t, sam)))
	select {
	case <-alex:
		t.Fatal("alex should not see sam's snapshot")
	default:
	}
}

func TestHubSnapshotsAreCopies(t *testing.T) {
	h := NewHub()
	defer h.Close()

	a := h.Subscribe(context.Background(), "sam", nil)
	b := h.Subscribe(context.Background(), "sam", nil)
	next(t, a)
	next(t, b)

	h.Publish("sam", recs("x"))
	sa, sb := next(t, a), next(t, b)
	sa[0].ID = "mutated"
	assert.Equal(t, "x", sb[0].ID)
}

func TestHubUnsubscribeOnCancel(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, "sam", nil)
	require.Equal(t, 1, h.Subscribers("sam"))

	cancel()
	assert.Eventually(t, func() bool { return h.Subscribers("sam") == 0 }, time.Second, 5*time.Millisecond)

	// Drain the initial snapshot, then the channel must be closed.
	for range ch {
	}
	h.Publish("sam", recs("late"))
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(context.Background(), "sam", nil)
	h.Close()

	for range ch {
	}
	late := h.Subscribe(context.Background(), "sam", nil)
	_, ok := <-late
	assert.False(t, ok, "subscribe after close should return a closed channel")
}
