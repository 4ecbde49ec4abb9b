package view

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/render"
)

func snapshot(n int) []bubble.Record {
	base := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	out := make([]bubble.Record, n)
	for i := range out {
		out[i] = bubble.Record{ID: fmt.Sprintf("r%02d", i), Owner: "alex", Timestamp: base.Add(time.Duration(i) * time.Minute)}
	}
	return bubble.Sequence(out)
}

type harness struct {
	snapshots chan []bubble.Record
	diffs     chan render.Diff
	view      *View
	cancel    context.CancelFunc
	errc      chan error
}

func start(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		snapshots: make(chan []bubble.Record),
		diffs:     make(chan render.Diff, 16),
		errc:      make(chan error, 1),
	}
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	h.view = New("alex", 900, 680, h.snapshots, func(d render.Diff) { h.diffs <- d }, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- h.view.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.view.Done()
	})
	return h
}

func (h *harness) next(t *testing.T) render.Diff {
	t.Helper()
	select {
	case d := <-h.diffs:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for diff")
		return render.Diff{}
	}
}

func (h *harness) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case diff := <-h.diffs:
		t.Fatalf("unexpected diff: pass %d resize %v", diff.Pass, diff.Resize)
	case <-time.After(d):
	}
}

func TestViewRendersSnapshots(t *testing.T) {
	h := start(t)

	h.snapshots <- snapshot(2)
	d := h.next(t)
	assert.Equal(t, 1, d.Pass)
	assert.Len(t, d.Created, 2)
	assert.Equal(t, "alex", d.Container)

	// An identical snapshot changes nothing and is not delivered.
	h.snapshots <- snapshot(2)
	h.quiet(t, 50*time.Millisecond)

	h.snapshots <- snapshot(3)
	d = h.next(t)
	require.Len(t, d.Created, 1)
	assert.Equal(t, "r02", d.Created[0].ID)
	assert.True(t, d.Created[0].Entered)
	assert.Empty(t, d.Updated, "existing bubbles must not move on append")
}

func TestViewFirstEmptySnapshotIsDelivered(t *testing.T) {
	h := start(t)
	h.snapshots <- nil
	d := h.next(t)
	assert.Equal(t, 1, d.Pass)
	assert.True(t, d.Empty())
}

func TestViewRecentWindow(t *testing.T) {
	h := start(t, WithLimit(3))
	h.snapshots <- snapshot(5)
	d := h.next(t)
	require.Len(t, d.Created, 3)
	assert.Equal(t, "r02", d.Created[0].ID)
}

func TestViewResizeCoalesces(t *testing.T) {
	h := start(t)
	h.snapshots <- snapshot(4)
	h.next(t)

	require.NoError(t, h.view.Resize(800, 600))
	require.NoError(t, h.view.Resize(600, 500))
	require.NoError(t, h.view.Resize(450, 340))

	d := h.next(t)
	assert.True(t, d.Resize)
	assert.Equal(t, 450.0, d.Width)
	assert.Equal(t, 340.0, d.Height)
	assert.Empty(t, d.Created, "resize must not replay entrances")
	assert.Len(t, d.Updated, 4)
	for _, op := range d.Updated {
		assert.False(t, op.Entered)
	}

	h.quiet(t, 5*FrameInterval)
}

func TestViewResizeValidation(t *testing.T) {
	h := start(t)
	err := h.view.Resize(0, 100)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSize))
}

func TestViewStopsWhenSubscriptionCloses(t *testing.T) {
	h := start(t)
	close(h.snapshots)

	select {
	case err := <-h.errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	err := h.view.Resize(500, 500)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestViewStopsOnCancel(t *testing.T) {
	h := start(t)
	h.cancel()
	select {
	case err := <-h.errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestViewIDsAreUnique(t *testing.T) {
	a := New("alex", 900, 680, nil, nil)
	b := New("alex", 900, 680, nil, nil)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "alex", a.Owner())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	h := start(t)
	r.Add(h.view)

	got, err := r.Get(h.view.ID())
	require.NoError(t, err)
	assert.Same(t, h.view, got)
	assert.Equal(t, 1, r.Len())

	_, err = r.Get("missing")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	h.cancel()
	assert.Eventually(t, func() bool { return r.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}
