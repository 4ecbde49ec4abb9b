package tap

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/thinkofyou/pkg/access"
	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/notify"
	"github.com/matzehuels/thinkofyou/pkg/store"
)

var sam = access.Identity{Key: "k", Name: "Sam", Owner: "sam", Partner: "alex"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// flakyStore fails the first n appends with err.
type flakyStore struct {
	store.Store
	n     int
	err   error
	calls int
}

func (f *flakyStore) Append(ctx context.Context, owner string, ts time.Time) (bubble.Record, error) {
	f.calls++
	if f.calls <= f.n {
		return bubble.Record{}, f.err
	}
	return f.Store.Append(ctx, owner, ts)
}

func TestTap(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	defer mem.Close()
	pub := &recordingPublisher{}

	svc := New(mem, WithPublisher(pub), WithLocation(time.UTC))
	ts := time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC)
	rec, err := svc.TapAt(ctx, sam, ts)
	require.NoError(t, err)
	assert.Equal(t, "sam", rec.Owner)
	assert.True(t, rec.Timestamp.Equal(ts))

	recs, err := mem.List(ctx, "sam")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, notify.EventTap, ev.Type)
	assert.Equal(t, "alex", ev.Partner)
	assert.Equal(t, rec.ID, ev.RecordID)
	assert.Equal(t, "evening", ev.Period)
}

func TestTapUsesClock(t *testing.T) {
	mem := store.NewMemory()
	defer mem.Close()
	svc := New(mem)
	fixed := time.Date(2026, 2, 14, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	rec, err := svc.Tap(context.Background(), sam)
	require.NoError(t, err)
	assert.True(t, rec.Timestamp.Equal(fixed))
}

func TestTapInvalidOwner(t *testing.T) {
	mem := store.NewMemory()
	defer mem.Close()
	_, err := New(mem).Tap(context.Background(), access.Identity{Owner: ""})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOwner))
}

func TestTapNotificationFailureIsIgnored(t *testing.T) {
	mem := store.NewMemory()
	defer mem.Close()
	pub := &recordingPublisher{err: stderrors.New("broker down")}

	_, err := New(mem, WithPublisher(pub)).Tap(context.Background(), sam)
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestTapStoreFailure(t *testing.T) {
	mem := store.NewMemory()
	defer mem.Close()
	pub := &recordingPublisher{}
	flaky := &flakyStore{Store: mem, n: 1, err: stderrors.New("disk full")}

	_, err := New(flaky, WithPublisher(pub)).Tap(context.Background(), sam)
	assert.True(t, errors.Is(err, errors.ErrCodeStoreUnavailable), "got %v", err)
	assert.Equal(t, 1, flaky.calls, "non-retryable errors must not be retried")
	assert.Empty(t, pub.events)
}

func TestTapRetriesTransientFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the retry backoff")
	}
	mem := store.NewMemory()
	defer mem.Close()
	flaky := &flakyStore{Store: mem, n: 1, err: store.Retryable(stderrors.New("busy"))}

	rec, err := New(flaky).Tap(context.Background(), sam)
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.calls)
	assert.NotEmpty(t, rec.ID)
}
