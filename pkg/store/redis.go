package store

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/observability"
)

// DefaultRedisPrefix namespaces keys when no prefix is configured.
const DefaultRedisPrefix = "thinkofyou:"

// Redis is a Store shared across server instances. Each owner has:
//   - <prefix>taps:<owner>: sorted set of ids scored by Unix milliseconds
//   - <prefix>ts:<owner>: hash of id to RFC 3339 timestamp
//   - <prefix>events:<owner>: pub/sub channel announcing changes
//
// Subscribers re-read the sorted set on each announcement.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// OpenRedis connects to the server at url and verifies it with a PING.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, unavailable("redis", err, "parse url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable("redis", err, "ping")
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client. Close closes the client.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, now: time.Now, done: make(chan struct{})}
}

func (r *Redis) setKey(owner string) string     { return r.prefix + "taps:" + owner }
func (r *Redis) hashKey(owner string) string    { return r.prefix + "ts:" + owner }
func (r *Redis) channelKey(owner string) string { return r.prefix + "events:" + owner }

// Append implements Store.
func (r *Redis) Append(ctx context.Context, owner string, ts time.Time) (rec bubble.Record, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnAppend(ctx, "redis", owner, time.Since(start), err)
	}()

	id, err := uuid.NewV7()
	if err != nil {
		return bubble.Record{}, err
	}
	rec = bubble.Record{ID: id.String(), Owner: owner, Timestamp: stamp(ts, r.now)}

	// The transaction is retried here with the same id. ZADD and HSET are
	// idempotent for it, so a lost EXEC reply cannot store the tap twice.
	// The final error is not retryable: a caller retry would mint a new id.
	err = RetryWithBackoff(ctx, func() error {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, r.setKey(owner), redis.Z{Score: float64(rec.Timestamp.UnixMilli()), Member: rec.ID})
			pipe.HSet(ctx, r.hashKey(owner), rec.ID, rec.Timestamp.Format(time.RFC3339Nano))
			pipe.Publish(ctx, r.channelKey(owner), rec.ID)
			return nil
		})
		return Retryable(err)
	})
	if err != nil {
		var re *RetryableError
		if stderrors.As(err, &re) {
			err = re.Err
		}
		return bubble.Record{}, unavailable("redis", err, "append")
	}

	if snap, err := r.List(ctx, owner); err == nil {
		for _, s := range snap {
			if s.ID == rec.ID {
				rec.Seq = s.Seq
			}
		}
	}
	return rec, nil
}

// List implements Store.
func (r *Redis) List(ctx context.Context, owner string) ([]bubble.Record, error) {
	ids, err := r.client.ZRange(ctx, r.setKey(owner), 0, -1).Result()
	if err != nil {
		return nil, Retryable(unavailable("redis", err, "list"))
	}
	if len(ids) == 0 {
		return nil, nil
	}
	stamps, err := r.client.HMGet(ctx, r.hashKey(owner), ids...).Result()
	if err != nil {
		return nil, Retryable(unavailable("redis", err, "list"))
	}

	out := make([]bubble.Record, 0, len(ids))
	for i, id := range ids {
		raw, ok := stamps[i].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			continue
		}
		out = append(out, bubble.Record{ID: id, Owner: owner, Timestamp: ts.UTC()})
	}
	return bubble.Sequence(out), nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, owner, id string) error {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, r.setKey(owner), id)
		pipe.HDel(ctx, r.hashKey(owner), id)
		return nil
	})
	if err != nil {
		return unavailable("redis", err, "delete")
	}
	if removed.Val() == 0 {
		return notFound(owner, id)
	}
	return r.client.Publish(ctx, r.channelKey(owner), id).Err()
}

// Subscribe implements Store. The channel subscription is confirmed before
// the initial snapshot is read so no change can fall between the two.
func (r *Redis) Subscribe(ctx context.Context, owner string) (<-chan []bubble.Record, error) {
	ps := r.client.Subscribe(ctx, r.channelKey(owner))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, unavailable("redis", err, "subscribe")
	}
	snap, err := r.List(ctx, owner)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}
	observability.Store().OnSnapshot(ctx, "redis", owner, len(snap))

	f := newFeed()
	f.offer(snap)
	go r.pump(ctx, owner, ps, f)
	return f.ch, nil
}

func (r *Redis) pump(ctx context.Context, owner string, ps *redis.PubSub, f *feed) {
	defer f.close()
	defer ps.Close()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case _, ok := <-msgs:
			if !ok {
				return
			}
			snap, err := r.List(ctx, owner)
			if err != nil {
				// Keep the last good snapshot; the next change retries.
				continue
			}
			observability.Store().OnSnapshot(ctx, "redis", owner, len(snap))
			f.offer(snap)
		}
	}
}

// Close ends all subscriptions and closes the client.
func (r *Redis) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.client.Close()
	})
	return err
}

// Ensure Redis implements Store.
var _ Store = (*Redis)(nil)
