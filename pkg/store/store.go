// Package store persists taps and streams ordered snapshots to subscribers.
//
// Every backend implements [Store]. Subscriptions deliver the full ordered
// record set of one owner, first on subscribe and again after every change.
// Delivery is latest-wins: a slow reader skips intermediate snapshots and
// only ever sees the newest one.
//
// # Backends
//
//   - memory: process-local, lost on restart (the default)
//   - sqlite: a local database file (mattn/go-sqlite3)
//   - redis: a sorted set per owner plus a pub/sub channel (go-redis)
//   - mongo: a collection plus change streams (mongo-driver); requires a
//     replica set
//
// # Usage
//
//	s, err := store.Open(ctx, store.Options{Backend: "sqlite", Path: "taps.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	snapshots, err := s.Subscribe(ctx, "sam")
//	for records := range snapshots {
//	    // records are sorted by timestamp with Seq assigned
//	}
package store

import (
	"context"
	"time"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
)

// Store is an owner-partitioned, append-mostly log of taps.
type Store interface {
	// Append records a tap at ts (now if zero) and notifies subscribers.
	Append(ctx context.Context, owner string, ts time.Time) (bubble.Record, error)

	// List returns the owner's records sorted by timestamp with Seq set.
	List(ctx context.Context, owner string) ([]bubble.Record, error)

	// Delete removes a record. Unknown ids return ErrCodeNotFound.
	Delete(ctx context.Context, owner, id string) error

	// Subscribe streams ordered snapshots until ctx is done or the store
	// is closed, after which the channel is closed.
	Subscribe(ctx context.Context, owner string) (<-chan []bubble.Record, error)

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // memory, sqlite, redis, mongo
	Path     string // sqlite database file
	URL      string // redis:// or mongodb:// connection string
	Database string // mongo database name
	Prefix   string // redis key prefix
}

// Backends lists the accepted Options.Backend values.
var Backends = []string{"memory", "sqlite", "redis", "mongo"}

// Open opens the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(opts.Path)
	case "redis":
		return OpenRedis(ctx, opts.URL, opts.Prefix)
	case "mongo":
		return OpenMongo(ctx, opts.URL, opts.Database)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", opts.Backend)
	}
}

// stamp returns ts in UTC, or the current time when ts is zero.
func stamp(ts time.Time, now func() time.Time) time.Time {
	if ts.IsZero() {
		ts = now()
	}
	return ts.UTC()
}

func notFound(owner, id string) error {
	return errors.New(errors.ErrCodeNotFound, "no record %s for %s", id, owner)
}

func unavailable(backend string, err error, op string) error {
	return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "%s: %s", backend, op)
}
