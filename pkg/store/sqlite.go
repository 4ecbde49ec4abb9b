package store

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/observability"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a Store backed by a local SQLite database. Subscriptions are
// served in-process, so writers must go through the same *SQLite value.
type SQLite struct {
	db  *sql.DB
	hub *Hub
	now func() time.Time

	// mu serializes writes with snapshot publication.
	mu sync.Mutex
}

// OpenSQLite creates or opens the database at path and applies the schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &SQLite{db: db, hub: NewHub(), now: time.Now}, nil
}

// Append implements Store.
func (s *SQLite) Append(ctx context.Context, owner string, ts time.Time) (rec bubble.Record, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnAppend(ctx, "sqlite", owner, time.Since(start), err)
	}()

	id, err := uuid.NewV7()
	if err != nil {
		return bubble.Record{}, err
	}
	rec = bubble.Record{ID: id.String(), Owner: owner, Timestamp: stamp(ts, s.now)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO taps (id, owner, ts_nanos) VALUES (?, ?, ?)`,
		rec.ID, rec.Owner, rec.Timestamp.UnixNano(),
	); err != nil {
		return bubble.Record{}, classify(unavailable("sqlite", err, "append"), err)
	}

	snap, err := s.list(ctx, owner)
	if err != nil {
		return bubble.Record{}, err
	}
	s.hub.Publish(owner, snap)
	for _, r := range snap {
		if r.ID == rec.ID {
			rec.Seq = r.Seq
		}
	}
	return rec, nil
}

// List implements Store.
func (s *SQLite) List(ctx context.Context, owner string) ([]bubble.Record, error) {
	return s.list(ctx, owner)
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM taps WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return classify(unavailable("sqlite", err, "delete"), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(owner, id)
	}

	snap, err := s.list(ctx, owner)
	if err != nil {
		return err
	}
	s.hub.Publish(owner, snap)
	return nil
}

// Subscribe implements Store.
func (s *SQLite) Subscribe(ctx context.Context, owner string) (<-chan []bubble.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.list(ctx, owner)
	if err != nil {
		return nil, err
	}
	observability.Store().OnSnapshot(ctx, "sqlite", owner, len(snap))
	return s.hub.Subscribe(ctx, owner, snap), nil
}

// Close ends all subscriptions and closes the database.
func (s *SQLite) Close() error {
	s.hub.Close()
	return s.db.Close()
}

func (s *SQLite) list(ctx context.Context, owner string) ([]bubble.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts_nanos FROM taps WHERE owner = ? ORDER BY ts_nanos, id`, owner)
	if err != nil {
		return nil, classify(unavailable("sqlite", err, "list"), err)
	}
	defer rows.Close()

	var out []bubble.Record
	for rows.Next() {
		var (
			id    string
			nanos int64
		)
		if err := rows.Scan(&id, &nanos); err != nil {
			return nil, unavailable("sqlite", err, "scan")
		}
		out = append(out, bubble.Record{ID: id, Owner: owner, Timestamp: time.Unix(0, nanos).UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("sqlite", err, "list")
	}
	return bubble.Sequence(out), nil
}

// classify marks lock contention as retryable.
func classify(wrapped, cause error) error {
	var se sqlite3.Error
	if stderrors.As(cause, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return Retryable(wrapped)
	}
	return wrapped
}

// Ensure SQLite implements Store.
var _ Store = (*SQLite)(nil)
