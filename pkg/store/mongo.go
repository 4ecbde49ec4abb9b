package store

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/observability"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "thinkofyou"

// Mongo is a Store backed by a MongoDB collection. Subscriptions use change
// streams, which require a replica set or sharded cluster.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// OpenMongo connects to uri and ensures the (owner, timestamp) index.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable("mongo", err, "connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, unavailable("mongo", err, "ping")
	}

	coll := client.Database(database).Collection("taps")
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, unavailable("mongo", err, "create index")
	}
	return &Mongo{client: client, coll: coll, now: time.Now, done: make(chan struct{})}, nil
}

// Append implements Store.
func (m *Mongo) Append(ctx context.Context, owner string, ts time.Time) (rec bubble.Record, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnAppend(ctx, "mongo", owner, time.Since(start), err)
	}()

	id, err := uuid.NewV7()
	if err != nil {
		return bubble.Record{}, err
	}
	// BSON dates carry millisecond precision.
	rec = bubble.Record{ID: id.String(), Owner: owner, Timestamp: stamp(ts, m.now).Truncate(time.Millisecond)}

	// Retried with the same _id; a duplicate key on a later attempt means an
	// earlier insert landed and only its reply was lost.
	attempt := 0
	err = RetryWithBackoff(ctx, func() error {
		attempt++
		_, err := m.coll.InsertOne(ctx, rec)
		if err != nil && attempt > 1 && mongo.IsDuplicateKeyError(err) {
			return nil
		}
		if err != nil {
			return m.classify(unavailable("mongo", err, "append"), err)
		}
		return nil
	})
	if err != nil {
		var re *RetryableError
		if stderrors.As(err, &re) {
			err = re.Err
		}
		return bubble.Record{}, err
	}
	n, err := m.coll.CountDocuments(ctx, bson.M{"owner": owner, "timestamp": bson.M{"$lt": rec.Timestamp}})
	if err == nil {
		rec.Seq = int(n)
	}
	return rec, nil
}

// List implements Store.
func (m *Mongo) List(ctx context.Context, owner string) ([]bubble.Record, error) {
	cur, err := m.coll.Find(ctx, bson.M{"owner": owner},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, m.classify(unavailable("mongo", err, "list"), err)
	}
	var out []bubble.Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, m.classify(unavailable("mongo", err, "decode"), err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return bubble.Sequence(out), nil
}

// Delete implements Store.
func (m *Mongo) Delete(ctx context.Context, owner, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return m.classify(unavailable("mongo", err, "delete"), err)
	}
	if res.DeletedCount == 0 {
		return notFound(owner, id)
	}
	return nil
}

// Subscribe implements Store. The change stream is opened before the
// initial snapshot is read. Delete events carry no owner, so every insert
// or delete triggers a re-read.
func (m *Mongo) Subscribe(ctx context.Context, owner string) (<-chan []bubble.Record, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "delete"}}}},
		}}},
	}
	stream, err := m.coll.Watch(ctx, pipeline)
	if err != nil {
		return nil, unavailable("mongo", err, "watch")
	}
	snap, err := m.List(ctx, owner)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}
	observability.Store().OnSnapshot(ctx, "mongo", owner, len(snap))

	f := newFeed()
	f.offer(snap)

	// The stream blocks in Next, so cancel it when the store closes.
	streamCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-m.done:
			cancel()
		case <-streamCtx.Done():
		}
	}()
	go func() {
		defer cancel()
		defer f.close()
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			snap, err := m.List(streamCtx, owner)
			if err != nil {
				continue
			}
			observability.Store().OnSnapshot(streamCtx, "mongo", owner, len(snap))
			f.offer(snap)
		}
	}()
	return f.ch, nil
}

// Close ends all subscriptions and disconnects.
func (m *Mongo) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = m.client.Disconnect(ctx)
	})
	return err
}

func (m *Mongo) classify(wrapped, cause error) error {
	if mongo.IsNetworkError(cause) || mongo.IsTimeout(cause) || stderrors.Is(cause, context.DeadlineExceeded) {
		return Retryable(wrapped)
	}
	return wrapped
}

// Ensure Mongo implements Store.
var _ Store = (*Mongo)(nil)
