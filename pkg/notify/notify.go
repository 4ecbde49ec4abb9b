// Package notify announces taps to systems outside the app.
//
// Notifications are best effort: a failed publish is logged by the caller
// and never undoes the stored tap.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/matzehuels/thinkofyou/pkg/errors"
)

// Event is the payload published for every tap.
type Event struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	Partner   string    `json:"partner,omitempty"`
	RecordID  string    `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
	Period    string    `json:"period"`
}

// EventTap is the Event.Type of a tap.
const EventTap = "tap"

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON messages keyed by owner, so one owner's
// taps stay ordered within a partition.
type Kafka struct {
	writer messageWriter
}

// NewKafka creates a publisher for topic on the comma-separated brokers.
func NewKafka(brokers, topic string) (*Kafka, error) {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "kafka: no topic configured")
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addrs...),
			Topic:                  topic,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}, nil
}

// Publish writes ev synchronously.
func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Owner),
		Value: data,
		Time:  ev.Timestamp,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "kafka: publish %s", ev.Type)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Open returns the publisher for kind ("none" or "kafka").
func Open(kind, brokers, topic string) (Publisher, error) {
	switch kind {
	case "", "none":
		return Nop{}, nil
	case "kafka":
		return NewKafka(brokers, topic)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown notify backend %q", kind)
	}
}

// Ensure implementations satisfy Publisher.
var (
	_ Publisher = Nop{}
	_ Publisher = (*Kafka)(nil)
)
