// Package tap records button presses.
//
// A tap is stored under the tapper's own owner stream and then announced
// through a notify.Publisher. Storage failures are retried when the
// backend marks them transient; notification failures are logged and
// otherwise ignored.
package tap

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkofyou/pkg/access"
	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/notify"
	"github.com/matzehuels/thinkofyou/pkg/store"
)

// Service records taps.
type Service struct {
	store  store.Store
	pub    notify.Publisher
	logger *log.Logger
	loc    *time.Location
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces taps through p.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLocation sets the zone used to name the tap's period.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// New creates a service writing to st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		pub:    notify.Nop{},
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tap records a tap for id at the current time.
func (s *Service) Tap(ctx context.Context, id access.Identity) (bubble.Record, error) {
	return s.TapAt(ctx, id, s.now())
}

// TapAt records a tap for id at ts.
func (s *Service) TapAt(ctx context.Context, id access.Identity, ts time.Time) (bubble.Record, error) {
	if err := errors.ValidateOwner(id.Owner); err != nil {
		return bubble.Record{}, err
	}

	var rec bubble.Record
	err := store.RetryWithBackoff(ctx, func() error {
		var err error
		rec, err = s.store.Append(ctx, id.Owner, ts)
		return err
	})
	if err != nil {
		s.logger.Error("tap failed", "owner", id.Owner, "error", err)
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeStoreUnavailable, err, "record tap for %s", id.Owner)
		}
		return bubble.Record{}, err
	}

	period := bubble.PeriodOf(rec.Timestamp, s.loc)
	s.logger.Info("tap", "owner", id.Owner, "id", rec.ID, "seq", rec.Seq, "period", period)

	ev := notify.Event{
		Type:      notify.EventTap,
		Owner:     id.Owner,
		Partner:   id.Partner,
		RecordID:  rec.ID,
		Timestamp: rec.Timestamp,
		Period:    period.String(),
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.Warn("tap notification failed", "owner", id.Owner, "id", rec.ID, "error", err)
	}
	return rec, nil
}
