// Package view drives one live rendering of an owner's bubbles.
//
// A View owns a scene container and its renderer and runs them on a single
// goroutine (Run). Snapshots arrive from a store subscription; resize
// requests may come from any goroutine and are coalesced so the layout runs
// at most once per frame with the latest size. Each pass that changes
// something is handed to a Sink.
//
//	snapshots, _ := st.Subscribe(ctx, "alex")
//	v := view.New("alex", 900, 680, snapshots, func(d render.Diff) {
//	    send(d)
//	})
//	go v.Run(ctx)
//	v.Resize(450, 340)
package view

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/render"
	"github.com/matzehuels/thinkofyou/pkg/scene"
)

// FrameInterval bounds how often resize passes run.
const FrameInterval = 16 * time.Millisecond

// Sink receives the diff of every pass worth sending. It runs on the view
// goroutine and must not block for long.
type Sink func(render.Diff)

// Option configures a View.
type Option func(*View)

// WithLocation sets the zone periods are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(v *View) { v.loc = loc }
}

// WithLimit sets the size of the recent window. Non-positive keeps all.
func WithLimit(n int) Option {
	return func(v *View) { v.limit = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(v *View) { v.logger = l }
}

// WithRendererOptions passes options to the underlying renderer.
func WithRendererOptions(opts ...render.Option) Option {
	return func(v *View) { v.renderOpts = append(v.renderOpts, opts...) }
}

type size struct{ w, h float64 }

// View is a live rendering bound to one subscription.
type View struct {
	id        string
	owner     string
	snapshots <-chan []bubble.Record
	sink      Sink

	loc        *time.Location
	limit      int
	logger     *log.Logger
	renderOpts []render.Option

	container *scene.Container
	renderer  *render.Renderer

	mu      sync.Mutex
	pending *size
	kick    chan struct{}
	done    chan struct{}
}

// New creates a view of owner's snapshots at the given initial size.
func New(owner string, width, height float64, snapshots <-chan []bubble.Record, sink Sink, opts ...Option) *View {
	v := &View{
		id:        newID(),
		owner:     owner,
		snapshots: snapshots,
		sink:      sink,
		loc:       time.Local,
		limit:     40,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		kick:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.sink == nil {
		v.sink = func(render.Diff) {}
	}
	v.container = scene.NewContainer(owner, width, height)
	v.renderer = render.New(v.container, v.renderOpts...)
	return v
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ID returns the view's unique id.
func (v *View) ID() string { return v.id }

// Owner returns whose bubbles the view shows.
func (v *View) Owner() string { return v.owner }

// Done is closed when Run returns.
func (v *View) Done() <-chan struct{} { return v.done }

// Resize requests a re-layout at the new size. It never blocks; requests
// within one frame collapse to the last.
func (v *View) Resize(width, height float64) error {
	if err := errors.ValidateSize(width, height); err != nil {
		return err
	}
	select {
	case <-v.done:
		return errors.New(errors.ErrCodeNotFound, "view %s is closed", v.id)
	default:
	}

	v.mu.Lock()
	v.pending = &size{width, height}
	v.mu.Unlock()

	select {
	case v.kick <- struct{}{}:
	default:
	}
	return nil
}

// Run processes snapshots and resizes until ctx is done or the snapshot
// channel closes. The container is detached on return, so late work is a
// no-op.
func (v *View) Run(ctx context.Context) error {
	defer close(v.done)
	defer v.container.Detach()

	var (
		frame  *time.Timer
		frameC <-chan time.Time
	)
	defer func() {
		if frame != nil {
			frame.Stop()
		}
	}()

	v.logger.Debug("view started", "view", v.id, "owner", v.owner)
	for {
		select {
		case <-ctx.Done():
			v.logger.Debug("view stopped", "view", v.id, "reason", ctx.Err())
			return ctx.Err()

		case records, ok := <-v.snapshots:
			if !ok {
				v.logger.Debug("view stopped", "view", v.id, "reason", "subscription closed")
				return nil
			}
			v.emit(v.renderer.Render(bubble.Items(bubble.Recent(records, v.limit), v.loc)))

		case <-v.kick:
			if frameC == nil {
				frame = time.NewTimer(FrameInterval)
				frameC = frame.C
			}

		case <-frameC:
			frameC = nil
			v.mu.Lock()
			s := v.pending
			v.pending = nil
			v.mu.Unlock()
			if s != nil {
				v.emit(v.renderer.Resize(s.w, s.h))
			}
		}
	}
}

func (v *View) emit(d render.Diff) {
	if d.Skipped {
		return
	}
	if d.Pass > 1 && !d.Resize && d.Empty() {
		return
	}
	if d.Fallbacks > 0 {
		v.logger.Warn("bubbles placed without clearance", "view", v.id, "fallbacks", d.Fallbacks)
	}
	v.logger.Debug("pass",
		"view", v.id,
		"pass", d.Pass,
		"resize", d.Resize,
		"created", len(d.Created),
		"updated", len(d.Updated),
		"removed", len(d.Removed))
	v.sink(d)
}
