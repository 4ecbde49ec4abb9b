package render

import (
	"slices"
	"time"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/layout"
	"github.com/matzehuels/thinkofyou/pkg/observability"
	"github.com/matzehuels/thinkofyou/pkg/scene"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLayoutOptions passes options to every layout pass.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(r *Renderer) { r.layoutOpts = append(r.layoutOpts, opts...) }
}

// Renderer keeps one container in sync with successive snapshots.
type Renderer struct {
	container  *scene.Container
	known      map[string]struct{}
	last       []bubble.Item
	pass       int
	layoutOpts []layout.Option
}

// New creates a renderer that owns c.
func New(c *scene.Container, opts ...Option) *Renderer {
	r := &Renderer{
		container: c,
		known:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Container returns the owned container.
func (r *Renderer) Container() *scene.Container { return r.container }

// Known reports whether id already has an element.
func (r *Renderer) Known(id string) bool {
	_, ok := r.known[id]
	return ok
}

// Last returns the snapshot of the previous pass.
func (r *Renderer) Last() []bubble.Item { return slices.Clone(r.last) }

// Render reconciles the container with items. Known elements keep their
// position and size; new ones are placed around them.
func (r *Renderer) Render(items []bubble.Item) Diff {
	return r.run(items, false)
}

// Resize applies a new container size and re-lays out the last snapshot.
// No element is created for an id that is already known.
func (r *Renderer) Resize(width, height float64) Diff {
	if !r.container.Detached() {
		r.container.Resize(width, height)
	}
	return r.run(r.last, true)
}

func (r *Renderer) run(items []bubble.Item, resize bool) Diff {
	name := r.container.Name()
	if r.container.Detached() {
		observability.Render().OnSkip(name)
		return Diff{Container: name, Skipped: true}
	}

	start := time.Now()
	r.pass++
	width, height := r.container.Size()
	diff := Diff{
		Container: name,
		Pass:      r.pass,
		Resize:    resize,
		Width:     width,
		Height:    height,
	}

	for _, e := range r.container.Elements() {
		e.Entered = false
	}

	items = unique(items)
	current := make(map[string]struct{}, len(items))
	for _, it := range items {
		current[it.ID] = struct{}{}
	}
	for _, key := range r.container.Keys() {
		if _, ok := current[key]; ok {
			continue
		}
		r.container.Remove(key)
		delete(r.known, key)
		diff.Removed = append(diff.Removed, key)
	}
	// Known ids whose element vanished from under us are recreated.
	for id := range r.known {
		if _, ok := r.container.Get(id); !ok {
			delete(r.known, id)
		}
	}

	placed, fallbacks := r.place(items, width, height, resize)
	diff.Fallbacks = fallbacks

	for i, it := range items {
		p := placed[i]
		colors := it.Period.Colors()
		if e, ok := r.container.Get(it.ID); ok && r.Known(it.ID) {
			if r.update(e, p, it.Period.String(), colors) {
				diff.Updated = append(diff.Updated, opFor(e))
			}
			continue
		}
		e := &scene.Element{
			Key:     it.ID,
			X:       p.X,
			Y:       p.Y,
			Size:    p.Diameter,
			Period:  it.Period.String(),
			Fill:    colors.Fill,
			Stroke:  colors.Stroke,
			Entered: true,
		}
		r.container.Add(e)
		r.known[it.ID] = struct{}{}
		diff.Created = append(diff.Created, opFor(e))
	}

	r.last = slices.Clone(items)
	observability.Render().OnPass(name, observability.PassStats{
		Pass:      diff.Pass,
		Resize:    resize,
		Items:     len(items),
		Created:   len(diff.Created),
		Updated:   len(diff.Updated),
		Removed:   len(diff.Removed),
		Fallbacks: fallbacks,
		Duration:  time.Since(start),
	})
	return diff
}

// place computes one placement per item. On a normal pass known elements are
// pinned and only unknown items are searched; a resize pass lays out
// everything from scratch.
func (r *Renderer) place(items []bubble.Item, width, height float64, resize bool) ([]layout.Placed, int) {
	scale := bubble.Scale(width, height)
	opts := append([]layout.Option{layout.WithScale(scale)}, r.layoutOpts...)
	circle := func(it bubble.Item) layout.Circle {
		return layout.Circle{ID: it.ID, Diameter: it.Diameter * scale}
	}

	if resize {
		circles := make([]layout.Circle, len(items))
		for i, it := range items {
			circles[i] = circle(it)
		}
		res := layout.Layout(circles, width, height, opts...)
		return res.Placed, res.Fallbacks
	}

	packer := layout.NewPacker(width, height, opts...)
	placed := make([]layout.Placed, len(items))
	pinned := make([]bool, len(items))
	for i, it := range items {
		if e, ok := r.container.Get(it.ID); ok && r.Known(it.ID) {
			placed[i] = layout.Placed{
				ID: it.ID, X: e.X, Y: e.Y, Diameter: e.Size,
				CenterX: e.CenterX(), CenterY: e.CenterY(),
			}
			packer.Pin(placed[i])
			pinned[i] = true
		}
	}
	for i, it := range items {
		if !pinned[i] {
			placed[i] = packer.Place(circle(it))
		}
	}
	return placed, packer.Fallbacks()
}

// update applies p and the styling to e and reports whether anything changed.
func (r *Renderer) update(e *scene.Element, p layout.Placed, period string, colors bubble.ColorPair) bool {
	changed := e.X != p.X || e.Y != p.Y || e.Size != p.Diameter ||
		e.Period != period || e.Fill != colors.Fill || e.Stroke != colors.Stroke
	e.X, e.Y, e.Size = p.X, p.Y, p.Diameter
	e.Period, e.Fill, e.Stroke = period, colors.Fill, colors.Stroke
	return changed
}

// unique drops repeated ids, keeping the first occurrence.
func unique(items []bubble.Item) []bubble.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]bubble.Item, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
