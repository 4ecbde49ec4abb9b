package layout

import "math"

const (
	// Gap is the minimum clearance between two circle edges.
	Gap = 5.0

	// RingStep is the radial distance between two scanned rings.
	RingStep = 2.0

	// ArcStep is the maximum arc length between two samples on a ring.
	ArcStep = 4.0

	// MinSamples is the minimum number of samples per ring.
	MinSamples = 12

	// CenterBias shifts the anchor vertically; negative is up. It is
	// multiplied by the scale option.
	CenterBias = -30.0

	// MinDiameter is the smallest diameter the packer accepts; smaller
	// values are raised to it.
	MinDiameter = 1.0

	// GoldenAngle in radians, used to spread fallback placements.
	GoldenAngle = 2.39996
)

// eps absorbs floating point error so that accepted candidates satisfy the
// clearance check exactly.
const eps = 1e-6

// Result is the output of [Layout].
type Result struct {
	// Placed has one entry per input circle, in input order.
	Placed []Placed

	// Fallbacks counts circles placed on the cap ring without a clearance
	// guarantee.
	Fallbacks int

	Width, Height float64
}

type options struct {
	gap      float64
	ringStep float64
	arcStep  float64
	scale    float64
}

// Option configures the packer.
type Option func(*options)

// WithGap overrides the minimum edge clearance.
func WithGap(g float64) Option { return func(o *options) { o.gap = math.Max(0, g) } }

// WithRingStep overrides the radial scan increment.
func WithRingStep(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.ringStep = s
		}
	}
}

// WithArcStep overrides the maximum sample spacing along a ring.
func WithArcStep(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.arcStep = s
		}
	}
}

// WithScale scales the vertical center bias, matching diameters that were
// scaled to the container size.
func WithScale(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.scale = s
		}
	}
}

// Layout places every circle in order and returns the placements.
func Layout(circles []Circle, width, height float64, opts ...Option) Result {
	p := NewPacker(width, height, opts...)
	placed := make([]Placed, len(circles))
	for i, c := range circles {
		placed[i] = p.Place(c)
	}
	return Result{
		Placed:    placed,
		Fallbacks: p.Fallbacks(),
		Width:     p.width,
		Height:    p.height,
	}
}
