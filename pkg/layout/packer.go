package layout

import "math"

// Packer accumulates the placements of one layout pass. It is not safe for
// concurrent use.
type Packer struct {
	width, height    float64
	anchorX, anchorY float64
	opts             options

	placed    []Placed
	fallbacks int
}

// NewPacker creates a packer for a canvas. Non-positive dimensions are
// treated as 1.
func NewPacker(width, height float64, opts ...Option) *Packer {
	o := options{gap: Gap, ringStep: RingStep, arcStep: ArcStep, scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	width, height = math.Max(width, 1), math.Max(height, 1)
	return &Packer{
		width:   width,
		height:  height,
		anchorX: width / 2,
		anchorY: height/2 + CenterBias*o.scale,
		opts:    o,
	}
}

// Anchor returns the point the cluster grows around.
func (p *Packer) Anchor() (x, y float64) { return p.anchorX, p.anchorY }

// Pin records an existing placement without searching. Later placements
// keep clear of it.
func (p *Packer) Pin(pl Placed) {
	p.placed = append(p.placed, pl)
}

// Placed returns every pinned or placed circle so far.
func (p *Packer) Placed() []Placed { return p.placed }

// Fallbacks returns how many circles were placed without a clearance
// guarantee.
func (p *Packer) Fallbacks() int { return p.fallbacks }

// Place finds the first free position for c in scan order and records it.
func (p *Packer) Place(c Circle) Placed {
	d := c.Diameter
	if !(d >= MinDiameter) || math.IsInf(d, 1) { // also catches NaN
		d = MinDiameter
	}
	pl, ok := p.scan(c.ID, d)
	if !ok {
		pl = p.fallback(c.ID, d)
		p.fallbacks++
	}
	p.placed = append(p.placed, pl)
	return pl
}

func (p *Packer) scan(id string, d float64) (Placed, bool) {
	if cand := At(id, p.anchorX, p.anchorY, d); p.free(cand, p.placed) {
		return cand, true
	}

	// Polar position of every placed center around the anchor.
	dist := make([]float64, len(p.placed))
	phi := make([]float64, len(p.placed))
	for i, o := range p.placed {
		dx, dy := o.CenterX-p.anchorX, o.CenterY-p.anchorY
		dist[i] = math.Hypot(dx, dy)
		phi[i] = math.Atan2(dy, dx)
	}

	r := d / 2
	start := r + p.opts.gap
	limit := p.maxRing(d)
	near := make([]Placed, 0, len(p.placed))
	arcs := make([]arc, 0, len(p.placed))
	for i := 0; ; i++ {
		ring := start + float64(i)*p.opts.ringStep
		if ring > limit {
			return Placed{}, false
		}
		n := max(MinSamples, int(math.Ceil(2*math.Pi*ring/p.opts.arcStep)))

		near, arcs = near[:0], arcs[:0]
		full := false
		for j, o := range p.placed {
			reach := r + o.Radius() + p.opts.gap + eps
			if math.Abs(dist[j]-ring) >= reach+p.opts.ringStep {
				continue
			}
			near = append(near, o)
			a, blocksAll := blockedArc(ring, dist[j], phi[j], reach, n)
			if blocksAll {
				full = true
				break
			}
			if a.half > 0 {
				arcs = append(arcs, a)
			}
		}
		if full {
			continue
		}

		for k := 0; k < n; {
			if next, ok := skip(arcs, k, n); ok {
				k = next
				continue
			}
			theta := -math.Pi/2 + 2*math.Pi*float64(k)/float64(n)
			cand := At(id, p.anchorX+ring*math.Cos(theta), p.anchorY+ring*math.Sin(theta), d)
			if p.free(cand, near) {
				return cand, true
			}
			k++
		}
	}
}

// arc is the run of ring samples one placed circle rules out, in sample
// index units: every k with |k - mid| < half (mod n) is too close.
type arc struct{ mid, half float64 }

// blockedArc returns the samples of a ring of radius ring that fall within
// reach of a circle centered at polar (dist, phi). blocksAll reports that the
// whole ring is covered.
func blockedArc(ring, dist, phi, reach float64, n int) (a arc, blocksAll bool) {
	if dist < eps {
		return arc{}, ring < reach
	}
	c := (ring*ring + dist*dist - reach*reach) / (2 * ring * dist)
	switch {
	case c <= -1:
		return arc{}, true
	case c >= 1:
		return arc{}, false
	}
	perSample := 2 * math.Pi / float64(n)
	mid := math.Mod((phi+math.Pi/2)/perSample, float64(n))
	if mid < 0 {
		mid += float64(n)
	}
	half := math.Acos(c) / perSample
	if 2*half >= float64(n) {
		return arc{}, true
	}
	return arc{mid: mid, half: half}, false
}

// skip reports whether sample k lies inside a blocked arc and, if so, the
// first sample past it.
func skip(arcs []arc, k, n int) (int, bool) {
	fk := float64(k)
	for _, a := range arcs {
		for _, shift := range [...]float64{-float64(n), 0, float64(n)} {
			lo, hi := a.mid+shift-a.half, a.mid+shift+a.half
			if fk > lo && fk < hi {
				return max(k+1, int(math.Floor(hi))+1), true
			}
		}
	}
	return 0, false
}

func (p *Packer) free(cand Placed, others []Placed) bool {
	for _, o := range others {
		if cand.Clearance(o) < p.opts.gap+eps {
			return false
		}
	}
	return true
}

func (p *Packer) maxRing(d float64) float64 {
	return math.Hypot(p.width, p.height) + d
}

func (p *Packer) fallback(id string, d float64) Placed {
	ring := p.maxRing(d)
	theta := GoldenAngle * float64(len(p.placed))
	return At(id, p.anchorX+ring*math.Cos(theta), p.anchorY+ring*math.Sin(theta), d)
}
