package layout

import (
	"math"
	"testing"
)

var palette = []float64{100, 78, 90, 66, 96, 72, 84, 60}

func paletteCircles(n int, scale float64) []Circle {
	circles := make([]Circle, n)
	for i := range circles {
		circles[i] = Circle{ID: string(rune('a' + i)), Diameter: palette[i%len(palette)] * scale}
	}
	return circles
}

func assertNoOverlap(t *testing.T, placed []Placed, gap float64) {
	t.Helper()
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			a, b := placed[i], placed[j]
			need := a.Radius() + b.Radius() + gap
			if d := a.Distance(b); d < need {
				t.Errorf("%s and %s overlap: distance %.3f < %.3f", a.ID, b.ID, d, need)
			}
		}
	}
}

func TestLayoutEmpty(t *testing.T) {
	res := Layout(nil, 900, 680)
	if len(res.Placed) != 0 {
		t.Errorf("Layout(nil) returned %d placements, want 0", len(res.Placed))
	}
	if res.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0", res.Fallbacks)
	}
}

func TestLayoutFirstAtBiasedCenter(t *testing.T) {
	res := Layout([]Circle{{ID: "a", Diameter: 100}}, 900, 680)

	p := res.Placed[0]
	if p.CenterX != 450 || p.CenterY != 340+CenterBias {
		t.Errorf("first center = (%v, %v), want (450, %v)", p.CenterX, p.CenterY, 340+CenterBias)
	}
	if p.X != 400 || p.Y != p.CenterY-50 {
		t.Errorf("bounding box origin = (%v, %v), want (400, %v)", p.X, p.Y, p.CenterY-50)
	}
	if p.Diameter != 100 {
		t.Errorf("Diameter = %v, want 100", p.Diameter)
	}
}

func TestLayoutBiasScales(t *testing.T) {
	res := Layout([]Circle{{ID: "a", Diameter: 50}}, 450, 340, WithScale(0.5))
	if got, want := res.Placed[0].CenterY, 170+CenterBias*0.5; got != want {
		t.Errorf("scaled anchor Y = %v, want %v", got, want)
	}
}

func TestLayoutTwoCircles(t *testing.T) {
	res := Layout([]Circle{{ID: "a", Diameter: 100}, {ID: "b", Diameter: 100}}, 900, 680)

	if len(res.Placed) != 2 {
		t.Fatalf("len(Placed) = %d, want 2", len(res.Placed))
	}
	if d := res.Placed[0].Distance(res.Placed[1]); d < 100+Gap {
		t.Errorf("center distance = %.3f, want >= %v", d, 100+Gap)
	}
	// Ring scan starts at the top, so the second circle sits above the first.
	if res.Placed[1].CenterY >= res.Placed[0].CenterY {
		t.Errorf("second circle should be above the first: %+v", res.Placed)
	}
}

func TestLayoutTwelveCircles(t *testing.T) {
	circles := paletteCircles(12, 1)
	res := Layout(circles, 900, 680)

	if len(res.Placed) != 12 {
		t.Fatalf("len(Placed) = %d, want 12", len(res.Placed))
	}
	if res.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0", res.Fallbacks)
	}
	assertNoOverlap(t, res.Placed, Gap)
}

func TestLayoutHalfSize(t *testing.T) {
	res := Layout(paletteCircles(12, 0.5), 450, 340, WithScale(0.5))

	if res.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0", res.Fallbacks)
	}
	assertNoOverlap(t, res.Placed, Gap)
}

func TestLayoutPreservesOrder(t *testing.T) {
	circles := paletteCircles(20, 1)
	res := Layout(circles, 900, 680)

	if len(res.Placed) != len(circles) {
		t.Fatalf("len(Placed) = %d, want %d", len(res.Placed), len(circles))
	}
	for i, p := range res.Placed {
		if p.ID != circles[i].ID {
			t.Errorf("Placed[%d].ID = %s, want %s", i, p.ID, circles[i].ID)
		}
		if p.Diameter != circles[i].Diameter {
			t.Errorf("Placed[%d].Diameter = %v, want %v", i, p.Diameter, circles[i].Diameter)
		}
	}
}

func TestLayoutDeterministic(t *testing.T) {
	circles := paletteCircles(16, 1)
	a := Layout(circles, 900, 680)
	b := Layout(circles, 900, 680)

	for i := range a.Placed {
		if a.Placed[i] != b.Placed[i] {
			t.Errorf("Placed[%d] differs: %+v vs %+v", i, a.Placed[i], b.Placed[i])
		}
	}
}

func TestLayoutEarlierItemsAreCentral(t *testing.T) {
	res := Layout(paletteCircles(12, 1), 900, 680)
	p := NewPacker(900, 680)
	ax, ay := p.Anchor()

	first := math.Hypot(res.Placed[1].CenterX-ax, res.Placed[1].CenterY-ay)
	last := math.Hypot(res.Placed[11].CenterX-ax, res.Placed[11].CenterY-ay)
	if last <= first {
		t.Errorf("last circle (%.1f) should be further out than the second (%.1f)", last, first)
	}
}

func TestLayoutFallbackNeverFails(t *testing.T) {
	circles := make([]Circle, 50)
	for i := range circles {
		circles[i] = Circle{ID: string(rune('A' + i)), Diameter: 100}
	}

	res := Layout(circles, 10, 10)
	if len(res.Placed) != len(circles) {
		t.Fatalf("len(Placed) = %d, want %d", len(res.Placed), len(circles))
	}
	if res.Fallbacks == 0 {
		t.Error("expected fallback placements on a tiny canvas")
	}
	for _, p := range res.Placed {
		if math.IsNaN(p.CenterX) || math.IsNaN(p.CenterY) {
			t.Errorf("placement %s has NaN coordinates", p.ID)
		}
	}
}

func TestLayoutDegenerateInput(t *testing.T) {
	res := Layout([]Circle{
		{ID: "zero", Diameter: 0},
		{ID: "neg", Diameter: -10},
		{ID: "nan", Diameter: math.NaN()},
	}, 0, -5)

	for _, p := range res.Placed {
		if p.Diameter != MinDiameter {
			t.Errorf("%s diameter = %v, want %v", p.ID, p.Diameter, MinDiameter)
		}
	}
	if res.Width != 1 || res.Height != 1 {
		t.Errorf("canvas = %vx%v, want 1x1", res.Width, res.Height)
	}
}

func TestPackerPinnedCirclesStay(t *testing.T) {
	first := Layout(paletteCircles(5, 1), 900, 680)

	p := NewPacker(900, 680)
	for _, pl := range first.Placed {
		p.Pin(pl)
	}
	added := p.Place(Circle{ID: "new", Diameter: 90})

	all := append(append([]Placed{}, first.Placed...), added)
	assertNoOverlap(t, all, Gap)

	if got := p.Placed(); len(got) != 6 || got[5].ID != "new" {
		t.Errorf("Placed() = %+v, want 5 pinned + new", got)
	}
	for i, pl := range p.Placed()[:5] {
		if pl != first.Placed[i] {
			t.Errorf("pinned circle %s moved", pl.ID)
		}
	}
}

func TestPackerFillsVacatedAnchor(t *testing.T) {
	p := NewPacker(900, 680)
	p.Pin(At("far", 100, 100, 60))
	got := p.Place(Circle{ID: "a", Diameter: 100})

	ax, ay := p.Anchor()
	if got.CenterX != ax || got.CenterY != ay {
		t.Errorf("free anchor should be reused, got (%v, %v)", got.CenterX, got.CenterY)
	}
}

func TestOptions(t *testing.T) {
	res := Layout(paletteCircles(8, 1), 900, 680, WithGap(12), WithRingStep(3), WithArcStep(6))
	assertNoOverlap(t, res.Placed, 12)

	// Invalid values keep the defaults.
	p := NewPacker(900, 680, WithRingStep(0), WithArcStep(-1), WithScale(0), WithGap(-3))
	if p.opts.ringStep != RingStep || p.opts.arcStep != ArcStep || p.opts.scale != 1 || p.opts.gap != 0 {
		t.Errorf("unexpected options: %+v", p.opts)
	}
}

func TestClearance(t *testing.T) {
	a := At("a", 0, 0, 10)
	b := At("b", 20, 0, 10)
	if got := a.Clearance(b); got != 10 {
		t.Errorf("Clearance() = %v, want 10", got)
	}
	if a.Radius() != 5 {
		t.Errorf("Radius() = %v, want 5", a.Radius())
	}
}

// sampleEvery places c by testing every ring sample in order, without
// skipping blocked arcs.
func sampleEvery(p *Packer, c Circle) Placed {
	d := c.Diameter
	if cand := At(c.ID, p.anchorX, p.anchorY, d); p.free(cand, p.placed) {
		p.placed = append(p.placed, cand)
		return cand
	}
	for ring := d/2 + p.opts.gap; ring <= p.maxRing(d); ring += p.opts.ringStep {
		n := max(MinSamples, int(math.Ceil(2*math.Pi*ring/p.opts.arcStep)))
		for k := 0; k < n; k++ {
			theta := -math.Pi/2 + 2*math.Pi*float64(k)/float64(n)
			cand := At(c.ID, p.anchorX+ring*math.Cos(theta), p.anchorY+ring*math.Sin(theta), d)
			if p.free(cand, p.placed) {
				p.placed = append(p.placed, cand)
				return cand
			}
		}
	}
	pl := p.fallback(c.ID, d)
	p.placed = append(p.placed, pl)
	return pl
}

func TestPackerMatchesExhaustiveScan(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		scale         float64
		width, height float64
	}{
		{"reference size", 24, 1, 900, 680},
		{"half size", 24, 0.5, 450, 340},
		{"narrow", 16, 0.4, 200, 680},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			circles := paletteCircles(tt.n, tt.scale)
			got := Layout(circles, tt.width, tt.height, WithScale(tt.scale))

			ref := NewPacker(tt.width, tt.height, WithScale(tt.scale))
			for i, c := range circles {
				want := sampleEvery(ref, c)
				g := got.Placed[i]
				if math.Abs(g.CenterX-want.CenterX) > 1e-9 || math.Abs(g.CenterY-want.CenterY) > 1e-9 {
					t.Fatalf("circle %d at (%.3f, %.3f), exhaustive scan gives (%.3f, %.3f)",
						i, g.CenterX, g.CenterY, want.CenterX, want.CenterY)
				}
			}
		})
	}
}

func TestLayoutLargeWindow(t *testing.T) {
	res := Layout(paletteCircles(120, 0.5), 900, 680, WithScale(0.5))
	if res.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0", res.Fallbacks)
	}
	assertNoOverlap(t, res.Placed, Gap)
}

func TestBlockedArc(t *testing.T) {
	// A circle straight above the anchor blocks the samples around k=0.
	a, all := blockedArc(100, 100, -math.Pi/2, 50, 40)
	if all {
		t.Fatal("a single neighbor should not block the whole ring")
	}
	if a.mid > 1e-9 && math.Abs(a.mid-40) > 1e-9 {
		t.Errorf("mid = %v, want 0", a.mid)
	}
	if next, ok := skip([]arc{a}, 0, 40); !ok || next <= 0 {
		t.Errorf("skip(0) = %d, %v; sample 0 should be blocked", next, ok)
	}
	if _, ok := skip([]arc{a}, 20, 40); ok {
		t.Error("the opposite sample should be free")
	}

	if _, all := blockedArc(10, 5, 0, 50, 12); !all {
		t.Error("a neighbor covering the anchor should block the whole ring")
	}
	if a, all := blockedArc(300, 10, 0, 50, 12); all || a.half != 0 {
		t.Errorf("a far ring should be untouched, got %+v %v", a, all)
	}
}

func BenchmarkLayout120(b *testing.B) {
	circles := paletteCircles(120, 0.5)
	for i := 0; i < b.N; i++ {
		Layout(circles, 900, 680, WithScale(0.5))
	}
}

func BenchmarkLayout40(b *testing.B) {
	circles := paletteCircles(40, 1)
	for i := 0; i < b.N; i++ {
		Layout(circles, 900, 680)
	}
}
