// Package layout packs circles into a canvas without overlap.
//
// # Algorithm
//
// Circles are placed one at a time in input order. The first free candidate
// is the anchor point, the canvas center shifted up by [CenterBias]. Later
// circles are found by a ring scan: concentric rings around the anchor,
// starting at the circle's own radius plus [Gap] and growing by [RingStep].
// Each ring is sampled every [ArcStep] units of arc, starting at the top and
// proceeding clockwise. The first sample that keeps at least [Gap] units of
// clearance to every circle already placed wins, so the output is fully
// deterministic for a given ordered input and canvas.
//
// Already placed circles are never moved. [Packer] exposes this directly:
// [Packer.Pin] adds a circle at a known position and [Packer.Place] searches
// a position for a new one. [Layout] is Place applied to every input circle.
//
// # Fallback
//
// The ring radius is capped (canvas diagonal plus the circle's diameter). A
// circle that finds no free sample below the cap is put on the cap ring at
// the golden angle and may overlap others. Layout never fails; the number of
// such placements is reported in [Result.Fallbacks]. Dense inputs that hit
// the cap trade visual correctness for availability.
//
// # Usage
//
//	res := layout.Layout([]layout.Circle{
//	    {ID: "a", Diameter: 100},
//	    {ID: "b", Diameter: 78},
//	}, 900, 680)
//	for _, p := range res.Placed {
//	    fmt.Println(p.ID, p.CenterX, p.CenterY)
//	}
package layout
