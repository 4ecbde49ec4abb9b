package bubble

import "math"

// Reference design size. A container of exactly this size renders bubbles at
// their palette diameters.
const (
	ReferenceWidth  = 900.0
	ReferenceHeight = 680.0
)

// Scale factor bounds.
const (
	MinScale = 0.25
	MaxScale = 2.0
)

// Palette holds the base bubble diameters, cycled by arrival index.
var Palette = []float64{100, 78, 90, 66, 96, 72, 84, 60}

// BaseDiameter returns the palette diameter for arrival index seq. Negative
// indexes wrap around from the end.
func BaseDiameter(seq int) float64 {
	n := len(Palette)
	return Palette[(seq%n+n)%n]
}

// Scale returns the uniform diameter scale for a container of the given size
// relative to the reference design size, clamped to [MinScale, MaxScale].
func Scale(width, height float64) float64 {
	if width <= 0 || height <= 0 {
		return MinScale
	}
	s := math.Min(width/ReferenceWidth, height/ReferenceHeight)
	return math.Max(MinScale, math.Min(MaxScale, s))
}
