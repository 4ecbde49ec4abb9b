package layout

import "math"

// Circle is a circle waiting to be placed.
type Circle struct {
	ID       string
	Diameter float64
}

// Placed is a circle with its final position. X and Y are the top-left of the
// bounding box; CenterX and CenterY the circle center.
type Placed struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Diameter float64 `json:"diameter"`
	CenterX  float64 `json:"cx"`
	CenterY  float64 `json:"cy"`
}

// At builds a Placed circle from its center.
func At(id string, cx, cy, diameter float64) Placed {
	r := diameter / 2
	return Placed{
		ID:       id,
		X:        cx - r,
		Y:        cy - r,
		Diameter: diameter,
		CenterX:  cx,
		CenterY:  cy,
	}
}

// Radius returns half the diameter.
func (p Placed) Radius() float64 { return p.Diameter / 2 }

// Distance returns the distance between the two centers.
func (p Placed) Distance(q Placed) float64 {
	return math.Hypot(p.CenterX-q.CenterX, p.CenterY-q.CenterY)
}

// Clearance returns the gap between the two circle edges. Negative values
// mean the circles intersect.
func (p Placed) Clearance(q Placed) float64 {
	return p.Distance(q) - p.Radius() - q.Radius()
}
