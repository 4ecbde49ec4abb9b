package bubble

import "time"

// Period buckets an hour of the day into a named time-of-day category.
type Period uint8

const (
	Night Period = iota
	Morning
	Afternoon
	Evening
)

// Periods lists every period in display order.
var Periods = []Period{Morning, Afternoon, Evening, Night}

// ColorPair is the fill and stroke color of a bubble.
type ColorPair struct {
	Fill   string
	Stroke string
}

var periodColors = map[Period]ColorPair{
	Morning:   {Fill: "#ffd59e", Stroke: "#f4a259"},
	Afternoon: {Fill: "#ffb3c1", Stroke: "#ff758f"},
	Evening:   {Fill: "#c3aed6", Stroke: "#8e7cc3"},
	Night:     {Fill: "#9bb7d4", Stroke: "#4a6fa5"},
}

// PeriodOf returns the period of t in loc. A nil loc uses t's own location.
func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc != nil {
		t = t.In(loc)
	}
	switch h := t.Hour(); {
	case h < 5:
		return Night
	case h < 12:
		return Morning
	case h < 17:
		return Afternoon
	case h < 21:
		return Evening
	default:
		return Night
	}
}

// String returns the lower-case period name used in CSS classes.
func (p Period) String() string {
	switch p {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case Evening:
		return "evening"
	default:
		return "night"
	}
}

// Colors returns the color pair for p.
func (p Period) Colors() ColorPair {
	if c, ok := periodColors[p]; ok {
		return c
	}
	return periodColors[Night]
}
