package render

import (
	"github.com/matzehuels/thinkofyou/pkg/scene"
)

// Op describes the state of one element after a pass.
type Op struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Diameter float64 `json:"d"`
	CenterX  float64 `json:"cx"`
	CenterY  float64 `json:"cy"`
	Period   string  `json:"period"`
	Fill     string  `json:"fill"`
	Stroke   string  `json:"stroke"`
	Entered  bool    `json:"entered,omitempty"`
}

func opFor(e *scene.Element) Op {
	return Op{
		ID:       e.Key,
		X:        e.X,
		Y:        e.Y,
		Diameter: e.Size,
		CenterX:  e.CenterX(),
		CenterY:  e.CenterY(),
		Period:   e.Period,
		Fill:     e.Fill,
		Stroke:   e.Stroke,
		Entered:  e.Entered,
	}
}

// Diff is the change set produced by one pass.
type Diff struct {
	Container string  `json:"container"`
	Pass      int     `json:"pass"`
	Resize    bool    `json:"resize,omitempty"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`

	Created []Op     `json:"created,omitempty"`
	Updated []Op     `json:"updated,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Fallbacks counts new placements that could not guarantee clearance.
	Fallbacks int `json:"fallbacks,omitempty"`

	// Skipped is set when the container was detached and nothing ran.
	Skipped bool `json:"skipped,omitempty"`
}

// Empty reports whether the pass changed nothing.
func (d Diff) Empty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}
