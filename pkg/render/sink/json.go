package sink

import (
	"encoding/json"

	"github.com/matzehuels/thinkofyou/pkg/scene"
)

// Snapshot is the JSON form of a container.
type Snapshot struct {
	Container string          `json:"container"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Elements  []scene.Element `json:"elements"`
}

// RenderJSON serializes the container state.
func RenderJSON(c *scene.Container) ([]byte, error) {
	w, h := c.Size()
	snap := Snapshot{
		Container: c.Name(),
		Width:     w,
		Height:    h,
		Elements:  make([]scene.Element, 0, c.Len()),
	}
	for _, e := range c.Elements() {
		snap.Elements = append(snap.Elements, *e)
	}
	return json.MarshalIndent(snap, "", "  ")
}
