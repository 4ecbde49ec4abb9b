package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/thinkofyou/pkg/render"
)

type fakeView struct {
	sizes [][2]float64
}

func (f *fakeView) Resize(w, h float64) error {
	f.sizes = append(f.sizes, [2]float64{w, h})
	return nil
}

func op(id string, cx, cy, d float64) render.Op {
	return render.Op{
		ID: id, Diameter: d, CenterX: cx, CenterY: cy,
		X: cx - d/2, Y: cy - d/2,
		Period: "morning", Fill: "#ffd59e", Stroke: "#f4a259",
	}
}

func update(t *testing.T, m BubbleModel, msg tea.Msg) BubbleModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(BubbleModel)
}

func ids(ops []render.Op) string {
	var parts []string
	for _, o := range ops {
		parts = append(parts, o.ID)
	}
	return strings.Join(parts, ",")
}

func TestBubbleModelApply(t *testing.T) {
	m := NewBubbleModel("Sam", "alex", nil)

	m = update(t, m, diffMsg(render.Diff{Pass: 1, Created: []render.Op{op("a", 40, 40, 32), op("b", 90, 40, 24)}}))
	if got := ids(m.Ops()); got != "a,b" {
		t.Fatalf("after create: %s", got)
	}

	m = update(t, m, diffMsg(render.Diff{Pass: 2, Created: []render.Op{op("c", 140, 40, 16)}, Removed: []string{"a"}}))
	if got := ids(m.Ops()); got != "b,c" {
		t.Fatalf("after remove: %s", got)
	}

	moved := op("b", 60, 60, 12)
	m = update(t, m, diffMsg(render.Diff{Pass: 3, Resize: true, Updated: []render.Op{moved}}))
	ops := m.Ops()
	if ids(ops) != "b,c" {
		t.Fatalf("update should keep order: %s", ids(ops))
	}
	if ops[0].CenterX != 60 || ops[0].Diameter != 12 {
		t.Errorf("update not applied: %+v", ops[0])
	}
}

func TestBubbleModelResize(t *testing.T) {
	v := &fakeView{}
	m := NewBubbleModel("", "alex", v)

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if len(v.sizes) != 1 {
		t.Fatalf("Resize calls = %d, want 1", len(v.sizes))
	}
	wantW, wantH := canvasSize(100, 40-chromeRows)
	if v.sizes[0] != [2]float64{wantW, wantH} {
		t.Errorf("Resize(%v), want (%v, %v)", v.sizes[0], wantW, wantH)
	}

	// Tiny terminals clamp to a minimal canvas.
	update(t, m, tea.WindowSizeMsg{Width: 1, Height: 2})
	wantW, wantH = canvasSize(minCols, minRows)
	if v.sizes[1] != [2]float64{wantW, wantH} {
		t.Errorf("Resize(%v), want (%v, %v)", v.sizes[1], wantW, wantH)
	}
}

func TestBubbleModelQuit(t *testing.T) {
	m := NewBubbleModel("", "alex", nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestBubbleModelView(t *testing.T) {
	m := NewBubbleModel("Sam", "alex", nil)
	if out := m.View(); !strings.Contains(out, "No taps from alex yet") {
		t.Errorf("empty view should say so:\n%s", out)
	}

	m = update(t, m, diffMsg(render.Diff{Pass: 1, Created: []render.Op{op("a", 40, 40, 32)}}))
	out := m.View()
	if !strings.Contains(out, "alex is thinking of Sam") {
		t.Errorf("view missing title:\n%s", out)
	}
	if !strings.Contains(out, "█") {
		t.Errorf("view should draw the bubble:\n%s", out)
	}
	if !strings.Contains(out, "morning") {
		t.Errorf("view should show the legend:\n%s", out)
	}
}

func TestDrawBubbles(t *testing.T) {
	out := drawBubbles([]render.Op{op("a", 40, 40, 48)}, 10, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 5", len(lines))
	}
	if !strings.Contains(lines[2], "█") {
		t.Errorf("the row through the center should be painted:\n%s", out)
	}
	if strings.Contains(lines[4], "█") {
		t.Errorf("the row below the bubble should be blank:\n%s", out)
	}
}

func TestDrawBubblesClipsOutside(t *testing.T) {
	out := drawBubbles([]render.Op{op("a", -100, -100, 20)}, 4, 2)
	if strings.Contains(out, "█") {
		t.Errorf("bubbles outside the grid should not be drawn:\n%s", out)
	}
}

func TestLegendCounts(t *testing.T) {
	ops := []render.Op{op("a", 0, 0, 1), op("b", 0, 0, 1)}
	ops[1].Period = "night"
	out := legend(ops, 1)
	for _, want := range []string{"morning", "night", "total", "2", "without clearance"} {
		if !strings.Contains(out, want) {
			t.Errorf("legend missing %q:\n%s", want, out)
		}
	}
}
