package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/render"
)

// Terminal cells are mapped onto canvas units with this footprint, which
// keeps circles round on a typical 1:2 cell.
const (
	cellWidth  = 8.0
	cellHeight = 16.0

	// chromeRows is the number of lines around the canvas: title, help and
	// the legend table.
	chromeRows = 9
	minRows    = 4
	minCols    = 4
)

// List styles
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// BubbleModel - Live view of a partner's bubbles
// =============================================================================

// diffMsg carries one render pass into the program.
type diffMsg render.Diff

// resizer is the part of a view the model drives.
type resizer interface {
	Resize(width, height float64) error
}

// BubbleModel is the bubbletea model for the watch command. It mirrors the
// view's container from the diffs it receives.
type BubbleModel struct {
	Partner string
	Name    string

	view    resizer
	order   []string
	bubbles map[string]render.Op

	cols, rows int
	pass       int
	fallbacks  int
	err        error
}

// NewBubbleModel creates a model that resizes v when the terminal changes.
func NewBubbleModel(name, partner string, v resizer) BubbleModel {
	return BubbleModel{
		Partner: partner,
		Name:    name,
		view:    v,
		bubbles: make(map[string]render.Op),
		cols:    80,
		rows:    24 - chromeRows,
	}
}

// canvasSize converts a terminal size to canvas units.
func canvasSize(cols, rows int) (float64, float64) {
	return float64(cols) * cellWidth, float64(rows) * cellHeight
}

func (m BubbleModel) Init() tea.Cmd {
	return nil
}

func (m BubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, minCols)
		m.rows = max(msg.Height-chromeRows, minRows)
		if m.view != nil {
			m.err = m.view.Resize(canvasSize(m.cols, m.rows))
		}
	case diffMsg:
		m.apply(render.Diff(msg))
	}
	return m, nil
}

// apply folds a diff into the mirrored element set.
func (m *BubbleModel) apply(d render.Diff) {
	m.pass = d.Pass
	m.fallbacks = d.Fallbacks
	for _, id := range d.Removed {
		delete(m.bubbles, id)
	}
	for _, op := range d.Updated {
		m.bubbles[op.ID] = op
	}
	for _, op := range d.Created {
		m.bubbles[op.ID] = op
	}

	order := m.order[:0]
	seen := make(map[string]bool, len(m.bubbles))
	for _, id := range m.order {
		if _, ok := m.bubbles[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	for _, op := range d.Created {
		if !seen[op.ID] {
			order = append(order, op.ID)
			seen[op.ID] = true
		}
	}
	m.order = order
}

// Ops returns the mirrored elements in creation order.
func (m BubbleModel) Ops() []render.Op {
	ops := make([]render.Op, 0, len(m.order))
	for _, id := range m.order {
		ops = append(ops, m.bubbles[id])
	}
	return ops
}

func (m BubbleModel) View() string {
	var b strings.Builder

	title := m.Partner + "'s bubbles"
	if m.Name != "" {
		title = m.Partner + " is thinking of " + m.Name
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(StyleWarning.Render(m.err.Error()))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("q quit · pass %d", m.pass)))
	}
	b.WriteString("\n")

	ops := m.Ops()
	if len(ops) == 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("No taps from %s yet", m.Partner)))
		b.WriteString(strings.Repeat("\n", m.rows))
	} else {
		b.WriteString(drawBubbles(ops, m.cols, m.rows))
		b.WriteString("\n")
	}

	b.WriteString(legend(ops, m.fallbacks))
	return b.String()
}

// =============================================================================
// Drawing
// =============================================================================

// drawBubbles rasterizes ops onto a cols x rows cell grid. A cell is painted
// when its center lies inside a circle; cells near the rim use the stroke
// color.
func drawBubbles(ops []render.Op, cols, rows int) string {
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
	}

	for _, op := range ops {
		radius := op.Diameter / 2
		c0 := max(int((op.CenterX-radius)/cellWidth), 0)
		c1 := min(int(math.Ceil((op.CenterX+radius)/cellWidth)), cols-1)
		r0 := max(int((op.CenterY-radius)/cellHeight), 0)
		r1 := min(int(math.Ceil((op.CenterY+radius)/cellHeight)), rows-1)

		fill := lipgloss.NewStyle().Foreground(lipgloss.Color(op.Fill))
		stroke := lipgloss.NewStyle().Foreground(lipgloss.Color(op.Stroke))
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				x := (float64(c) + 0.5) * cellWidth
				y := (float64(r) + 0.5) * cellHeight
				d := math.Hypot(x-op.CenterX, y-op.CenterY)
				switch {
				case d > radius:
				case d > radius-cellWidth:
					grid[r][c] = stroke.Render("█")
				default:
					grid[r][c] = fill.Render("█")
				}
			}
		}
	}

	var b strings.Builder
	for r, row := range grid {
		for _, cell := range row {
			if cell == "" {
				cell = " "
			}
			b.WriteString(cell)
		}
		if r < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// legend renders a one-row table of tap counts per period.
func legend(ops []render.Op, fallbacks int) string {
	counts := make(map[string]int)
	for _, op := range ops {
		counts[op.Period]++
	}

	headers := make([]string, 0, len(bubble.Periods)+1)
	row := make([]string, 0, len(bubble.Periods)+1)
	for _, p := range bubble.Periods {
		headers = append(headers, p.String())
		row = append(row, strconv.Itoa(counts[p.String()]))
	}
	headers = append(headers, "total")
	row = append(row, strconv.Itoa(len(ops)))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(row).
		StyleFunc(func(r, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if col < len(bubble.Periods) {
				base = base.Foreground(lipgloss.Color(bubble.Periods[col].Colors().Stroke))
			}
			if r == -1 {
				return base.Bold(true)
			}
			return base
		})

	out := t.Render()
	if fallbacks > 0 {
		out += "\n" + StyleWarning.Render(fmt.Sprintf("%d bubbles placed without clearance", fallbacks))
	}
	return out
}
