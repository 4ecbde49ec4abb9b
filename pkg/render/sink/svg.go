package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/thinkofyou/pkg/scene"
)

const animationCSS = `
    .bubble { transition: transform 0.6s ease; }
    .bubble .disc { transform-origin: center; transform-box: fill-box; }
    .bubble.pop-in .disc { animation: pop-in 0.45s cubic-bezier(.2,1.4,.4,1) both; }
    @keyframes pop-in { from { transform: scale(0); opacity: 0; } to { transform: scale(1); opacity: 1; } }`

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title      string
	background string
	animate    bool
}

// WithTitle adds a <title> element.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithBackground fills the canvas with color.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithAnimation embeds the entrance stylesheet.
func WithAnimation() SVGOption { return func(r *svgRenderer) { r.animate = true } }

// RenderSVG renders the container's elements in insertion order.
func RenderSVG(c *scene.Container, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := c.Size()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)

	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	if r.animate {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", animationCSS)
	}
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(r.background))
	}

	fmt.Fprintf(&buf, `  <g id="%s">`+"\n", html.EscapeString(c.Name()))
	for _, e := range c.Elements() {
		renderElement(&buf, e)
	}
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderElement(buf *bytes.Buffer, e *scene.Element) {
	class := "bubble period-" + e.Period
	if e.Entered {
		class += " pop-in"
	}
	r := e.Size / 2
	fmt.Fprintf(buf, `    <g id="bubble-%s" class="%s" transform="translate(%.2f,%.2f)">`+"\n",
		html.EscapeString(e.Key), html.EscapeString(class), e.X, e.Y)
	fmt.Fprintf(buf, `      <circle class="disc" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
		r, r, r, html.EscapeString(e.Fill), html.EscapeString(e.Stroke))
	buf.WriteString("    </g>\n")
}
