// Package sink serializes a rendered scene into output formats.
//
// # SVG Output
//
// [RenderSVG] writes a standalone SVG document with one group per element:
// an anchor <g> translated to the element's box and an inner <circle> that
// carries the period styling. Elements created in the latest pass carry the
// "pop-in" class so the embedded stylesheet can animate their entrance.
//
//	svg := sink.RenderSVG(container,
//	    sink.WithTitle("Thinking of you"),
//	    sink.WithAnimation(),
//	)
//
// # JSON Output
//
// [RenderJSON] writes the container as a snapshot document the browser can
// hydrate before it starts applying diffs.
package sink
