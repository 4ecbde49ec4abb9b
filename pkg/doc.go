// Package pkg provides the core libraries for thinkofyou.
//
// # Overview
//
// Two people tap a button to say they are thinking of each other. Each sees
// the other's recent taps as a cluster of non-overlapping bubbles colored by
// the time of day. The pkg directory is organized into three areas:
//
//  1. Core: [layout] packs circles, [render] keeps a [scene] in sync with
//     successive snapshots, [bubble] derives display items from records
//  2. Infrastructure: [store], [cache], [notify], [config], [access]
//  3. Orchestration: [pipeline] (one-shot renders), [view] (live renders),
//     [tap] (recording taps)
//
// # Architecture
//
// The typical data flow:
//
//	store.Subscribe (ordered snapshot per change)
//	         ↓
//	    [bubble] package (recent window, periods, diameters)
//	         ↓
//	    [render] package (layout + reconcile the scene)
//	         ↓
//	    render.Diff → SSE stream, terminal view, or [render/sink] SVG/JSON
//
// # Quick Start
//
// Render a snapshot once:
//
//	import (
//	    "github.com/matzehuels/thinkofyou/pkg/bubble"
//	    "github.com/matzehuels/thinkofyou/pkg/render"
//	    "github.com/matzehuels/thinkofyou/pkg/render/sink"
//	    "github.com/matzehuels/thinkofyou/pkg/scene"
//	)
//
//	c := scene.NewContainer("alex", 900, 680)
//	render.New(c).Render(bubble.Items(records, time.Local))
//	svg := sink.RenderSVG(c)
//
// Follow a live subscription with a [view.View], which owns one renderer and
// coalesces resizes to one pass per frame.
//
// # Main Packages
//
// [layout] - Ring-scan circle packing. Earlier circles sit near a biased
// center, later ones spiral outward. Placement that cannot keep clearance
// falls back to a golden-angle position and is counted.
//
// [render] - Incremental renderer. Known elements keep their position, new
// ones are placed around them, and a resize re-lays out everything without
// replaying entrance animation.
//
// [store] - Owner-partitioned tap log with memory, SQLite, Redis and MongoDB
// backends. Every backend delivers full ordered snapshots to subscribers.
//
// [pipeline] - Cached one-shot renders used by the CLI and the SVG endpoint.
//
// [observability] - Hooks for render passes, store writes, cache traffic and
// HTTP requests.
package pkg
