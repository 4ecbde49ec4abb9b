// Package render reconciles bubble snapshots into a persistent scene.
//
// # Overview
//
// The event source delivers the entire current snapshot on every change,
// never a diff. A [Renderer] turns each snapshot into the minimal set of
// changes to its [scene.Container]:
//
//   - elements whose key left the snapshot are removed
//   - elements whose key is already known are updated in place
//   - unseen keys get a new element marked for the entrance treatment
//
// The result of a pass is a [Diff] that a view ships to its client. Diffs of
// unchanged snapshots are empty, so repeated identical renders neither create
// nor remove anything, and entrance animations are never replayed.
//
// # Stability
//
// A normal pass pins every known element where it already is and only lays
// out the new ones around them, so bubbles never jump when data arrives.
// [Renderer.Resize] is the one pass that re-lays out everything, using the
// cached last snapshot and a diameter scale derived from the new size.
//
// # Usage
//
//	c := scene.NewContainer("partner", 900, 680)
//	r := render.New(c)
//	diff := r.Render(bubble.Items(records, time.Local))
//	// later
//	diff = r.Resize(450, 340)
//
// One renderer owns one container and its known-id set. Neither is safe for
// concurrent use.
//
// [scene.Container]: github.com/matzehuels/thinkofyou/pkg/scene.Container
package render
