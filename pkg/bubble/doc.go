// Package bubble defines the domain records of thinkofyou and the derivations
// that turn them into drawable bubbles.
//
// # Records
//
// A [Record] is one "thinking of you" tap: a stable ID, the owner who tapped,
// and the instant it happened. Records are immutable once written. Backends in
// [store] return them ordered by timestamp with [Record.Seq] set to the
// 0-based arrival index (see [Sequence]).
//
// # Items
//
// Every render pass turns the current record snapshot into display [Item]s:
//
//	items := bubble.Items(bubble.Recent(records, 40), time.Local)
//
// An item carries the record ID, its [Period] (time-of-day bucket that keys
// the bubble color) and its base diameter from the cyclic [Palette]. The
// renderer multiplies the base diameter by [Scale] so bubbles grow and shrink
// with the container.
//
// # Periods
//
//	night      00:00–04:59 and 21:00–23:59
//	morning    05:00–11:59
//	afternoon  12:00–16:59
//	evening    17:00–20:59
//
// [store]: github.com/matzehuels/thinkofyou/pkg/store
package bubble
