package bubble

import (
	"cmp"
	"slices"
	"time"
)

// Record is a single timestamped tap.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	Owner     string    `json:"owner" bson:"owner"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	// Seq is the 0-based arrival index within a snapshot. It is derived on
	// read and never persisted.
	Seq int `json:"seq" bson:"-"`
}

// Sequence sorts records by timestamp (ties broken by ID) and assigns Seq.
// The input slice is sorted in place and returned.
func Sequence(records []Record) []Record {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for i := range records {
		records[i].Seq = i
	}
	return records
}

// Recent returns the last limit records of an ordered snapshot, re-indexed so
// that Seq runs 0..n-1 over the window. A non-positive limit keeps everything.
// The returned slice never aliases the input.
func Recent(records []Record, limit int) []Record {
	start := 0
	if limit > 0 && len(records) > limit {
		start = len(records) - limit
	}
	out := make([]Record, len(records)-start)
	copy(out, records[start:])
	for i := range out {
		out[i].Seq = i
	}
	return out
}

// IDs returns the record IDs in order.
func IDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
