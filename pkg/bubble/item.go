package bubble

import "time"

// Item is the display form of a record for one render pass.
type Item struct {
	ID        string
	Timestamp time.Time
	Period    Period

	// Diameter is the unscaled palette diameter.
	Diameter float64
}

// Items derives display items from an ordered record snapshot. Periods are
// evaluated in loc.
func Items(records []Record, loc *time.Location) []Item {
	items := make([]Item, len(records))
	for i, r := range records {
		items[i] = Item{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Period:    PeriodOf(r.Timestamp, loc),
			Diameter:  BaseDiameter(r.Seq),
		}
	}
	return items
}
