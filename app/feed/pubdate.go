package feed

import "time"

// SyntheticPubDate returns the publication date of the i-th (zero-based)
// new article of the run started at now. Dates of a run are exactly one
// minute apart and grow in the order of discovery, so feed readers keep
// the discovery order and never see two items with the same date.
func SyntheticPubDate(now time.Time, i int, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	return now.Add(time.Duration(i) * time.Minute).
		In(loc).
		Format(time.RFC1123Z)
}
