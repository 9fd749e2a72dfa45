package portfolio

import (
	"sort"
	"time"
)

// Index is a date-keyed view over a series. Later entries win on duplicate dates.
type Index struct {
	entries map[time.Time]Entry
	dates   []time.Time
}

// NewIndex builds an index over the given series
func NewIndex(series Series) *Index {
	idx := &Index{
		entries: make(map[time.Time]Entry, len(series)),
	}

	for _, entry := range series {
		key := NormalizeDate(entry.Date)
		if _, exists := idx.entries[key]; !exists {
			idx.dates = append(idx.dates, key)
		}
		idx.entries[key] = entry
	}

	sort.Slice(idx.dates, func(i, j int) bool {
		return idx.dates[i].Before(idx.dates[j])
	})

	return idx
}

// Len returns the number of distinct dates
func (idx *Index) Len() int {
	return len(idx.dates)
}

// Get returns the entry recorded for date
func (idx *Index) Get(date time.Time) (Entry, bool) {
	entry, ok := idx.entries[NormalizeDate(date)]
	return entry, ok
}

// Has reports whether date is present
func (idx *Index) Has(date time.Time) bool {
	_, ok := idx.entries[NormalizeDate(date)]
	return ok
}

// Dates returns the distinct dates in ascending order
func (idx *Index) Dates() []time.Time {
	out := make([]time.Time, len(idx.dates))
	copy(out, idx.dates)
	return out
}

// Intersect returns the dates present in both indexes, ascending
func (idx *Index) Intersect(other *Index) []time.Time {
	common := make([]time.Time, 0, len(idx.dates))
	for _, date := range idx.dates {
		if other.Has(date) {
			common = append(common, date)
		}
	}
	return common
}

// Difference returns the dates present in idx but not in other, ascending
func (idx *Index) Difference(other *Index) []time.Time {
	var only []time.Time
	for _, date := range idx.dates {
		if !other.Has(date) {
			only = append(only, date)
		}
	}
	return only
}

// NormalizeDate strips monotonic clock readings and converts to UTC so that
// equal instants map to the same key.
func NormalizeDate(t time.Time) time.Time {
	return t.Round(0).UTC()
}
