package portfolio

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date format used in warnings, reports and exports
const DateLayout = "2006-01-02"

// Entry represents a single portfolio state at a given date
type Entry struct {
	Date         time.Time `json:"date"`
	Value        float64   `json:"value"`        // Portfolio total
	Price        float64   `json:"price"`        // Option price estimate
	PriceStdDev  float64   `json:"priceStdDev"`  // Uncertainty of Price
	Deltas       []float64 `json:"deltas"`       // Per-asset hedge ratios, index = asset id
	DeltasStdDev []float64 `json:"deltasStdDev"` // May be shorter than Deltas or empty
}

// AssetCount returns the number of deltas reported by the entry
func (e Entry) AssetCount() int {
	return len(e.Deltas)
}

// Series is an ordered-by-date collection of entries for one implementation
type Series []Entry

// Len returns the number of entries
func (s Series) Len() int { return len(s) }

// SortByDate orders the series chronologically, keeping the relative order of equal dates
func (s Series) SortByDate() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}

// Dates returns the distinct dates of the series in ascending order
func (s Series) Dates() []time.Time {
	return s.Index().Dates()
}

// Index builds the date lookup for the series
func (s Series) Index() *Index {
	return NewIndex(s)
}
