package compare

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sawpanic/hedgeval/internal/portfolio"
)

// NearZeroValue is the reference magnitude at or below which relative differences are skipped
const NearZeroValue = 1e-10

// ComputeValueStats compares portfolio values over the common dates.
// commonDates must be sorted ascending and present in both indexes.
func ComputeValueStats(ours, ref *portfolio.Index, commonDates []time.Time) PortfolioValueStats {
	var stats PortfolioValueStats
	if len(commonDates) == 0 {
		return stats
	}

	absDiffs := make([]float64, 0, len(commonDates))
	relDiffs := make([]float64, 0, len(commonDates))

	for _, date := range commonDates {
		ourEntry, _ := ours.Get(date)
		refEntry, _ := ref.Get(date)

		absDiff := math.Abs(ourEntry.Value - refEntry.Value)
		absDiffs = append(absDiffs, absDiff)

		// strict comparison keeps the earliest date on ties
		if absDiff > stats.MaxAbsoluteDiff {
			stats.MaxAbsoluteDiff = absDiff
			stats.MaxDiffDate = datePtr(date)
		}

		if math.Abs(refEntry.Value) > NearZeroValue {
			relDiff := 100 * absDiff / math.Abs(refEntry.Value)
			relDiffs = append(relDiffs, relDiff)

			if relDiff > stats.MaxRelativeDiff {
				stats.MaxRelativeDiff = relDiff
				stats.MaxRelativeDiffDate = datePtr(date)
			}
		}
	}

	stats.MeanAbsoluteDiff = stat.Mean(absDiffs, nil)
	if len(relDiffs) > 0 {
		stats.MeanRelativeDiff = stat.Mean(relDiffs, nil)
	}

	squared := make([]float64, len(absDiffs))
	floats.MulTo(squared, absDiffs, absDiffs)
	stats.RMSE = math.Sqrt(stat.Mean(squared, nil))

	first, last := commonDates[0], commonDates[len(commonDates)-1]
	for _, date := range commonDates {
		if date.Before(first) {
			first = date
		}
		if date.After(last) {
			last = date
		}
	}
	stats.InitialValueDiff = valueDiff(ours, ref, first)
	stats.FinalValueDiff = valueDiff(ours, ref, last)

	return stats
}

func valueDiff(ours, ref *portfolio.Index, date time.Time) float64 {
	ourEntry, _ := ours.Get(date)
	refEntry, _ := ref.Get(date)
	return math.Abs(ourEntry.Value - refEntry.Value)
}

func datePtr(t time.Time) *time.Time {
	return &t
}
