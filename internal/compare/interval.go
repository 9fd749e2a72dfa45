package compare

import "math"

// IntervalCheck is the outcome of comparing two uncertain estimates
type IntervalCheck struct {
	Overlaps   bool
	Difference float64
	Tolerance  float64
}

// CheckConfidenceInterval treats each estimate as an interval of half-width
// zScore*stddev and reports whether the two intervals overlap.
func CheckConfidenceInterval(ourValue, refValue, ourStdDev, refStdDev, zScore float64) IntervalCheck {
	difference := math.Abs(ourValue - refValue)
	tolerance := zScore * (ourStdDev + refStdDev)

	return IntervalCheck{
		Overlaps:   difference <= tolerance,
		Difference: difference,
		Tolerance:  tolerance,
	}
}
