package compare

import (
	"fmt"
	"sort"
	"time"

	"github.com/sawpanic/hedgeval/internal/portfolio"
)

const (
	// AcceptableRate is the overall success rate at or above which a run passes
	AcceptableRate = 0.80
	// ReviewRate is the overall success rate at or above which a failing run is marginal
	ReviewRate = 0.50
)

// Exit codes consumed by the CLI
const (
	ExitAcceptable = 0
	ExitReview     = 2
	ExitFailure    = 3
)

// Verdict is the tri-level classification of a validation run
type Verdict string

const (
	VerdictAcceptable Verdict = "ACCEPTABLE"
	VerdictReview     Verdict = "REVIEW"
	VerdictFailed     Verdict = "FAILED"
	VerdictCritical   Verdict = "CRITICAL"
)

// ExitCode maps the verdict to the process exit status
func (v Verdict) ExitCode() int {
	switch v {
	case VerdictAcceptable:
		return ExitAcceptable
	case VerdictReview:
		return ExitReview
	default:
		return ExitFailure
	}
}

// PriceMetric labels price check failures
const PriceMetric = "Price"

// DeltaMetric labels the delta check failure for asset i
func DeltaMetric(asset int) string {
	return fmt.Sprintf("Delta[%d]", asset)
}

// ComparisonFailure records one check that fell outside its confidence interval
type ComparisonFailure struct {
	Date       time.Time `json:"date"`
	Metric     string    `json:"type"` // "Price" or "Delta[i]"
	Asset      int       `json:"-"`    // asset index for delta failures, -1 for price
	OurValue   float64   `json:"our_value"`
	RefValue   float64   `json:"ref_value"`
	OurStdDev  float64   `json:"our_stddev"`
	RefStdDev  float64   `json:"ref_stddev"`
	Difference float64   `json:"difference"`
	Tolerance  float64   `json:"tolerance"`
}

func (f ComparisonFailure) String() string {
	return fmt.Sprintf("%s | %-12s | Ours: %9.6f ± %.6f | Ref: %9.6f ± %.6f | Diff: %8.6f > Tol: %.6f",
		f.Date.Format(portfolio.DateLayout), f.Metric,
		f.OurValue, f.OurStdDev,
		f.RefValue, f.RefStdDev,
		f.Difference, f.Tolerance)
}

// PortfolioValueStats summarises how far the portfolio values drift apart
type PortfolioValueStats struct {
	MeanAbsoluteDiff    float64    `json:"mean_absolute_diff"`
	MaxAbsoluteDiff     float64    `json:"max_absolute_diff"`
	MaxDiffDate         *time.Time `json:"max_diff_date"`
	MeanRelativeDiff    float64    `json:"mean_relative_diff"` // percent
	MaxRelativeDiff     float64    `json:"max_relative_diff"`  // percent
	MaxRelativeDiffDate *time.Time `json:"max_relative_diff_date"`
	InitialValueDiff    float64    `json:"initial_value_diff"`
	FinalValueDiff      float64    `json:"final_value_diff"`
	RMSE                float64    `json:"rmse"`
}

// ValidationStatistics counts check outcomes across the common dates
type ValidationStatistics struct {
	TotalDates           int                 `json:"total_dates"`
	PricePassed          int                 `json:"price_passed"`
	PriceFailed          int                 `json:"price_failed"`
	TotalDeltas          int                 `json:"total_deltas"`
	DeltasPassed         int                 `json:"deltas_passed"`
	DeltasFailed         int                 `json:"deltas_failed"`
	DeltaFailuresByAsset map[int]int         `json:"delta_failures_by_asset"`
	ValueStats           PortfolioValueStats `json:"portfolio_value_stats"`
}

// NewValidationStatistics returns zeroed statistics
func NewValidationStatistics() ValidationStatistics {
	return ValidationStatistics{DeltaFailuresByAsset: make(map[int]int)}
}

// PriceSuccessRate is the share of dates whose price check passed
func (s ValidationStatistics) PriceSuccessRate() float64 {
	return rate(s.PricePassed, s.TotalDates)
}

// DeltaSuccessRate is the share of delta checks that passed
func (s ValidationStatistics) DeltaSuccessRate() float64 {
	return rate(s.DeltasPassed, s.TotalDeltas)
}

// OverallSuccessRate is the share of all price and delta checks that passed
func (s ValidationStatistics) OverallSuccessRate() float64 {
	return rate(s.PricePassed+s.DeltasPassed, s.TotalDates+s.TotalDeltas)
}

// TotalChecks is the number of price and delta checks performed
func (s ValidationStatistics) TotalChecks() int {
	return s.TotalDates + s.TotalDeltas
}

// FailedAssets returns the asset indexes with at least one delta failure, ascending
func (s ValidationStatistics) FailedAssets() []int {
	assets := make([]int, 0, len(s.DeltaFailuresByAsset))
	for asset := range s.DeltaFailuresByAsset {
		assets = append(assets, asset)
	}
	sort.Ints(assets)
	return assets
}

func rate(passed, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(passed) / float64(total)
}

// ValidationResult is the complete output of a comparison run
type ValidationResult struct {
	CriticalErrors []string             `json:"critical_errors"`
	Warnings       []string             `json:"warnings"`
	PriceFailures  []ComparisonFailure  `json:"price_failures"`
	DeltaFailures  []ComparisonFailure  `json:"delta_failures"`
	Stats          ValidationStatistics `json:"stats"`
}

// NewValidationResult returns an empty result ready to accumulate findings
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		CriticalErrors: make([]string, 0),
		Warnings:       make([]string, 0),
		PriceFailures:  make([]ComparisonFailure, 0),
		DeltaFailures:  make([]ComparisonFailure, 0),
		Stats:          NewValidationStatistics(),
	}
}

// AddCritical records a series-level error that prevents comparison
func (r *ValidationResult) AddCritical(format string, args ...any) {
	r.CriticalErrors = append(r.CriticalErrors, fmt.Sprintf(format, args...))
}

// AddWarning records a non-fatal anomaly
func (r *ValidationResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// IsCritical reports whether any critical error was recorded
func (r *ValidationResult) IsCritical() bool {
	return len(r.CriticalErrors) > 0
}

// IsAcceptable reports whether the run passes
func (r *ValidationResult) IsAcceptable() bool {
	return !r.IsCritical() && r.Stats.OverallSuccessRate() >= AcceptableRate
}

// Verdict classifies the run
func (r *ValidationResult) Verdict() Verdict {
	if r.IsCritical() {
		return VerdictCritical
	}

	overall := r.Stats.OverallSuccessRate()
	switch {
	case overall >= AcceptableRate:
		return VerdictAcceptable
	case overall >= ReviewRate:
		return VerdictReview
	default:
		return VerdictFailed
	}
}

// ExitCode maps the result to 0 (acceptable), 2 (review) or 3 (failure)
func (r *ValidationResult) ExitCode() int {
	return r.Verdict().ExitCode()
}

// Failures returns price and delta failures together
func (r *ValidationResult) Failures() []ComparisonFailure {
	all := make([]ComparisonFailure, 0, len(r.PriceFailures)+len(r.DeltaFailures))
	all = append(all, r.PriceFailures...)
	all = append(all, r.DeltaFailures...)
	return all
}

// FailuresByDate groups all failures by date; dates are returned ascending and
// failures within a date keep price-first order.
func (r *ValidationResult) FailuresByDate() ([]time.Time, map[time.Time][]ComparisonFailure) {
	grouped := make(map[time.Time][]ComparisonFailure)
	var dates []time.Time

	for _, failure := range r.Failures() {
		if _, exists := grouped[failure.Date]; !exists {
			dates = append(dates, failure.Date)
		}
		grouped[failure.Date] = append(grouped[failure.Date], failure)
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	return dates, grouped
}
