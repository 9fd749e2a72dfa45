package report

import (
	"time"

	"github.com/sawpanic/hedgeval/internal/compare"
	atomicio "github.com/sawpanic/hedgeval/internal/io"
	"github.com/sawpanic/hedgeval/internal/portfolio"
)

// Export is the machine-readable form of a validation result
type Export struct {
	Run                  RunExport        `json:"run"`
	Summary              SummaryExport    `json:"summary"`
	PortfolioValueStats  ValueStatsExport `json:"portfolio_value_stats"`
	CriticalErrors       []string         `json:"critical_errors"`
	Warnings             []string         `json:"warnings"`
	PriceFailures        []PriceFailure   `json:"price_failures"`
	DeltaFailures        []DeltaFailure   `json:"delta_failures"`
	DeltaFailuresByAsset map[string]int   `json:"delta_failures_by_asset"`
}

// RunExport identifies the run that produced an export
type RunExport struct {
	RunID      string  `json:"run_id"`
	OursPath   string  `json:"ours_path"`
	RefPath    string  `json:"ref_path"`
	Confidence float64 `json:"confidence"`
	Tolerance  float64 `json:"tolerance"`
	ZScore     float64 `json:"z_score"`
	StartedAt  string  `json:"started_at"`
	Verdict    string  `json:"verdict"`
	ExitCode   int     `json:"exit_code"`
}

// SummaryExport carries the check counts
type SummaryExport struct {
	TotalDates         int     `json:"total_dates"`
	PricePassed        int     `json:"price_passed"`
	PriceFailed        int     `json:"price_failed"`
	TotalDeltas        int     `json:"total_deltas"`
	DeltasPassed       int     `json:"deltas_passed"`
	DeltasFailed       int     `json:"deltas_failed"`
	OverallSuccessRate float64 `json:"overall_success_rate"`
	IsAcceptable       bool    `json:"is_acceptable"`
}

// ValueStatsExport carries portfolio value statistics with ISO dates
type ValueStatsExport struct {
	MeanAbsoluteDiff    float64 `json:"mean_absolute_diff"`
	MaxAbsoluteDiff     float64 `json:"max_absolute_diff"`
	MaxDiffDate         *string `json:"max_diff_date"`
	MeanRelativeDiff    float64 `json:"mean_relative_diff"`
	MaxRelativeDiff     float64 `json:"max_relative_diff"`
	MaxRelativeDiffDate *string `json:"max_relative_diff_date"`
	InitialValueDiff    float64 `json:"initial_value_diff"`
	FinalValueDiff      float64 `json:"final_value_diff"`
	RMSE                float64 `json:"rmse"`
}

// PriceFailure is one exported price check failure
type PriceFailure struct {
	Date       string  `json:"date"`
	OurValue   float64 `json:"our_value"`
	RefValue   float64 `json:"ref_value"`
	Difference float64 `json:"difference"`
	Tolerance  float64 `json:"tolerance"`
}

// DeltaFailure is one exported delta check failure
type DeltaFailure struct {
	Date       string  `json:"date"`
	Type       string  `json:"type"`
	OurValue   float64 `json:"our_value"`
	RefValue   float64 `json:"ref_value"`
	Difference float64 `json:"difference"`
	Tolerance  float64 `json:"tolerance"`
}

// BuildExport converts a result into its export form
func BuildExport(result *compare.ValidationResult, info RunInfo) Export {
	stats := result.Stats
	vs := stats.ValueStats

	export := Export{
		Run: RunExport{
			RunID:      info.RunID,
			OursPath:   info.OursPath,
			RefPath:    info.RefPath,
			Confidence: float64(info.Confidence),
			Tolerance:  info.Tolerance,
			ZScore:     info.ZScore,
			StartedAt:  info.StartedAt.Format(time.RFC3339),
			Verdict:    string(result.Verdict()),
			ExitCode:   result.ExitCode(),
		},
		Summary: SummaryExport{
			TotalDates:         stats.TotalDates,
			PricePassed:        stats.PricePassed,
			PriceFailed:        stats.PriceFailed,
			TotalDeltas:        stats.TotalDeltas,
			DeltasPassed:       stats.DeltasPassed,
			DeltasFailed:       stats.DeltasFailed,
			OverallSuccessRate: stats.OverallSuccessRate(),
			IsAcceptable:       result.IsAcceptable(),
		},
		PortfolioValueStats: ValueStatsExport{
			MeanAbsoluteDiff:    vs.MeanAbsoluteDiff,
			MaxAbsoluteDiff:     vs.MaxAbsoluteDiff,
			MaxDiffDate:         isoDate(vs.MaxDiffDate),
			MeanRelativeDiff:    vs.MeanRelativeDiff,
			MaxRelativeDiff:     vs.MaxRelativeDiff,
			MaxRelativeDiffDate: isoDate(vs.MaxRelativeDiffDate),
			InitialValueDiff:    vs.InitialValueDiff,
			FinalValueDiff:      vs.FinalValueDiff,
			RMSE:                vs.RMSE,
		},
		CriticalErrors:       append([]string{}, result.CriticalErrors...),
		Warnings:             append([]string{}, result.Warnings...),
		PriceFailures:        make([]PriceFailure, 0, len(result.PriceFailures)),
		DeltaFailures:        make([]DeltaFailure, 0, len(result.DeltaFailures)),
		DeltaFailuresByAsset: make(map[string]int, len(stats.DeltaFailuresByAsset)),
	}

	for _, f := range result.PriceFailures {
		export.PriceFailures = append(export.PriceFailures, PriceFailure{
			Date:       f.Date.Format(portfolio.DateLayout),
			OurValue:   f.OurValue,
			RefValue:   f.RefValue,
			Difference: f.Difference,
			Tolerance:  f.Tolerance,
		})
	}

	for _, f := range result.DeltaFailures {
		export.DeltaFailures = append(export.DeltaFailures, DeltaFailure{
			Date:       f.Date.Format(portfolio.DateLayout),
			Type:       f.Metric,
			OurValue:   f.OurValue,
			RefValue:   f.RefValue,
			Difference: f.Difference,
			Tolerance:  f.Tolerance,
		})
	}

	for _, asset := range stats.FailedAssets() {
		export.DeltaFailuresByAsset[compare.DeltaMetric(asset)] = stats.DeltaFailuresByAsset[asset]
	}

	return export
}

// WriteJSON exports the result as indented JSON, atomically
func WriteJSON(path string, result *compare.ValidationResult, info RunInfo) error {
	return atomicio.WriteJSONAtomic(path, BuildExport(result, info))
}

func isoDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(portfolio.DateLayout)
	return &s
}
