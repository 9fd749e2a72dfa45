package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawpanic/hedgeval/internal/compare"
	atomicio "github.com/sawpanic/hedgeval/internal/io"
	"github.com/sawpanic/hedgeval/internal/portfolio"
)

// maxMarkdownFailures caps the failure table so large runs stay readable
const maxMarkdownFailures = 50

// WriteMarkdown writes a markdown summary of the run
func WriteMarkdown(path string, result *compare.ValidationResult, info RunInfo) error {
	return atomicio.WriteFileAtomic(path, []byte(GenerateMarkdown(result, info)))
}

// GenerateMarkdown renders the run summary as markdown
func GenerateMarkdown(result *compare.ValidationResult, info RunInfo) string {
	var md strings.Builder
	stats := result.Stats

	md.WriteString("# Portfolio Validation Report\n\n")

	md.WriteString("## Executive Summary\n\n")
	md.WriteString(fmt.Sprintf("- **Run ID**: %s\n", info.RunID))
	md.WriteString(fmt.Sprintf("- **Ours**: %s\n", info.OursPath))
	md.WriteString(fmt.Sprintf("- **Reference**: %s\n", info.RefPath))
	md.WriteString(fmt.Sprintf("- **Confidence**: %s (z = %.3f)\n", info.Confidence, info.ZScore))
	md.WriteString(fmt.Sprintf("- **Tolerance Factor**: %.2f\n", info.Tolerance))
	md.WriteString(fmt.Sprintf("- **Verdict**: %s (exit %d)\n\n", result.Verdict(), result.ExitCode()))

	switch result.Verdict() {
	case compare.VerdictCritical:
		md.WriteString("🔴 **CRITICAL**: Structural errors prevented the comparison\n\n")
	case compare.VerdictFailed:
		md.WriteString("🔴 **MAJOR ISSUES**: Success rate below review threshold\n\n")
	case compare.VerdictReview:
		md.WriteString("🟡 **REVIEW**: Success rate below acceptance threshold\n\n")
	default:
		md.WriteString("✅ **ACCEPTABLE**: Portfolios agree within confidence intervals\n\n")
	}

	if len(result.CriticalErrors) > 0 {
		md.WriteString("## Critical Errors\n\n")
		for _, e := range result.CriticalErrors {
			md.WriteString(fmt.Sprintf("- %s\n", e))
		}
		md.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		md.WriteString("## Warnings\n\n")
		for _, w := range result.Warnings {
			md.WriteString(fmt.Sprintf("- %s\n", w))
		}
		md.WriteString("\n")
	}

	if result.IsCritical() {
		writeFooter(&md, info)
		return md.String()
	}

	md.WriteString("## Confidence Interval Checks\n\n")
	md.WriteString("| Check | Passed | Failed | Total | Success Rate |\n")
	md.WriteString("|-------|--------|--------|-------|--------------|\n")
	md.WriteString(fmt.Sprintf("| Price | %d | %d | %d | %.1f%% |\n",
		stats.PricePassed, stats.PriceFailed, stats.TotalDates, stats.PriceSuccessRate()*100))
	md.WriteString(fmt.Sprintf("| Deltas | %d | %d | %d | %.1f%% |\n",
		stats.DeltasPassed, stats.DeltasFailed, stats.TotalDeltas, stats.DeltaSuccessRate()*100))
	md.WriteString(fmt.Sprintf("\n**Overall Success Rate**: %.1f%%\n\n", stats.OverallSuccessRate()*100))

	vs := stats.ValueStats
	md.WriteString("## Portfolio Value Comparison\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Initial Difference | %.6f |\n", vs.InitialValueDiff))
	md.WriteString(fmt.Sprintf("| Final Difference | %.6f |\n", vs.FinalValueDiff))
	md.WriteString(fmt.Sprintf("| Mean Absolute Diff | %.6f |\n", vs.MeanAbsoluteDiff))
	md.WriteString(fmt.Sprintf("| Max Absolute Diff | %.6f%s |\n", vs.MaxAbsoluteDiff, atDate(vs.MaxDiffDate)))
	md.WriteString(fmt.Sprintf("| Mean Relative Diff | %.3f%% |\n", vs.MeanRelativeDiff))
	md.WriteString(fmt.Sprintf("| Max Relative Diff | %.3f%%%s |\n", vs.MaxRelativeDiff, atDate(vs.MaxRelativeDiffDate)))
	md.WriteString(fmt.Sprintf("| RMSE | %.6f |\n\n", vs.RMSE))

	if len(stats.DeltaFailuresByAsset) > 0 {
		md.WriteString("### Delta Failures by Asset\n\n")
		md.WriteString("| Asset | Failures |\n")
		md.WriteString("|-------|----------|\n")
		for _, asset := range stats.FailedAssets() {
			md.WriteString(fmt.Sprintf("| %d | %d |\n", asset, stats.DeltaFailuresByAsset[asset]))
		}
		md.WriteString("\n")
	}

	failures := result.Failures()
	if len(failures) > 0 {
		md.WriteString("## Failures\n\n")
		md.WriteString("| Date | Type | Ours | Ref | Diff | Tolerance |\n")
		md.WriteString("|------|------|------|-----|------|-----------|\n")
		for _, f := range limit(failures, maxMarkdownFailures) {
			md.WriteString(fmt.Sprintf("| %s | %s | %.6f ± %.6f | %.6f ± %.6f | %.6f | %.6f |\n",
				f.Date.Format(portfolio.DateLayout), f.Metric,
				f.OurValue, f.OurStdDev, f.RefValue, f.RefStdDev,
				f.Difference, f.Tolerance))
		}
		if extra := len(failures) - maxMarkdownFailures; extra > 0 {
			md.WriteString(fmt.Sprintf("\n*... and %d more failures*\n", extra))
		}
		md.WriteString("\n")
	}

	md.WriteString("## Methodology\n\n")
	md.WriteString("- **Tolerance**: `z * (our_stddev + ref_stddev) * tolerance_factor`\n")
	md.WriteString("- **Pass**: `|ours - ref| <= tolerance`\n")
	md.WriteString(fmt.Sprintf("- **Near-zero deltas**: both below %g always pass\n", compare.NearZeroDelta))
	md.WriteString(fmt.Sprintf("- **Acceptable**: overall success rate >= %.0f%%\n", compare.AcceptableRate*100))
	md.WriteString(fmt.Sprintf("- **Review**: overall success rate >= %.0f%%\n\n", compare.ReviewRate*100))

	writeFooter(&md, info)
	return md.String()
}

func writeFooter(md *strings.Builder, info RunInfo) {
	md.WriteString("---\n")
	md.WriteString(fmt.Sprintf("*Generated on %s by hedgeval*\n", info.StartedAt.Format("2006-01-02 15:04:05 UTC")))
}

func atDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return " (" + t.Format(portfolio.DateLayout) + ")"
}
