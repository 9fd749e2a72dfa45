package report

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sawpanic/hedgeval/internal/compare"
	"github.com/sawpanic/hedgeval/internal/portfolio"
)

const (
	reportWidth     = 80
	maxWarnings     = 10
	maxStyledDates  = 20
	statusThreshold = compare.AcceptableRate
)

// Renderer turns a validation result into a human-readable report
type Renderer interface {
	Render(result *compare.ValidationResult) string
}

// Options controls report rendering
type Options struct {
	Verbose bool
	Styled  bool
}

// NewRenderer picks the styled or plain renderer once, at startup
func NewRenderer(opts Options) Renderer {
	if opts.Styled {
		return &StyledRenderer{Verbose: opts.Verbose}
	}
	return &PlainRenderer{Verbose: opts.Verbose}
}

// StyledCapable reports whether f is an interactive terminal that should get colors
func StyledCapable(f *os.File, noColor bool) bool {
	if noColor || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// PlainRenderer produces an uncolored fixed-width report
type PlainRenderer struct {
	Verbose bool
}

// Render builds the plain text report
func (p *PlainRenderer) Render(result *compare.ValidationResult) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	rule := strings.Repeat("=", reportWidth)

	add("%s", rule)
	add("%s", center("PORTFOLIO VALIDATION REPORT", reportWidth))
	add("%s", rule)
	add("")

	if len(result.CriticalErrors) > 0 {
		add("[CRITICAL ERRORS]")
		for _, e := range result.CriticalErrors {
			add("  ❌ %s", e)
		}
		add("")
	}

	if len(result.Warnings) > 0 {
		add("[WARNINGS]")
		for _, w := range limit(result.Warnings, maxWarnings) {
			add("  ⚠️  %s", w)
		}
		if extra := len(result.Warnings) - maxWarnings; extra > 0 {
			add("  ... and %d more warnings", extra)
		}
		add("")
	}

	if result.IsCritical() {
		add("❌ CRITICAL ERRORS DETECTED - Cannot proceed with comparison")
		return strings.Join(lines, "\n")
	}

	stats := result.Stats
	vs := stats.ValueStats

	add("[PORTFOLIO VALUE COMPARISON]")
	add("  Initial difference:     %12.6f", vs.InitialValueDiff)
	add("  Final difference:       %12.6f", vs.FinalValueDiff)
	add("  Mean absolute diff:     %12.6f", vs.MeanAbsoluteDiff)
	add("  Max absolute diff:      %12.6f", vs.MaxAbsoluteDiff)
	if vs.MaxDiffDate != nil {
		add("    (at %s)", vs.MaxDiffDate.Format(portfolio.DateLayout))
	}
	add("  Mean relative diff:     %11.3f%%", vs.MeanRelativeDiff)
	add("  Max relative diff:      %11.3f%%", vs.MaxRelativeDiff)
	if vs.MaxRelativeDiffDate != nil {
		add("    (at %s)", vs.MaxRelativeDiffDate.Format(portfolio.DateLayout))
	}
	add("  RMSE:                   %12.6f", vs.RMSE)
	add("")

	add("[PRICE COMPARISON]")
	rate := stats.PriceSuccessRate()
	add("  %s Passed: %d/%d dates (%.1f%%)", statusIcon(rate), stats.PricePassed, stats.TotalDates, rate*100)
	if len(result.PriceFailures) > 0 && !p.Verbose {
		add("  ❌ Failed: %d dates (use --verbose for details)", len(result.PriceFailures))
	}
	add("")

	add("[DELTA COMPARISON]")
	rate = stats.DeltaSuccessRate()
	add("  %s Passed: %d/%d deltas (%.1f%%)", statusIcon(rate), stats.DeltasPassed, stats.TotalDeltas, rate*100)
	if len(stats.DeltaFailuresByAsset) > 0 {
		add("  Failed by asset:")
		for _, asset := range stats.FailedAssets() {
			add("    Asset %d: %d failures", asset, stats.DeltaFailuresByAsset[asset])
		}
	}
	add("")

	if p.Verbose && (len(result.PriceFailures) > 0 || len(result.DeltaFailures) > 0) {
		add("[DETAILED FAILURES]")
		add("")

		dates, grouped := result.FailuresByDate()
		for _, date := range dates {
			add("Date: %s", date.Format(portfolio.DateLayout))
			for _, failure := range grouped[date] {
				add("  %s", failure)
			}
			add("")
		}
	}

	add("%s", rule)
	add("[SUMMARY]")
	overall := stats.OverallSuccessRate()
	add("Overall success rate: %.1f%%", overall*100)
	add("Recommendation: %s", recommendation(result.Verdict()))
	add("%s", rule)

	return strings.Join(lines, "\n")
}

func recommendation(v compare.Verdict) string {
	switch v {
	case compare.VerdictAcceptable:
		return "✅ ACCEPTABLE"
	case compare.VerdictReview:
		return "⚠️  REVIEW IMPLEMENTATION"
	default:
		return "❌ MAJOR ISSUES DETECTED"
	}
}

func statusIcon(rate float64) string {
	if rate >= statusThreshold {
		return "✅"
	}
	return "❌"
}

func center(s string, width int) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
