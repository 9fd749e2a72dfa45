package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sawpanic/hedgeval/internal/compare"
	"github.com/sawpanic/hedgeval/internal/portfolio"
)

var (
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleCyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// StyledRenderer produces a colored report with bordered tables
type StyledRenderer struct {
	Verbose bool
}

// Render builds the styled report
func (s *StyledRenderer) Render(result *compare.ValidationResult) string {
	var blocks []string

	blocks = append(blocks, stylePanel.BorderForeground(lipgloss.Color("39")).Render(
		styleTitle.Render("Portfolio Validation Report")))

	if len(result.CriticalErrors) > 0 {
		var lines []string
		for _, e := range result.CriticalErrors {
			lines = append(lines, styleRed.Render("❌ "+e))
		}
		blocks = append(blocks, panel("Critical Errors", "196", lines))
	}

	if len(result.Warnings) > 0 {
		var lines []string
		for _, w := range limit(result.Warnings, maxWarnings) {
			lines = append(lines, styleYellow.Render("⚠️  "+w))
		}
		if extra := len(result.Warnings) - maxWarnings; extra > 0 {
			lines = append(lines, styleDim.Render(fmt.Sprintf("... and %d more warnings", extra)))
		}
		blocks = append(blocks, panel("Warnings", "226", lines))
	}

	if result.IsCritical() {
		blocks = append(blocks, styleRed.Bold(true).Render("❌ CRITICAL ERRORS DETECTED - Cannot proceed with comparison"))
		return strings.Join(blocks, "\n\n")
	}

	stats := result.Stats
	blocks = append(blocks, valueTable(stats.ValueStats))
	blocks = append(blocks, checksTable(stats))

	if len(stats.DeltaFailuresByAsset) > 0 {
		t := newTable("Asset", "Failures")
		for _, asset := range stats.FailedAssets() {
			t.Row(strconv.Itoa(asset), strconv.Itoa(stats.DeltaFailuresByAsset[asset]))
		}
		blocks = append(blocks, styleTitle.Render("Delta Failures by Asset")+"\n"+t.String())
	}

	if s.Verbose && (len(result.PriceFailures) > 0 || len(result.DeltaFailures) > 0) {
		blocks = append(blocks, failuresTable(result))
	}

	blocks = append(blocks, summaryPanel(result))

	return strings.Join(blocks, "\n\n")
}

func panel(title, color string, lines []string) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(title)
	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, lines...)...)
	return stylePanel.BorderForeground(lipgloss.Color(color)).Render(body)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleCyan.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func valueTable(vs compare.PortfolioValueStats) string {
	t := newTable("Metric", "Value", "Date")
	t.Row("Initial Difference", fmt.Sprintf("%.6f", vs.InitialValueDiff), "")
	t.Row("Final Difference", fmt.Sprintf("%.6f", vs.FinalValueDiff), "")
	t.Row("Mean Absolute Diff", fmt.Sprintf("%.6f", vs.MeanAbsoluteDiff), "")
	t.Row("Max Absolute Diff", fmt.Sprintf("%.6f", vs.MaxAbsoluteDiff), formatDate(vs.MaxDiffDate))
	t.Row("Mean Relative Diff", fmt.Sprintf("%.3f%%", vs.MeanRelativeDiff), "")
	t.Row("Max Relative Diff", fmt.Sprintf("%.3f%%", vs.MaxRelativeDiff), formatDate(vs.MaxRelativeDiffDate))
	t.Row("RMSE", fmt.Sprintf("%.6f", vs.RMSE), "")
	return styleTitle.Render("Portfolio Value Comparison") + "\n" + t.String()
}

func checksTable(stats compare.ValidationStatistics) string {
	t := newTable("Check", "Passed", "Failed", "Total", "Success Rate")
	t.Row("Price",
		strconv.Itoa(stats.PricePassed),
		strconv.Itoa(stats.PriceFailed),
		strconv.Itoa(stats.TotalDates),
		rateCell(stats.PriceSuccessRate()))
	t.Row("Deltas",
		strconv.Itoa(stats.DeltasPassed),
		strconv.Itoa(stats.DeltasFailed),
		strconv.Itoa(stats.TotalDeltas),
		rateCell(stats.DeltaSuccessRate()))
	return styleTitle.Render("Confidence Interval Checks") + "\n" + t.String()
}

func failuresTable(result *compare.ValidationResult) string {
	dates, grouped := result.FailuresByDate()

	t := newTable("Date", "Type", "Ours", "Ref", "Diff", "Tolerance")
	for _, date := range limit(dates, maxStyledDates) {
		for _, f := range grouped[date] {
			t.Row(
				date.Format(portfolio.DateLayout),
				f.Metric,
				fmt.Sprintf("%.6f ± %.6f", f.OurValue, f.OurStdDev),
				fmt.Sprintf("%.6f ± %.6f", f.RefValue, f.RefStdDev),
				fmt.Sprintf("%.6f", f.Difference),
				fmt.Sprintf("%.6f", f.Tolerance),
			)
		}
	}

	out := styleTitle.Render("Detailed Failures") + "\n" + t.String()
	if extra := len(dates) - maxStyledDates; extra > 0 {
		out += "\n" + styleDim.Render(fmt.Sprintf("... and %d more dates with failures", extra))
	}
	return out
}

func summaryPanel(result *compare.ValidationResult) string {
	overall := result.Stats.OverallSuccessRate()

	var color string
	switch result.Verdict() {
	case compare.VerdictAcceptable:
		color = "42"
	case compare.VerdictReview:
		color = "226"
	default:
		color = "196"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)

	lines := []string{
		fmt.Sprintf("Overall success rate: %s", style.Render(fmt.Sprintf("%.1f%%", overall*100))),
		fmt.Sprintf("Recommendation: %s", style.Render(recommendation(result.Verdict()))),
	}
	return panel("Summary", color, lines)
}

func rateCell(rate float64) string {
	text := fmt.Sprintf("%.1f%%", rate*100)
	if rate >= statusThreshold {
		return styleGreen.Render(text)
	}
	return styleRed.Render(text)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(portfolio.DateLayout)
}
