package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sawpanic/hedgeval/internal/compare"
	atomicio "github.com/sawpanic/hedgeval/internal/io"
)

// Workbook sheet names
const (
	SheetSummary       = "Summary"
	SheetPriceFailures = "Price Failures"
	SheetDeltaFailures = "Delta Failures"
)

// WriteXLSX exports the result as a workbook with summary and failure sheets
func WriteXLSX(path string, result *compare.ValidationResult, info RunInfo) error {
	f, err := buildWorkbook(BuildExport(result, info))
	if err != nil {
		return err
	}
	defer f.Close()

	return atomicio.WriteStreamAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
}

func buildWorkbook(export Export) (*excelize.File, error) {
	f := excelize.NewFile()

	// The default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}

	vs := export.PortfolioValueStats
	summary := [][]any{
		{"Field", "Value"},
		{"Run ID", export.Run.RunID},
		{"Ours", export.Run.OursPath},
		{"Reference", export.Run.RefPath},
		{"Confidence", export.Run.Confidence},
		{"Tolerance Factor", export.Run.Tolerance},
		{"Z Score", export.Run.ZScore},
		{"Verdict", export.Run.Verdict},
		{"Exit Code", export.Run.ExitCode},
		{"Total Dates", export.Summary.TotalDates},
		{"Price Passed", export.Summary.PricePassed},
		{"Price Failed", export.Summary.PriceFailed},
		{"Total Deltas", export.Summary.TotalDeltas},
		{"Deltas Passed", export.Summary.DeltasPassed},
		{"Deltas Failed", export.Summary.DeltasFailed},
		{"Overall Success Rate", export.Summary.OverallSuccessRate},
		{"Acceptable", export.Summary.IsAcceptable},
		{"Mean Absolute Diff", vs.MeanAbsoluteDiff},
		{"Max Absolute Diff", vs.MaxAbsoluteDiff},
		{"Max Diff Date", derefOr(vs.MaxDiffDate, "")},
		{"Mean Relative Diff %", vs.MeanRelativeDiff},
		{"Max Relative Diff %", vs.MaxRelativeDiff},
		{"Max Relative Diff Date", derefOr(vs.MaxRelativeDiffDate, "")},
		{"Initial Value Diff", vs.InitialValueDiff},
		{"Final Value Diff", vs.FinalValueDiff},
		{"RMSE", vs.RMSE},
		{"Critical Errors", len(export.CriticalErrors)},
		{"Warnings", len(export.Warnings)},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		f.Close()
		return nil, err
	}

	prices := [][]any{{"Date", "Our Value", "Ref Value", "Difference", "Tolerance"}}
	for _, p := range export.PriceFailures {
		prices = append(prices, []any{p.Date, p.OurValue, p.RefValue, p.Difference, p.Tolerance})
	}
	if err := addSheet(f, SheetPriceFailures, prices); err != nil {
		f.Close()
		return nil, err
	}

	deltas := [][]any{{"Date", "Type", "Our Value", "Ref Value", "Difference", "Tolerance"}}
	for _, d := range export.DeltaFailures {
		deltas = append(deltas, []any{d.Date, d.Type, d.OurValue, d.RefValue, d.Difference, d.Tolerance})
	}
	if err := addSheet(f, SheetDeltaFailures, deltas); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func addSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
