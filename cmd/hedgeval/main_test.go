package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/hedgeval/internal/compare"
)

const oursJSON = `[
  {"date": "2024-01-01T00:00:00", "value": 100.0, "price": 10.0, "priceStdDev": 0.0, "deltas": [0.5, 0.2], "deltasStdDev": [0.0, 0.0]},
  {"date": "2024-01-02T00:00:00", "value": 101.0, "price": 10.0, "priceStdDev": 0.0, "deltas": [0.5, 0.2], "deltasStdDev": [0.0, 0.0]}
]`

// same first day, price and second delta off on day two: 4/6 checks pass
const refReviewJSON = `[
  {"date": "2024-01-01", "value": 100.0, "price": 10.0, "priceStdDev": 0.0, "deltas": [0.5, 0.2], "deltasStdDev": [0.0, 0.0]},
  {"date": "2024-01-02", "value": 102.0, "price": 11.0, "priceStdDev": 0.0, "deltas": [0.5, 0.7], "deltasStdDev": [0.0, 0.0]}
]`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAcceptableRun(t *testing.T) {
	dir := t.TempDir()
	ours := writeFixture(t, dir, "ours.json", oursJSON)
	ref := writeFixture(t, dir, "ref.json", oursJSON)

	code, stdout, _ := runCLI(t, ours, ref, "--env-file", "")

	assert.Equal(t, compare.ExitAcceptable, code)
	assert.Contains(t, stdout, "Loading our portfolio: "+ours)
	assert.Contains(t, stdout, "  ✓ Loaded 2 entries")
	assert.Contains(t, stdout, "Comparing portfolios...")
	assert.Contains(t, stdout, "  ✓ Comparison complete")
	assert.Contains(t, stdout, "[SUMMARY]")
	assert.Contains(t, stdout, "✅ ACCEPTABLE")
}

func TestReviewRunWithExports(t *testing.T) {
	dir := t.TempDir()
	ours := writeFixture(t, dir, "ours.json", oursJSON)
	ref := writeFixture(t, dir, "ref.json", refReviewJSON)

	jsonOut := filepath.Join(dir, "out", "failures.json")
	xlsxOut := filepath.Join(dir, "out", "failures.xlsx")
	mdOut := filepath.Join(dir, "out", "summary.md")
	promOut := filepath.Join(dir, "out", "hedgeval.prom")
	reportOut := filepath.Join(dir, "out", "report.txt")

	code, stdout, _ := runCLI(t, ours, ref,
		"--env-file", "",
		"--verbose",
		"-o", reportOut,
		"--export-json", jsonOut,
		"--export-xlsx", xlsxOut,
		"--export-md", mdOut,
		"--metrics-out", promOut,
	)

	assert.Equal(t, compare.ExitReview, code)
	assert.Contains(t, stdout, "Report written to: "+reportOut)
	assert.Contains(t, stdout, "Failures exported to: "+jsonOut)
	assert.NotContains(t, stdout, "[SUMMARY]", "report goes to the file, not stdout")

	reportText, err := os.ReadFile(reportOut)
	require.NoError(t, err)
	assert.Contains(t, string(reportText), "[DETAILED FAILURES]")
	assert.Contains(t, string(reportText), "REVIEW IMPLEMENTATION")

	data, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	var export struct {
		Summary struct {
			TotalDates   int  `json:"total_dates"`
			PriceFailed  int  `json:"price_failed"`
			DeltasFailed int  `json:"deltas_failed"`
			IsAcceptable bool `json:"is_acceptable"`
		} `json:"summary"`
		DeltaFailures []struct {
			Date string `json:"date"`
			Type string `json:"type"`
		} `json:"delta_failures"`
	}
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 2, export.Summary.TotalDates)
	assert.Equal(t, 1, export.Summary.PriceFailed)
	assert.Equal(t, 1, export.Summary.DeltasFailed)
	assert.False(t, export.Summary.IsAcceptable)
	require.Len(t, export.DeltaFailures, 1)
	assert.Equal(t, "2024-01-02", export.DeltaFailures[0].Date)
	assert.Equal(t, "Delta[1]", export.DeltaFailures[0].Type)

	for _, path := range []string{xlsxOut, mdOut, promOut} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}

	prom, err := os.ReadFile(promOut)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "hedgeval_exit_code 2")
}

func TestCriticalRun(t *testing.T) {
	dir := t.TempDir()
	ours := writeFixture(t, dir, "ours.json", "[]")
	ref := writeFixture(t, dir, "ref.json", oursJSON)

	code, stdout, _ := runCLI(t, ours, ref, "--env-file", "")

	assert.Equal(t, compare.ExitFailure, code)
	assert.Contains(t, stdout, "Our portfolio is empty")
	assert.Contains(t, stdout, "CRITICAL ERRORS DETECTED")
}

func TestQuietRunToFile(t *testing.T) {
	dir := t.TempDir()
	ours := writeFixture(t, dir, "ours.json", oursJSON)
	ref := writeFixture(t, dir, "ref.json", oursJSON)
	reportOut := filepath.Join(dir, "report.txt")

	code, stdout, _ := runCLI(t, ours, ref, "--env-file", "", "-q", "-o", reportOut)

	assert.Equal(t, compare.ExitAcceptable, code)
	assert.Empty(t, stdout)
	assert.FileExists(t, reportOut)
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	ours := writeFixture(t, dir, "ours.json", oursJSON)
	ref := writeFixture(t, dir, "ref.json", refReviewJSON)
	cfgPath := writeFixture(t, dir, "hedgeval.yaml", "confidence: 0.99\ntolerance: 0.5\n")
	jsonOut := filepath.Join(dir, "failures.json")

	code, _, _ := runCLI(t, ours, ref,
		"--env-file", "",
		"--config", cfgPath,
		"--tolerance", "2",
		"--export-json", jsonOut,
	)
	assert.Equal(t, compare.ExitReview, code)

	data, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	var export struct {
		Run struct {
			Confidence float64 `json:"confidence"`
			Tolerance  float64 `json:"tolerance"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 0.99, export.Run.Confidence)
	assert.Equal(t, 2.0, export.Run.Tolerance)
}

func TestUsageAndInputErrorsExitThree(t *testing.T) {
	dir := t.TempDir()
	ours := writeFixture(t, dir, "ours.json", oursJSON)
	malformed := writeFixture(t, dir, "bad.json", `{"date": "2024-01-01"}`)

	testCases := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"missing argument", []string{ours}, "accepts 2 arg(s)"},
		{"missing file", []string{ours, filepath.Join(dir, "absent.json")}, "portfolio file not found"},
		{"malformed file", []string{ours, malformed}, "malformed portfolio content"},
		{"unsupported confidence", []string{ours, ours, "--confidence", "0.90"}, "unsupported confidence level"},
		{"non-positive tolerance", []string{ours, ours, "--tolerance", "0"}, "invalid configuration"},
		{"missing config file", []string{ours, ours, "--config", filepath.Join(dir, "absent.yaml")}, "failed to read config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--env-file", ""}, tc.args...)
			code, _, stderr := runCLI(t, args...)
			assert.Equal(t, compare.ExitFailure, code)
			assert.Contains(t, stderr, tc.stderr)
		})
	}
}

func TestHelpExitsZero(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--confidence")
	assert.Contains(t, stdout, "--export-xlsx")
}
