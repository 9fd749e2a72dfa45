package compare

import (
	"strconv"
	"strings"
	"time"

	"github.com/sawpanic/hedgeval/internal/portfolio"
)

// MaxDatePreview caps how many one-sided dates a warning lists
const MaxDatePreview = 5

// ValidateStructure checks that two series can be compared at all, appending
// findings to result. It returns false when comparison must not proceed.
func ValidateStructure(ours, ref portfolio.Series, result *ValidationResult) bool {
	if len(ours) == 0 {
		result.AddCritical("Our portfolio is empty")
		return false
	}

	if len(ref) == 0 {
		result.AddCritical("Reference portfolio is empty")
		return false
	}

	// Only the first entry of each series is inspected
	ourAssets := ours[0].AssetCount()
	refAssets := ref[0].AssetCount()
	if ourAssets != refAssets {
		result.AddCritical("Number of assets differs: ours=%d, ref=%d", ourAssets, refAssets)
		return false
	}

	ourIdx := ours.Index()
	refIdx := ref.Index()

	if onlyOurs := ourIdx.Difference(refIdx); len(onlyOurs) > 0 {
		result.AddWarning("Dates present in ours but not in reference: %s", previewDates(onlyOurs))
	}

	if onlyRef := refIdx.Difference(ourIdx); len(onlyRef) > 0 {
		result.AddWarning("Dates present in reference but not in ours: %s", previewDates(onlyRef))
	}

	return true
}

// previewDates lists at most MaxDatePreview sorted dates plus a remainder suffix
func previewDates(dates []time.Time) string {
	shown := dates
	if len(shown) > MaxDatePreview {
		shown = shown[:MaxDatePreview]
	}

	parts := make([]string, len(shown))
	for i, d := range shown {
		parts[i] = d.Format(portfolio.DateLayout)
	}

	preview := strings.Join(parts, ", ")
	if extra := len(dates) - MaxDatePreview; extra > 0 {
		preview += " and " + strconv.Itoa(extra) + " more..."
	}
	return preview
}
