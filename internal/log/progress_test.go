package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)

	p.Step("Loading our portfolio: %s", "ours.json")
	p.Done("Loaded %d entries", 3)
	p.Info("Report written to: %s", "report.txt")

	assert.Equal(t, "Loading our portfolio: ours.json\n  ✓ Loaded 3 entries\nReport written to: report.txt\n", buf.String())
	assert.GreaterOrEqual(t, p.Elapsed(), time.Duration(0))
}

func TestProgressQuiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true)

	p.Step("Comparing portfolios...")
	p.Done("Comparison complete")

	assert.Empty(t, buf.String())
}
