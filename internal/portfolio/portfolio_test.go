package portfolio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ours.json")

	content := `[
  {"date": "2024-01-03T00:00:00", "value": 101.5, "deltas": [0.4, 0.6], "deltasStdDev": [0.01, 0.02], "price": 10.2, "priceStdDev": 0.1},
  {"date": "2024-01-02", "value": 100, "deltas": [0.5, 0.5], "price": 10, "priceStdDev": 0.1}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	series, err := NewLoader().LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, series, 2)

	// sorted chronologically regardless of file order
	assert.Equal(t, day(2), series[0].Date)
	assert.Equal(t, day(3), series[1].Date)
	assert.Equal(t, 101.5, series[1].Value)
	assert.Equal(t, []float64{0.4, 0.6}, series[1].Deltas)
	assert.Equal(t, []float64{}, series[0].DeltasStdDev)
	assert.Equal(t, 2, series[0].AssetCount())
}

func TestLoadFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	testCases := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(tmpDir, "nope.json"), ErrSourceNotFound},
		{"not json", write("garbage.json", "{{{"), ErrMalformedContent},
		{"object instead of array", write("object.json", `{"date": "2024-01-01"}`), ErrMalformedContent},
		{"truncated array", write("truncated.json", `[{"date": "2024-01-01"`), ErrMalformedContent},
		{"missing price", write("noprice.json", `[{"date": "2024-01-01", "value": 1, "priceStdDev": 0}]`), ErrInvalidEntry},
		{"bad date", write("baddate.json", `[{"date": "01/02/2024", "value": 1, "price": 1, "priceStdDev": 0}]`), ErrInvalidEntry},
		{"negative stddev", write("negsd.json", `[{"date": "2024-01-01", "value": 1, "price": 1, "priceStdDev": -0.5}]`), ErrInvalidEntry},
		{"wrong type", write("type.json", `[{"date": "2024-01-01", "value": "x", "price": 1, "priceStdDev": 0}]`), ErrInvalidEntry},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadFile(context.Background(), tc.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLoadFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().LoadFile(ctx, "irrelevant.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-05", "2024-01-05T00:00:00", "2024-01-05 00:00:00", "2024-01-05T00:00:00Z", "2024-01-05T01:00:00+01:00"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.True(t, got.Equal(day(5)), "%s parsed as %s", s, got)
	}
}

func TestIndex(t *testing.T) {
	series := Series{
		{Date: day(3), Value: 3},
		{Date: day(1), Value: 1},
		{Date: day(2), Value: 2},
		{Date: day(1), Value: 10}, // duplicate, last one wins
	}
	other := Series{{Date: day(2)}, {Date: day(4)}}

	idx := series.Index()
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []time.Time{day(1), day(2), day(3)}, idx.Dates())

	entry, ok := idx.Get(day(1))
	require.True(t, ok)
	assert.Equal(t, 10.0, entry.Value)

	_, ok = idx.Get(day(9))
	assert.False(t, ok)

	otherIdx := other.Index()
	assert.Equal(t, []time.Time{day(2)}, idx.Intersect(otherIdx))
	assert.Equal(t, []time.Time{day(1), day(3)}, idx.Difference(otherIdx))
	assert.Equal(t, []time.Time{day(4)}, otherIdx.Difference(idx))
}
