package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrSourceNotFound is returned when the portfolio file does not exist
	ErrSourceNotFound = errors.New("portfolio file not found")
	// ErrMalformedContent is returned when the file is not a JSON array of objects
	ErrMalformedContent = errors.New("malformed portfolio content")
	// ErrInvalidEntry is returned when an entry is well-formed JSON but semantically invalid
	ErrInvalidEntry = errors.New("invalid portfolio entry")
)

// dateLayouts are tried in order when parsing entry dates
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
}

// rawEntry mirrors the persisted shape; pointers flag missing required fields
type rawEntry struct {
	Date         *string   `json:"date"`
	Value        *float64  `json:"value"`
	Price        *float64  `json:"price"`
	PriceStdDev  *float64  `json:"priceStdDev"`
	Deltas       []float64 `json:"deltas"`
	DeltasStdDev []float64 `json:"deltasStdDev"`
}

// Loader reads persisted portfolio histories
type Loader struct{}

// NewLoader creates a new portfolio loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile reads a portfolio JSON file and returns its entries sorted by date
func (l *Loader) LoadFile(ctx context.Context, path string) (Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to read portfolio %s: %w", path, err)
	}

	series, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("entries", len(series)).
		Msg("Portfolio loaded")

	return series, nil
}

// Parse decodes a JSON array of portfolio entries
func (l *Loader) Parse(data []byte) (Series, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: portfolio file must contain a JSON array", ErrMalformedContent)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	series := make(Series, 0, len(raws))
	for i, msg := range raws {
		var raw rawEntry
		if err := json.Unmarshal(msg, &raw); err != nil {
			return nil, fmt.Errorf("%w at index %d: %v", ErrInvalidEntry, i, err)
		}

		entry, err := raw.toEntry()
		if err != nil {
			return nil, fmt.Errorf("%w at index %d: %v", ErrInvalidEntry, i, err)
		}
		series = append(series, entry)
	}

	series.SortByDate()
	return series, nil
}

func (r rawEntry) toEntry() (Entry, error) {
	var missing []string
	if r.Date == nil {
		missing = append(missing, "date")
	}
	if r.Value == nil {
		missing = append(missing, "value")
	}
	if r.Price == nil {
		missing = append(missing, "price")
	}
	if r.PriceStdDev == nil {
		missing = append(missing, "priceStdDev")
	}
	if len(missing) > 0 {
		return Entry{}, fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}

	date, err := ParseDate(*r.Date)
	if err != nil {
		return Entry{}, err
	}

	if *r.PriceStdDev < 0 {
		return Entry{}, fmt.Errorf("priceStdDev must be non-negative, got %g", *r.PriceStdDev)
	}
	for i, sd := range r.DeltasStdDev {
		if sd < 0 {
			return Entry{}, fmt.Errorf("deltasStdDev[%d] must be non-negative, got %g", i, sd)
		}
	}

	deltas := r.Deltas
	if deltas == nil {
		deltas = []float64{}
	}
	deltasStdDev := r.DeltasStdDev
	if deltasStdDev == nil {
		deltasStdDev = []float64{}
	}

	return Entry{
		Date:         date,
		Value:        *r.Value,
		Price:        *r.Price,
		PriceStdDev:  *r.PriceStdDev,
		Deltas:       deltas,
		DeltasStdDev: deltasStdDev,
	}, nil
}

// ParseDate parses an ISO-8601 date or timestamp. Values without an offset are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}
