package compare

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnsupportedConfidence is returned for confidence levels other than 0.95 and 0.99
var ErrUnsupportedConfidence = errors.New("unsupported confidence level")

// ErrInvalidTolerance is returned for tolerance multipliers that are not strictly positive
var ErrInvalidTolerance = errors.New("tolerance multiplier must be positive")

// ConfidenceLevel is the two-sided confidence of each estimate's interval
type ConfidenceLevel float64

const (
	Confidence95 ConfidenceLevel = 0.95
	Confidence99 ConfidenceLevel = 0.99
)

// zScores maps each supported level to its two-sided normal quantile
var zScores = map[ConfidenceLevel]float64{
	Confidence95: 1.96,
	Confidence99: 2.576,
}

// SupportedConfidenceLevels lists the accepted levels in ascending order
func SupportedConfidenceLevels() []ConfidenceLevel {
	return []ConfidenceLevel{Confidence95, Confidence99}
}

// ZScore returns the interval half-width multiplier for the level
func (c ConfidenceLevel) ZScore() (float64, error) {
	for level, z := range zScores {
		if math.Abs(float64(c)-float64(level)) < 1e-9 {
			return z, nil
		}
	}
	return 0, fmt.Errorf("%w: %g (supported: 0.95, 0.99)", ErrUnsupportedConfidence, float64(c))
}

// Validate reports whether the level is supported
func (c ConfidenceLevel) Validate() error {
	_, err := c.ZScore()
	return err
}

func (c ConfidenceLevel) String() string {
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// ParseConfidenceLevel parses "0.95", "0.99", "95" or "99" (optionally with a % suffix)
func ParseConfidenceLevel(s string) (ConfidenceLevel, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedConfidence, s)
	}
	if v > 1 {
		v /= 100
	}

	level := ConfidenceLevel(v)
	if err := level.Validate(); err != nil {
		return 0, err
	}
	return level, nil
}

// ValidateTolerance rejects zero, negative and non-finite multipliers
func ValidateTolerance(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidTolerance, factor)
	}
	return nil
}
