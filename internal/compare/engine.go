package compare

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/hedgeval/internal/portfolio"
)

// NearZeroDelta is the absolute floor below which two deltas are treated as equal
const NearZeroDelta = 1e-6

// Engine compares a candidate portfolio history against a reference
type Engine struct {
	level           ConfidenceLevel
	toleranceFactor float64
	zScore          float64
	logger          zerolog.Logger
}

// NewEngine validates the calling parameters and returns a ready engine.
// Unsupported confidence levels and non-positive multipliers are rejected here,
// before any comparison runs.
func NewEngine(level ConfidenceLevel, toleranceFactor float64) (*Engine, error) {
	base, err := level.ZScore()
	if err != nil {
		return nil, err
	}
	if err := ValidateTolerance(toleranceFactor); err != nil {
		return nil, err
	}

	return &Engine{
		level:           level,
		toleranceFactor: toleranceFactor,
		zScore:          base * toleranceFactor,
		logger:          zerolog.Nop(),
	}, nil
}

// WithLogger returns a copy of the engine that logs run summaries to logger
func (e *Engine) WithLogger(logger zerolog.Logger) *Engine {
	clone := *e
	clone.logger = logger
	return &clone
}

// ConfidenceLevel returns the configured confidence level
func (e *Engine) ConfidenceLevel() ConfidenceLevel { return e.level }

// ToleranceFactor returns the configured z-score multiplier
func (e *Engine) ToleranceFactor() float64 { return e.toleranceFactor }

// ZScore returns the effective z-score (base quantile times multiplier)
func (e *Engine) ZScore() float64 { return e.zScore }

// Compare validates structure, then checks price and every delta on each
// common date. Data problems never produce an error; they are recorded in the
// returned result as critical errors, warnings or failures.
func (e *Engine) Compare(ours, ref portfolio.Series) *ValidationResult {
	e.logger.Debug().
		Int("our_entries", len(ours)).
		Int("ref_entries", len(ref)).
		Float64("confidence", float64(e.level)).
		Float64("z_score", e.zScore).
		Msg("Starting portfolio comparison")

	result := NewValidationResult()

	if !ValidateStructure(ours, ref, result) {
		e.logger.Info().
			Strs("critical_errors", result.CriticalErrors).
			Msg("Portfolio comparison aborted")
		return result
	}

	ourIdx := ours.Index()
	refIdx := ref.Index()
	commonDates := ourIdx.Intersect(refIdx)

	result.Stats.TotalDates = len(commonDates)
	result.Stats.ValueStats = ComputeValueStats(ourIdx, refIdx, commonDates)

	for _, date := range commonDates {
		ourEntry, _ := ourIdx.Get(date)
		refEntry, _ := refIdx.Get(date)

		e.comparePrice(date, ourEntry, refEntry, result)
		e.compareDeltas(date, ourEntry, refEntry, result)
	}

	e.logger.Info().
		Int("total_dates", result.Stats.TotalDates).
		Int("price_failed", result.Stats.PriceFailed).
		Int("total_deltas", result.Stats.TotalDeltas).
		Int("deltas_failed", result.Stats.DeltasFailed).
		Int("warnings", len(result.Warnings)).
		Float64("overall_rate", result.Stats.OverallSuccessRate()).
		Str("verdict", string(result.Verdict())).
		Msg("Portfolio comparison completed")

	return result
}

func (e *Engine) comparePrice(date time.Time, ours, ref portfolio.Entry, result *ValidationResult) {
	check := CheckConfidenceInterval(ours.Price, ref.Price, ours.PriceStdDev, ref.PriceStdDev, e.zScore)
	if check.Overlaps {
		result.Stats.PricePassed++
		return
	}

	result.Stats.PriceFailed++
	result.PriceFailures = append(result.PriceFailures, ComparisonFailure{
		Date:       date,
		Metric:     PriceMetric,
		Asset:      -1,
		OurValue:   ours.Price,
		RefValue:   ref.Price,
		OurStdDev:  ours.PriceStdDev,
		RefStdDev:  ref.PriceStdDev,
		Difference: check.Difference,
		Tolerance:  check.Tolerance,
	})
}

func (e *Engine) compareDeltas(date time.Time, ours, ref portfolio.Entry, result *ValidationResult) {
	n := min(len(ours.Deltas), len(ref.Deltas))

	if len(ours.Deltas) != len(ref.Deltas) {
		result.AddWarning("Date %s: Different number of deltas (ours=%d, ref=%d)",
			date.Format(portfolio.DateLayout), len(ours.Deltas), len(ref.Deltas))
	}

	// Missing std devs mean the series is deterministic for that date
	hasOurStdDev := len(ours.DeltasStdDev) >= n
	hasRefStdDev := len(ref.DeltasStdDev) >= n

	for i := 0; i < n; i++ {
		result.Stats.TotalDeltas++

		ourDelta := ours.Deltas[i]
		refDelta := ref.Deltas[i]

		ourStdDev := 0.0
		if hasOurStdDev {
			ourStdDev = ours.DeltasStdDev[i]
		}
		refStdDev := 0.0
		if hasRefStdDev {
			refStdDev = ref.DeltasStdDev[i]
		}

		if math.Abs(ourDelta) < NearZeroDelta && math.Abs(refDelta) < NearZeroDelta {
			result.Stats.DeltasPassed++
			continue
		}

		check := CheckConfidenceInterval(ourDelta, refDelta, ourStdDev, refStdDev, e.zScore)
		if check.Overlaps {
			result.Stats.DeltasPassed++
			continue
		}

		result.Stats.DeltasFailed++
		result.Stats.DeltaFailuresByAsset[i]++
		result.DeltaFailures = append(result.DeltaFailures, ComparisonFailure{
			Date:       date,
			Metric:     DeltaMetric(i),
			Asset:      i,
			OurValue:   ourDelta,
			RefValue:   refDelta,
			OurStdDev:  ourStdDev,
			RefStdDev:  refStdDev,
			Difference: check.Difference,
			Tolerance:  check.Tolerance,
		})
	}
}

// Compare is a convenience wrapper that builds an engine and runs one comparison
func Compare(ours, ref portfolio.Series, level ConfidenceLevel, toleranceFactor float64) (*ValidationResult, error) {
	engine, err := NewEngine(level, toleranceFactor)
	if err != nil {
		return nil, fmt.Errorf("invalid comparison parameters: %w", err)
	}
	return engine.Compare(ours, ref), nil
}
