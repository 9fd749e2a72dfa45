package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/hedgeval/internal/compare"
	"github.com/sawpanic/hedgeval/internal/report"
)

const namespace = "hedgeval"

// Check kinds and outcomes used as label values
const (
	KindPrice   = "price"
	KindDelta   = "delta"
	KindOverall = "overall"

	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// ValidationMetrics holds the Prometheus metrics describing one validation run
type ValidationMetrics struct {
	registry *prometheus.Registry

	// Check outcomes
	Checks      *prometheus.CounterVec
	SuccessRate *prometheus.GaugeVec

	// Per-asset delta failures
	AssetFailures *prometheus.GaugeVec

	// Portfolio value drift
	ValueDiff *prometheus.GaugeVec

	// Findings
	Warnings       prometheus.Gauge
	CriticalErrors prometheus.Gauge

	// Run
	ExitCode prometheus.Gauge
	Duration prometheus.Gauge
	LastRun  prometheus.Gauge
	RunInfo  *prometheus.GaugeVec
}

// NewValidationMetrics creates the metrics on a private registry
func NewValidationMetrics() *ValidationMetrics {
	m := &ValidationMetrics{
		registry: prometheus.NewRegistry(),

		Checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Confidence interval checks performed by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		SuccessRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "success_rate",
				Help:      "Share of passing checks (0.0 to 1.0) by kind",
			},
			[]string{"kind"},
		),

		AssetFailures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "delta_failures",
				Help:      "Delta check failures by asset index",
			},
			[]string{"asset"},
		),

		ValueDiff: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "value_diff",
				Help:      "Portfolio value difference statistics (relative stats in percent)",
			},
			[]string{"stat"},
		),

		Warnings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "warnings",
				Help:      "Number of warnings raised",
			},
		),

		CriticalErrors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "critical_errors",
				Help:      "Number of critical structural errors",
			},
		),

		ExitCode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "exit_code",
				Help:      "Exit code of the run (0 acceptable, 2 review, 3 failure)",
			},
		),

		Duration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "duration_seconds",
				Help:      "Wall time spent loading and comparing",
			},
		),

		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the run started",
			},
		),

		RunInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_info",
				Help:      "Run identity; always 1",
			},
			[]string{"run_id", "confidence", "verdict"},
		),
	}

	m.registry.MustRegister(
		m.Checks,
		m.SuccessRate,
		m.AssetFailures,
		m.ValueDiff,
		m.Warnings,
		m.CriticalErrors,
		m.ExitCode,
		m.Duration,
		m.LastRun,
		m.RunInfo,
	)

	return m
}

// Registry exposes the underlying registry
func (m *ValidationMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a finished run
func (m *ValidationMetrics) Observe(result *compare.ValidationResult, info report.RunInfo) {
	stats := result.Stats

	m.Checks.WithLabelValues(KindPrice, OutcomePassed).Add(float64(stats.PricePassed))
	m.Checks.WithLabelValues(KindPrice, OutcomeFailed).Add(float64(stats.PriceFailed))
	m.Checks.WithLabelValues(KindDelta, OutcomePassed).Add(float64(stats.DeltasPassed))
	m.Checks.WithLabelValues(KindDelta, OutcomeFailed).Add(float64(stats.DeltasFailed))

	m.SuccessRate.WithLabelValues(KindPrice).Set(stats.PriceSuccessRate())
	m.SuccessRate.WithLabelValues(KindDelta).Set(stats.DeltaSuccessRate())
	m.SuccessRate.WithLabelValues(KindOverall).Set(stats.OverallSuccessRate())

	for _, asset := range stats.FailedAssets() {
		m.AssetFailures.WithLabelValues(strconv.Itoa(asset)).Set(float64(stats.DeltaFailuresByAsset[asset]))
	}

	vs := stats.ValueStats
	m.ValueDiff.WithLabelValues("mean_absolute").Set(vs.MeanAbsoluteDiff)
	m.ValueDiff.WithLabelValues("max_absolute").Set(vs.MaxAbsoluteDiff)
	m.ValueDiff.WithLabelValues("mean_relative").Set(vs.MeanRelativeDiff)
	m.ValueDiff.WithLabelValues("max_relative").Set(vs.MaxRelativeDiff)
	m.ValueDiff.WithLabelValues("initial").Set(vs.InitialValueDiff)
	m.ValueDiff.WithLabelValues("final").Set(vs.FinalValueDiff)
	m.ValueDiff.WithLabelValues("rmse").Set(vs.RMSE)

	m.Warnings.Set(float64(len(result.Warnings)))
	m.CriticalErrors.Set(float64(len(result.CriticalErrors)))

	m.ExitCode.Set(float64(result.ExitCode()))
	m.Duration.Set(info.Elapsed.Seconds())
	m.LastRun.Set(float64(info.StartedAt.Unix()))
	m.RunInfo.WithLabelValues(info.RunID, info.Confidence.String(), string(result.Verdict())).Set(1)
}

// WriteTextfile writes the registry in Prometheus text format for the node
// exporter textfile collector
func (m *ValidationMetrics) WriteTextfile(path string) error {
	start := time.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Dur("elapsed", time.Since(start)).
		Msg("Metrics textfile written")
	return nil
}
