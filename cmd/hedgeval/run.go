package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/hedgeval/internal/compare"
	"github.com/sawpanic/hedgeval/internal/config"
	atomicio "github.com/sawpanic/hedgeval/internal/io"
	progresslog "github.com/sawpanic/hedgeval/internal/log"
	"github.com/sawpanic/hedgeval/internal/metrics"
	"github.com/sawpanic/hedgeval/internal/portfolio"
	"github.com/sawpanic/hedgeval/internal/report"
)

type app struct {
	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

// run loads both series, compares them, renders the report and writes any
// requested exports. The verdict exit code is stored on the app.
func (a *app) run(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	level, err := cfg.ZerologLevel()
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	confidence, err := cfg.ConfidenceLevel()
	if err != nil {
		return err
	}

	engine, err := compare.NewEngine(confidence, cfg.Tolerance)
	if err != nil {
		return fmt.Errorf("invalid comparison parameters: %w", err)
	}
	engine = engine.WithLogger(log.Logger)

	oursPath, refPath := args[0], args[1]
	info := report.NewRunInfo(oursPath, refPath, engine)
	progress := progresslog.NewProgress(a.stdout, cfg.Quiet)

	log.Debug().
		Str("run_id", info.RunID).
		Str("ours", oursPath).
		Str("ref", refPath).
		Str("confidence", confidence.String()).
		Float64("tolerance", cfg.Tolerance).
		Msg("Starting validation run")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := portfolio.NewLoader()

	progress.Step("Loading our portfolio: %s", oursPath)
	ours, err := loadSeries(ctx, loader, "ours", oursPath)
	if err != nil {
		return fmt.Errorf("failed to load our portfolio: %w", err)
	}
	progress.Done("Loaded %d entries", len(ours))

	progress.Step("Loading reference portfolio: %s", refPath)
	ref, err := loadSeries(ctx, loader, "ref", refPath)
	if err != nil {
		return fmt.Errorf("failed to load reference portfolio: %w", err)
	}
	progress.Done("Loaded %d entries", len(ref))

	progress.Step("Comparing portfolios...")
	result := engine.Compare(ours, ref)
	progress.Done("Comparison complete")
	info.Elapsed = progress.Elapsed()

	renderer := report.NewRenderer(report.Options{
		Verbose: cfg.Verbose,
		Styled:  cfg.Output == "" && report.StyledCapable(asFile(a.stdout), cfg.NoColor),
	})
	text := renderer.Render(result)

	if cfg.Output != "" {
		if err := atomicio.WriteFileAtomic(cfg.Output, []byte(text+"\n")); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		progress.Info("Report written to: %s", cfg.Output)
	} else {
		fmt.Fprintln(a.stdout, text)
	}

	if err := writeExports(cfg, result, info, progress); err != nil {
		return err
	}

	a.exitCode = result.ExitCode()

	log.Info().
		Str("run_id", info.RunID).
		Str("verdict", string(result.Verdict())).
		Float64("overall_rate", result.Stats.OverallSuccessRate()).
		Int("exit_code", a.exitCode).
		Dur("elapsed", info.Elapsed).
		Msg("Validation run completed")

	return nil
}

// resolveConfig layers defaults, the YAML file, .env, HEDGEVAL_* variables
// and explicit flags, in that order
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	optional := configPath == ""
	if optional {
		configPath = config.DefaultConfigPath
	}

	cfg, err := config.Load(configPath, optional)
	if err != nil {
		return nil, err
	}

	envFile, _ := flags.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(flags); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadSeries(ctx context.Context, loader *portfolio.Loader, side, path string) (portfolio.Series, error) {
	series, err := loader.LoadFile(ctx, path)
	if err != nil {
		reason := "unreadable"
		switch {
		case errors.Is(err, portfolio.ErrSourceNotFound):
			reason = "not_found"
		case errors.Is(err, portfolio.ErrMalformedContent):
			reason = "malformed"
		case errors.Is(err, portfolio.ErrInvalidEntry):
			reason = "invalid_entry"
		}
		log.Error().
			Err(err).
			Str("side", side).
			Str("path", path).
			Str("reason", reason).
			Msg("Failed to load portfolio")
		return nil, err
	}
	return series, nil
}

func writeExports(cfg *config.Config, result *compare.ValidationResult, info report.RunInfo, progress *progresslog.Progress) error {
	if cfg.ExportJSON != "" {
		if err := report.WriteJSON(cfg.ExportJSON, result, info); err != nil {
			return fmt.Errorf("failed to export JSON: %w", err)
		}
		progress.Info("Failures exported to: %s", cfg.ExportJSON)
	}

	if cfg.ExportXLSX != "" {
		if err := report.WriteXLSX(cfg.ExportXLSX, result, info); err != nil {
			return fmt.Errorf("failed to export XLSX: %w", err)
		}
		progress.Info("Workbook exported to: %s", cfg.ExportXLSX)
	}

	if cfg.ExportMarkdown != "" {
		if err := report.WriteMarkdown(cfg.ExportMarkdown, result, info); err != nil {
			return fmt.Errorf("failed to write markdown summary: %w", err)
		}
		progress.Info("Summary written to: %s", cfg.ExportMarkdown)
	}

	if cfg.MetricsOut != "" {
		m := metrics.NewValidationMetrics()
		m.Observe(result, info)
		if err := m.WriteTextfile(cfg.MetricsOut); err != nil {
			return err
		}
		progress.Info("Metrics written to: %s", cfg.MetricsOut)
	}

	return nil
}

func asFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}
