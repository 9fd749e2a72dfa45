package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/hedgeval/internal/compare"
	"github.com/sawpanic/hedgeval/internal/config"
)

const (
	appName = "hedgeval"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the root command and returns the process exit code
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return compare.ExitFailure
	}
	return a.exitCode
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     appName + " <ours.json> <reference.json>",
		Short:   "Compare portfolio time series against a reference",
		Version: version,
		Long: `hedgeval compares a portfolio time series produced by a hedging
implementation against a reference series.

Every common date gets a confidence interval check on the price and on each
asset delta. A pair passes when |ours - ref| <= z * (sd_ours + sd_ref).

Exit codes:
  0  acceptable (>= 80% of checks pass)
  2  review (>= 50% of checks pass)
  3  failure (< 50%, structural errors, or unusable input)`,
		Example: `  hedgeval ours.json ref.json
  hedgeval ours.json ref.json --confidence 0.99 --verbose
  hedgeval ours.json ref.json -o report.txt --export-json failures.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.run,
	}

	config.RegisterFlags(rootCmd.Flags())
	return rootCmd
}
