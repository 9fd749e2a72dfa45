package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/hedgeval/internal/compare"
)

// DefaultConfigPath is read when present and no --config flag is given
const DefaultConfigPath = "hedgeval.yaml"

// EnvPrefix namespaces environment overrides
const EnvPrefix = "HEDGEVAL_"

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the comparison parameters and output options
type Config struct {
	Confidence string  `yaml:"confidence"` // 0.95 or 0.99
	Tolerance  float64 `yaml:"tolerance"`  // multiplier applied to the z-score

	Output         string `yaml:"output"`      // report file, stdout when empty
	ExportJSON     string `yaml:"export_json"` // failure export path
	ExportXLSX     string `yaml:"export_xlsx"` // failure workbook path
	ExportMarkdown string `yaml:"export_md"`   // markdown summary path
	MetricsOut     string `yaml:"metrics_out"` // Prometheus textfile path

	Verbose  bool   `yaml:"verbose"`
	Quiet    bool   `yaml:"quiet"`
	NoColor  bool   `yaml:"no_color"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Confidence: "0.95",
		Tolerance:  1.0,
		LogLevel:   "info",
	}
}

// Load reads a YAML file over the defaults. A missing file is an error unless
// optional is set, in which case the defaults are returned.
func Load(path string, optional bool) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from envFile into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// ApplyEnv overlays HEDGEVAL_* environment variables
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "CONFIDENCE"); ok {
		c.Confidence = v
	}
	if v, ok := lookup(EnvPrefix + "TOLERANCE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %sTOLERANCE=%q is not a number", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Tolerance = f
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvPrefix + "METRICS_OUT"); ok {
		c.MetricsOut = v
	}
	if _, ok := lookup("NO_COLOR"); ok {
		c.NoColor = true
	}
	if v, ok := lookup(EnvPrefix + "NO_COLOR"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sNO_COLOR=%q is not a boolean", ErrInvalidConfig, EnvPrefix, v)
		}
		c.NoColor = b
	}
	return nil
}

// RegisterFlags declares the command-line overrides on fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("config", "", "YAML config file (default "+DefaultConfigPath+" when present)")
	fs.String("env-file", ".env", "Environment file loaded before HEDGEVAL_* overrides")
	fs.String("confidence", d.Confidence, "Confidence level for intervals (0.95|0.99)")
	fs.Float64("tolerance", d.Tolerance, "Additional tolerance multiplier")
	fs.StringP("output", "o", "", "Write report to file instead of stdout")
	fs.String("export-json", "", "Export failures to JSON file")
	fs.String("export-xlsx", "", "Export failures to an XLSX workbook")
	fs.String("export-md", "", "Write a markdown summary")
	fs.String("metrics-out", "", "Write Prometheus metrics in textfile format")
	fs.BoolP("verbose", "v", false, "Show detailed failure information")
	fs.BoolP("quiet", "q", false, "Quiet mode (minimal output)")
	fs.Bool("no-color", false, "Disable colored output")
	fs.String("log-level", d.LogLevel, "Log level (debug|info|warn|error)")
}

// ApplyFlags overlays only the flags the user set explicitly
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error

	fs.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case "confidence":
			c.Confidence, err = fs.GetString(f.Name)
		case "tolerance":
			c.Tolerance, err = fs.GetFloat64(f.Name)
		case "output":
			c.Output, err = fs.GetString(f.Name)
		case "export-json":
			c.ExportJSON, err = fs.GetString(f.Name)
		case "export-xlsx":
			c.ExportXLSX, err = fs.GetString(f.Name)
		case "export-md":
			c.ExportMarkdown, err = fs.GetString(f.Name)
		case "metrics-out":
			c.MetricsOut, err = fs.GetString(f.Name)
		case "verbose":
			c.Verbose, err = fs.GetBool(f.Name)
		case "quiet":
			c.Quiet, err = fs.GetBool(f.Name)
		case "no-color":
			c.NoColor, err = fs.GetBool(f.Name)
		case "log-level":
			c.LogLevel, err = fs.GetString(f.Name)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("flag --%s: %w", f.Name, err))
		}
	})

	return errors.Join(errs...)
}

// ConfidenceLevel parses the configured confidence
func (c *Config) ConfidenceLevel() (compare.ConfidenceLevel, error) {
	return compare.ParseConfidenceLevel(c.Confidence)
}

// ZerologLevel parses the configured log level; quiet mode raises it to warn
func (c *Config) ZerologLevel() (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(c.LogLevel))
	if name == "" {
		name = zerolog.InfoLevel.String()
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Quiet && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	return level, nil
}

// Validate rejects settings that must fail before the comparison runs
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.ConfidenceLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := compare.ValidateTolerance(c.Tolerance); err != nil {
		errs = append(errs, err)
	}
	if c.Verbose && c.Quiet {
		errs = append(errs, errors.New("cannot use --verbose and --quiet together"))
	}
	if _, err := c.ZerologLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
