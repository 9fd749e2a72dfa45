package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/hedgeval/internal/compare"
)

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "hedgeval.yaml")

	testConfig := Config{
		Confidence: "0.99",
		Tolerance:  1.5,
		ExportJSON: "out/failures.json",
		Verbose:    true,
		LogLevel:   "debug",
	}
	yamlData, err := yaml.Marshal(&testConfig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, yamlData, 0644))

	cfg, err := Load(configPath, false)
	require.NoError(t, err)

	level, err := cfg.ConfidenceLevel()
	require.NoError(t, err)
	assert.Equal(t, compare.Confidence99, level)
	assert.Equal(t, 1.5, cfg.Tolerance)
	assert.Equal(t, "out/failures.json", cfg.ExportJSON)
	assert.True(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNumericConfidence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("confidence: 0.99\n"), 0644))

	cfg, err := Load(configPath, false)
	require.NoError(t, err)
	assert.Equal(t, "0.99", cfg.Confidence)
	// unset keys keep their defaults
	assert.Equal(t, 1.0, cfg.Tolerance)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	_, err = Load(missing, false)
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("tolerance: [1, 2\n"), 0644))

	_, err := Load(configPath, false)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HEDGEVAL_CONFIDENCE": "99",
		"HEDGEVAL_TOLERANCE":  "2.5",
		"HEDGEVAL_LOG_LEVEL":  "warn",
		"NO_COLOR":            "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Defaults()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, "99", cfg.Confidence)
	assert.Equal(t, 2.5, cfg.Tolerance)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.NoColor)

	env["HEDGEVAL_TOLERANCE"] = "wide"
	assert.ErrorIs(t, Defaults().applyEnv(lookup), ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HEDGEVAL_TOLERANCE=3\n"), 0644))

	t.Setenv("HEDGEVAL_TOLERANCE", "")
	os.Unsetenv("HEDGEVAL_TOLERANCE")

	require.NoError(t, LoadDotEnv(envFile))
	cfg := Defaults()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 3.0, cfg.Tolerance)

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestApplyFlagsOnlyExplicit(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--tolerance", "1.2", "-v", "--export-xlsx", "f.xlsx"}))

	cfg := Defaults()
	cfg.Confidence = "0.99" // from file, must survive since --confidence was not given
	require.NoError(t, cfg.ApplyFlags(fs))

	assert.Equal(t, "0.99", cfg.Confidence)
	assert.Equal(t, 1.2, cfg.Tolerance)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "f.xlsx", cfg.ExportXLSX)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"confidence 99", func(c *Config) { c.Confidence = "0.99" }, true},
		{"unsupported confidence", func(c *Config) { c.Confidence = "0.90" }, false},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, false},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }, false},
		{"verbose and quiet", func(c *Config) { c.Verbose, c.Quiet = true, true }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateWrapsUnsupportedConfidence(t *testing.T) {
	cfg := Defaults()
	cfg.Confidence = "0.975"
	assert.ErrorIs(t, cfg.Validate(), compare.ErrUnsupportedConfidence)
}

func TestZerologLevel(t *testing.T) {
	cfg := Defaults()
	level, err := cfg.ZerologLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	cfg.Quiet = true
	level, err = cfg.ZerologLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	cfg.LogLevel = "error"
	level, err = cfg.ZerologLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, level)
}
