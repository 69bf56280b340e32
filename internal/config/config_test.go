package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no prism.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "prism.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.False(t, cfg.Batch.FailOnError)
	assert.InDelta(t, 0.15, cfg.Validation.Tolerance, 0.001)
	assert.False(t, cfg.Validation.StrictConsistency)
	assert.Equal(t, 3, cfg.Enhance.MinPeers)
	assert.Equal(t, []string{"similar", "physics", "default"}, cfg.Enhance.Strategies)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, ".", cfg.Paths.OutputDir)

	assert.NoError(t, cfg.Validate("validate"))
	assert.NoError(t, cfg.Validate("enhance"))
	assert.NoError(t, cfg.Validate("history"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/prism
log:
  level: debug
  format: console
batch:
  concurrency: 16
validation:
  strict_consistency: true
  rule_tolerances:
    hardness_to_tensile: 0.1
enhance:
  strategies: [physics]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prism.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/prism", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 16, cfg.Batch.Concurrency)
	assert.True(t, cfg.Validation.StrictConsistency)
	assert.InDelta(t, 0.1, cfg.Validation.RuleTolerances["hardness_to_tensile"], 0.001)
	assert.Equal(t, []string{"physics"}, cfg.Enhance.Strategies)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.15, cfg.Validation.Tolerance, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prism.yaml"), []byte(yaml), 0644))

	t.Setenv("PRISM_STORE_DRIVER", "none")
	t.Setenv("PRISM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PRISM_BATCH_CONCURRENCY", "3")
	t.Setenv("PRISM_VALIDATION_TOLERANCE", "0.2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.InDelta(t, 0.2, cfg.Validation.Tolerance, 0.001)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "prism.yaml"), []byte("batch: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Batch.Concurrency = 8
	cfg.Validation.Tolerance = 0.15
	cfg.Enhance.MinPeers = 3
	cfg.Report.Format = "json"
	cfg.Cache.Backend = "memory"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "prism.db"
	return cfg
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = 0
	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 256")

	cfg.Batch.Concurrency = 257
	assert.Error(t, cfg.Validate("validate"))

	cfg.Batch.Concurrency = 256
	assert.NoError(t, cfg.Validate("validate"))
}

func TestValidateTolerances(t *testing.T) {
	cfg := validDefaults()

	cfg.Validation.Tolerance = 0
	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation.tolerance")

	cfg.Validation.Tolerance = 0.15
	cfg.Validation.RuleTolerances = map[string]float64{"shear_modulus": 1.5}
	err = cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rule_tolerances.shear_modulus")
}

func TestValidateReportAndCache(t *testing.T) {
	cfg := validDefaults()
	cfg.Report.Format = "csv"
	cfg.Cache.Backend = "redis"

	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "report.format")
	assert.Contains(t, err.Error(), "cache.backend must be memory or store")

	cfg = validDefaults()
	cfg.Cache.Backend = "store"
	cfg.Store.Driver = "none"
	err = cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires a store driver")
}

func TestValidateEnhanceMinPeers(t *testing.T) {
	cfg := validDefaults()
	cfg.Enhance.MinPeers = 0

	assert.NoError(t, cfg.Validate("validate"))
	err := cfg.Validate("enhance")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "enhance.min_peers")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "none"
	err = cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is required")
	assert.NoError(t, cfg.Validate("validate"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be")
}
