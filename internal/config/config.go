package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Enhance    EnhanceConfig    `yaml:"enhance" mapstructure:"enhance"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	Input           string `yaml:"input" mapstructure:"input"`
	OutputDir       string `yaml:"output_dir" mapstructure:"output_dir"`
	Report          string `yaml:"report" mapstructure:"report"`
	SchemaOverrides string `yaml:"schema_overrides" mapstructure:"schema_overrides"`
	// Corpus is the reference dataset for interpolation. Defaults to the input.
	Corpus string `yaml:"corpus" mapstructure:"corpus"`
}

// ValidationConfig tunes the validator.
type ValidationConfig struct {
	Tolerance         float64            `yaml:"tolerance" mapstructure:"tolerance"`
	RuleTolerances    map[string]float64 `yaml:"rule_tolerances" mapstructure:"rule_tolerances"`
	StrictConsistency bool               `yaml:"strict_consistency" mapstructure:"strict_consistency"`
}

// EnhanceConfig tunes the enhancer.
type EnhanceConfig struct {
	MinPeers        int      `yaml:"min_peers" mapstructure:"min_peers"`
	IncludeOptional bool     `yaml:"include_optional" mapstructure:"include_optional"`
	Strategies      []string `yaml:"strategies" mapstructure:"strategies"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int  `yaml:"concurrency" mapstructure:"concurrency"`
	FailOnError bool `yaml:"fail_on_error" mapstructure:"fail_on_error"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// CacheConfig configures result memoization.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// RetryConfig configures retries around store writes.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("prism")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRISM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.output_dir", ".")
	v.SetDefault("validation.tolerance", 0.15)
	v.SetDefault("validation.strict_consistency", false)
	v.SetDefault("enhance.min_peers", 3)
	v.SetDefault("enhance.include_optional", false)
	v.SetDefault("enhance.strategies", []string{"similar", "physics", "default"})
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.fail_on_error", false)
	v.SetDefault("report.format", "json")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prism.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_backoff_ms", 50)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is the command
// name: "validate", "enhance" or "history".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "validate", "enhance":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 256 {
			problems = append(problems, "batch.concurrency must be between 1 and 256")
		}
		if c.Validation.Tolerance <= 0 || c.Validation.Tolerance >= 1 {
			problems = append(problems, "validation.tolerance must be in (0, 1)")
		}
		for rule, tol := range c.Validation.RuleTolerances {
			if tol <= 0 || tol >= 1 {
				problems = append(problems, "validation.rule_tolerances."+rule+" must be in (0, 1)")
			}
		}
		switch c.Report.Format {
		case "json", "text", "xlsx":
		default:
			problems = append(problems, "report.format must be json, text or xlsx")
		}
		switch c.Cache.Backend {
		case "memory":
		case "store":
			if c.Store.Driver == "none" {
				problems = append(problems, "cache.backend store requires a store driver")
			}
		default:
			problems = append(problems, "cache.backend must be memory or store")
		}
		if mode == "enhance" && c.Enhance.MinPeers < 1 {
			problems = append(problems, "enhance.min_peers must be >= 1")
		}
	case "history":
		if c.Store.Driver == "none" {
			problems = append(problems, "store.driver is required for run history")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "none":
	default:
		problems = append(problems, "store.driver must be sqlite, postgres or none")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
