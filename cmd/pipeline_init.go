package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prism-mfg/prism-cli/internal/batch"
	"github.com/prism-mfg/prism-cli/internal/cache"
	"github.com/prism-mfg/prism-cli/internal/resilience"
	"github.com/prism-mfg/prism-cli/internal/schema"
	"github.com/prism-mfg/prism-cli/internal/store"
)

// pipelineEnv holds the schema, store, cache and recorder needed by the
// validate and enhance commands.
type pipelineEnv struct {
	Schema   *schema.Schema
	Store    store.Store    // may be nil
	Cache    cache.Cache    // may be nil
	Recorder batch.Recorder // may be nil
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, loads the schema with any
// overrides and opens the optional store. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	s, err := loadSchema(cfg.Paths.SchemaOverrides)
	if err != nil {
		return nil, err
	}
	env := &pipelineEnv{Schema: s}

	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
		retry := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
		env.Recorder = store.NewRecorder(st, retry)
	}

	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "store":
			env.Cache = store.NewCache(st)
		default:
			env.Cache = cache.NewMemory()
		}
	}

	zap.L().Debug("pipeline initialized",
		zap.String("schema_version", s.Version()),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache", env.Cache != nil),
	)
	return env, nil
}

// loadSchema returns the built-in schema with the overrides file applied.
func loadSchema(overridesPath string) (*schema.Schema, error) {
	s := schema.Default()
	if overridesPath == "" {
		return s, nil
	}
	o, err := schema.LoadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}
	return s.WithOverrides(o)
}
