package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/resilience"
)

// Recorder writes batch runs to a Store, retrying transient database errors.
type Recorder struct {
	store Store
	retry resilience.RetryConfig
}

// NewRecorder creates a Recorder. A zero retry config uses the defaults.
func NewRecorder(s Store, retry resilience.RetryConfig) *Recorder {
	return &Recorder{store: s, retry: retry}
}

// Start creates the run row and returns its ID.
func (r *Recorder) Start(ctx context.Context, op model.Operation, input, schemaVersion string) (string, error) {
	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger("store", "create_run")
	run, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*model.Run, error) {
		return r.store.CreateRun(ctx, op, input, schemaVersion)
	})
	if err != nil {
		return "", eris.Wrap(err, "store: record run start")
	}
	return run.ID, nil
}

// Finish stores per-record results and the run summary.
func (r *Recorder) Finish(ctx context.Context, runID string, res *model.BatchResult) error {
	status := model.RunStatusComplete
	if res.Partial {
		status = model.RunStatusPartial
	}

	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger("store", "save_results")
	if err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return r.store.SaveResults(ctx, runID, res.Results)
	}); err != nil {
		return eris.Wrap(err, "store: record results")
	}

	cfg.OnRetry = resilience.RetryLogger("store", "complete_run")
	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return r.store.CompleteRun(ctx, runID, status, model.SummaryOf(res))
	})
	return eris.Wrap(err, "store: record run finish")
}
