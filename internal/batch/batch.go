// Package batch runs validation or enhancement over many records with a
// bounded worker pool. A failing record never aborts the batch.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/prism-mfg/prism-cli/internal/cache"
	"github.com/prism-mfg/prism-cli/internal/ingest"
	"github.com/prism-mfg/prism-cli/internal/model"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 8

// Recorder persists run history. store.Recorder implements it.
type Recorder interface {
	Start(ctx context.Context, op model.Operation, input, schemaVersion string) (string, error)
	Finish(ctx context.Context, runID string, res *model.BatchResult) error
}

// Options configures a Processor.
type Options struct {
	Concurrency int
	// Input names the source of the entries in run history.
	Input    string
	Recorder Recorder
	Cache    cache.Cache
	// OnProgress is called after each record. Calls are serialized.
	OnProgress func(done, total int)
}

// slot is one finished entry and its position in the input.
type slot struct {
	index int
	out   Outcome
}

// Processor fans records out to an Operation.
type Processor struct {
	opts Options
}

// New creates a Processor.
func New(opts Options) *Processor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Processor{opts: opts}
}

// Run applies op to every entry. On context cancellation no new records are
// started and the records finished so far are returned with Partial set.
// The returned error is non-nil only when run history could not be written;
// the result is still usable in that case.
func (p *Processor) Run(ctx context.Context, entries []ingest.Entry, op Operation) (*model.BatchResult, error) {
	res := &model.BatchResult{
		Operation:     op.Kind(),
		SchemaVersion: op.SchemaVersion(),
		StartedAt:     time.Now().UTC(),
	}
	log := zap.L().With(
		zap.String("operation", string(res.Operation)),
		zap.String("schema_version", res.SchemaVersion),
	)

	var recording bool
	res.RunID, recording = p.start(ctx, res, log)
	log = log.With(zap.String("run_id", res.RunID))
	log.Info("batch starting", zap.Int("records", len(entries)), zap.Int("concurrency", p.opts.Concurrency))

	var (
		mu       sync.Mutex
		finished = make([]slot, 0, len(entries))
		done     atomic.Int64
		failed   atomic.Int64
		hits     atomic.Int64
		progress = rate.Sometimes{Interval: time.Second}
		total    = len(entries)
	)

	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrency)

	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out, hit := p.process(ctx, entry, op)
			if hit {
				hits.Add(1)
			}
			if !out.Result.Passed() {
				failed.Add(1)
				log.Warn("record failed",
					zap.String("record", out.Result.RecordID),
					zap.String("error", out.Result.Error),
					zap.Int("findings", len(out.Result.Findings)),
				)
			}

			mu.Lock()
			finished = append(finished, slot{index: i, out: out})
			n := int(done.Add(1))
			if p.opts.OnProgress != nil {
				p.opts.OnProgress(n, total)
			}
			mu.Unlock()

			progress.Do(func() {
				log.Info("batch progress", zap.Int("done", n), zap.Int("total", total), zap.Int64("failed", failed.Load()))
			})
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	// Order by ID, then input position for repeated IDs.
	sort.Slice(finished, func(i, j int) bool {
		a, b := finished[i], finished[j]
		if a.out.Result.RecordID != b.out.Result.RecordID {
			return a.out.Result.RecordID < b.out.Result.RecordID
		}
		return a.index < b.index
	})
	results := make([]model.ValidationResult, 0, len(finished))
	var records []*model.MaterialRecord
	for _, sl := range finished {
		results = append(results, sl.out.Result)
		if sl.out.Record != nil {
			records = append(records, sl.out.Record)
		}
	}

	res.Results = results
	res.Records = records
	res.Processed = len(results)
	for _, r := range results {
		if r.Passed() {
			res.Passed++
		} else {
			res.Failed++
		}
		if len(r.Enhanced) > 0 {
			res.Enhanced++
		}
	}
	res.Partial = res.Processed < total
	res.CompletedAt = time.Now().UTC()

	log.Info("batch complete",
		zap.Int("processed", res.Processed),
		zap.Int("passed", res.Passed),
		zap.Int("failed", res.Failed),
		zap.Int("enhanced", res.Enhanced),
		zap.Int64("cache_hits", hits.Load()),
		zap.Bool("partial", res.Partial),
		zap.Duration("elapsed", res.Duration()),
	)

	if recording {
		// Run history is written even when the batch was interrupted.
		if err := p.opts.Recorder.Finish(context.WithoutCancel(ctx), res.RunID, res); err != nil {
			return res, eris.Wrap(err, "batch: record run")
		}
	}
	return res, nil
}

// start registers the run with the recorder. A recorder failure is logged and
// the batch continues under a local run ID.
func (p *Processor) start(ctx context.Context, res *model.BatchResult, log *zap.Logger) (string, bool) {
	if p.opts.Recorder == nil {
		return uuid.New().String(), false
	}
	id, err := p.opts.Recorder.Start(ctx, res.Operation, p.opts.Input, res.SchemaVersion)
	if err != nil {
		log.Warn("batch: run history unavailable", zap.Error(err))
		return uuid.New().String(), false
	}
	return id, true
}

// process runs op on one entry and converts every failure mode into a
// FAIL result.
func (p *Processor) process(ctx context.Context, entry ingest.Entry, op Operation) (out Outcome, hit bool) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(entry.ID, fmt.Sprintf("panic: %v", r))
			hit = false
		}
	}()

	if entry.Malformed() {
		msg := "empty entry"
		if entry.Err != nil {
			msg = entry.Err.Error()
		}
		return Outcome{Result: model.ValidationResult{
			RecordID: entry.ID,
			Findings: []model.Finding{{
				Kind:     model.ProblemMalformedRecord,
				Severity: model.SeverityError,
				Message:  msg,
			}},
			Verdict: model.VerdictFail,
			Error:   msg,
		}}, false
	}

	run := func() (Outcome, error) { return op.Process(ctx, entry.Record) }

	var err error
	if p.opts.Cache != nil {
		key, kerr := op.CacheKey(entry.Record)
		if kerr != nil {
			zap.L().Warn("batch: cache key failed", zap.String("record", entry.ID), zap.Error(kerr))
			out, err = run()
		} else {
			out, hit, err = cache.Memoize(ctx, p.opts.Cache, key, op.SchemaVersion(), run)
		}
	} else {
		out, err = run()
	}
	if err != nil {
		return failure(entry.ID, err.Error()), false
	}
	if out.Result.RecordID == "" {
		out.Result.RecordID = entry.ID
	}
	return out, hit
}

func failure(id, msg string) Outcome {
	return Outcome{Result: model.ValidationResult{
		RecordID: id,
		Verdict:  model.VerdictFail,
		Error:    msg,
	}}
}
