package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prism-mfg/prism-cli/internal/batch"
	"github.com/prism-mfg/prism-cli/internal/enhance"
	"github.com/prism-mfg/prism-cli/internal/ingest"
	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/report"
	"github.com/prism-mfg/prism-cli/internal/validate"
)

// errInterrupted is returned after a partial report has been flushed.
var errInterrupted = eris.New("interrupted: partial report written")

// pipelineOptions are the per-invocation settings of validate and enhance,
// resolved from flags with config fallbacks.
type pipelineOptions struct {
	Operation   model.Operation
	Input       string
	Corpus      string
	Report      string
	Output      string
	Format      report.Format
	Concurrency int
	FailOnError bool
	Strict      bool
	Progress    bool
}

// runPipeline loads the input, runs the batch and writes the report (and the
// enhanced dataset for enhance). Unreadable input and unwritable output are
// fatal; individual record failures are not unless FailOnError is set.
func runPipeline(ctx context.Context, env *pipelineEnv, po pipelineOptions, stdout io.Writer) (*model.BatchResult, error) {
	log := zap.L().With(zap.String("operation", string(po.Operation)), zap.String("input", po.Input))

	loader := ingest.New(env.Schema)
	entries, err := loader.LoadFile(po.Input)
	if err != nil {
		return nil, eris.Wrap(err, "load input")
	}
	log.Info("input loaded", zap.Int("entries", len(entries)))

	vopts := validate.Options{
		Tolerance:         cfg.Validation.Tolerance,
		RuleTolerances:    cfg.Validation.RuleTolerances,
		StrictConsistency: cfg.Validation.StrictConsistency || po.Strict,
	}
	v := validate.New(env.Schema, vopts)

	var op batch.Operation
	switch po.Operation {
	case model.OperationValidate:
		op = batch.NewValidateOp(v, vopts)
	case model.OperationEnhance:
		op, err = buildEnhanceOp(loader, env, v, vopts, entries, po.Corpus)
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("unknown operation %q", po.Operation)
	}

	bopts := batch.Options{
		Concurrency: po.Concurrency,
		Input:       po.Input,
		Recorder:    env.Recorder,
		Cache:       env.Cache,
	}
	if po.Progress {
		bopts.OnProgress = func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	res, runErr := batch.New(bopts).Run(ctx, entries, op)
	if runErr != nil {
		// Run history is best effort once the batch itself has finished.
		log.Error("run history not recorded", zap.Error(runErr))
	}

	if err := writeOutputs(res, po, stdout); err != nil {
		return res, err
	}

	switch {
	case res.Partial:
		return res, errInterrupted
	case po.FailOnError && res.Failed > 0:
		return res, eris.Errorf("%d of %d records failed", res.Failed, res.Processed)
	}
	return res, nil
}

func buildEnhanceOp(loader *ingest.Loader, env *pipelineEnv, v *validate.Validator, vopts validate.Options, entries []ingest.Entry, corpusPath string) (*batch.EnhanceOp, error) {
	corpus := ingest.Records(entries)
	if corpusPath != "" {
		ce, err := loader.LoadFile(corpusPath)
		if err != nil {
			return nil, eris.Wrap(err, "load corpus")
		}
		corpus = ingest.Records(ce)
	}

	strategies, err := enhance.ParseStrategies(cfg.Enhance.Strategies)
	if err != nil {
		return nil, err
	}
	eopts := enhance.Options{
		MinPeers:        cfg.Enhance.MinPeers,
		IncludeOptional: cfg.Enhance.IncludeOptional,
		Strategies:      strategies,
	}
	e, err := enhance.New(env.Schema, corpus, eopts)
	if err != nil {
		return nil, eris.Wrap(err, "build enhancer")
	}
	key, err := batch.CorpusKey(env.Schema.Version(), corpus, eopts)
	if err != nil {
		return nil, err
	}
	return batch.NewEnhanceOp(e, v, vopts, key), nil
}

// writeOutputs writes the report to po.Report, or a text summary to stdout
// when no report path is set, and the enhanced dataset for enhance runs.
func writeOutputs(res *model.BatchResult, po pipelineOptions, stdout io.Writer) error {
	if po.Report == "" {
		fmt.Fprint(stdout, report.FormatText(res))
	} else {
		if err := report.Write(po.Report, po.Format, res); err != nil {
			return eris.Wrap(err, "write report")
		}
		fmt.Fprintf(stdout, "%s: %d processed, %d passed, %d failed (report: %s)\n",
			res.Operation, res.Processed, res.Passed, res.Failed, po.Report)
	}

	if res.Operation == model.OperationEnhance && po.Output != "" {
		if err := report.WriteRecords(po.Output, res.Records); err != nil {
			return eris.Wrap(err, "write enhanced records")
		}
		fmt.Fprintf(stdout, "enhanced records: %s (%d records, %d enhanced)\n", po.Output, len(res.Records), res.Enhanced)
	}
	return nil
}

// defaultOutputPath derives "<dir>/<input stem>.enhanced.json".
func defaultOutputPath(dir, input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, stem+".enhanced.json")
}
