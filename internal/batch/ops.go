package batch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/cache"
	"github.com/prism-mfg/prism-cli/internal/enhance"
	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/validate"
)

// Outcome is what an Operation produces for one record. Record is set only
// by operations that emit a new record.
type Outcome struct {
	Result model.ValidationResult `json:"result"`
	Record *model.MaterialRecord  `json:"record,omitempty"`
}

// Operation is the per-record work of a batch. Implementations must be safe
// for concurrent use.
type Operation interface {
	Kind() model.Operation
	SchemaVersion() string
	// CacheKey addresses the outcome for rec. Equal keys must yield equal outcomes.
	CacheKey(rec *model.MaterialRecord) (string, error)
	Process(ctx context.Context, rec *model.MaterialRecord) (Outcome, error)
}

// ValidateOp validates records.
type ValidateOp struct {
	validator *validate.Validator
	opts      validate.Options
}

// NewValidateOp wraps a validator built with opts.
func NewValidateOp(v *validate.Validator, opts validate.Options) *ValidateOp {
	return &ValidateOp{validator: v, opts: opts}
}

func (o *ValidateOp) Kind() model.Operation { return model.OperationValidate }

func (o *ValidateOp) SchemaVersion() string { return o.validator.Schema().Version() }

func (o *ValidateOp) CacheKey(rec *model.MaterialRecord) (string, error) {
	return cache.Key(string(model.OperationValidate), o.SchemaVersion(), o.opts, rec)
}

func (o *ValidateOp) Process(_ context.Context, rec *model.MaterialRecord) (Outcome, error) {
	return Outcome{Result: o.validator.Validate(rec)}, nil
}

// EnhanceOp enhances records and validates the enhanced output.
type EnhanceOp struct {
	enhancer  *enhance.Enhancer
	validator *validate.Validator
	opts      validate.Options
	corpus    string
}

// NewEnhanceOp builds the enhance operation. corpusKey identifies the
// reference corpus the enhancer was built from so cached outcomes are not
// reused across corpora.
func NewEnhanceOp(e *enhance.Enhancer, v *validate.Validator, opts validate.Options, corpusKey string) *EnhanceOp {
	return &EnhanceOp{enhancer: e, validator: v, opts: opts, corpus: corpusKey}
}

// CorpusKey digests a reference corpus and the enhancer options.
func CorpusKey(version string, corpus []*model.MaterialRecord, opts enhance.Options) (string, error) {
	key, err := cache.Key("corpus", version, opts, corpus)
	if err != nil {
		return "", eris.Wrap(err, "batch: corpus key")
	}
	return key, nil
}

func (o *EnhanceOp) Kind() model.Operation { return model.OperationEnhance }

func (o *EnhanceOp) SchemaVersion() string { return o.validator.Schema().Version() }

func (o *EnhanceOp) CacheKey(rec *model.MaterialRecord) (string, error) {
	return cache.Key(string(model.OperationEnhance), o.SchemaVersion(), o.corpus, o.opts, rec)
}

func (o *EnhanceOp) Process(_ context.Context, rec *model.MaterialRecord) (Outcome, error) {
	out, findings := o.enhancer.Enhance(rec)
	if out == nil {
		return Outcome{}, eris.Wrap(model.ErrMalformedRecord, "batch: enhance")
	}
	res := o.validator.Validate(out)
	res.Enhanced = enhance.Filled(rec, out)
	res.Findings = append(res.Findings, findings...)
	return Outcome{Result: res, Record: out}, nil
}
