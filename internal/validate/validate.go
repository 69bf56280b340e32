// Package validate checks material records against the parameter schema:
// completeness, value ranges and cross-field physics consistency.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/physics"
	"github.com/prism-mfg/prism-cli/internal/schema"
)

// Options tunes the validator.
type Options struct {
	// Tolerance is the relative tolerance applied to rules without their own.
	Tolerance float64
	// RuleTolerances overrides Tolerance per rule name.
	RuleTolerances map[string]float64
	// StrictConsistency makes INCONSISTENT findings fail the record.
	StrictConsistency bool
}

// Validator validates records against one schema. It holds no mutable state
// and is safe for concurrent use.
type Validator struct {
	schema *schema.Schema
	rules  []physics.Rule
	opts   Options
}

// New creates a Validator. A zero Tolerance falls back to physics.DefaultTolerance.
func New(s *schema.Schema, opts Options) *Validator {
	if s == nil {
		s = schema.Default()
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = physics.DefaultTolerance
	}
	return &Validator{schema: s, rules: physics.Rules(), opts: opts}
}

// Schema returns the schema the validator checks against.
func (v *Validator) Schema() *schema.Schema { return v.schema }

// Validate checks a record and returns its findings, completeness and verdict.
func (v *Validator) Validate(rec *model.MaterialRecord) model.ValidationResult {
	if rec == nil {
		return model.ValidationResult{
			Findings: []model.Finding{{
				Kind:     model.ProblemMalformedRecord,
				Severity: model.SeverityError,
				Message:  "record is nil",
			}},
			Verdict: model.VerdictFail,
		}
	}

	res := model.ValidationResult{RecordID: rec.ID}
	var findings []model.Finding

	// 1. Completeness.
	present, total := 0, 0
	for _, name := range v.schema.RequiredParameters() {
		total++
		if rec.Has(name) {
			present++
			continue
		}
		findings = append(findings, model.Finding{
			Field:    name,
			Kind:     model.ProblemMissingField,
			Severity: model.SeverityError,
			Message:  "required parameter is missing",
		})
	}
	for _, name := range v.schema.RecommendedParameters() {
		total++
		if rec.Has(name) {
			present++
		}
	}
	if total > 0 {
		res.Completeness = float64(present) / float64(total)
	}

	// 2. Per-field kind and range checks, in field order.
	malformed := make(map[string]bool)
	for _, name := range rec.FieldNames() {
		fv, _ := rec.Get(name)
		entry, ok := v.schema.Entry(name)
		if !ok {
			findings = append(findings, model.Finding{
				Field:    name,
				Kind:     model.ProblemUnknownField,
				Severity: model.SeverityWarning,
				Message:  "parameter is not in the schema",
			})
			continue
		}
		if f, bad := checkField(entry, fv); bad {
			malformed[name] = f.Kind == model.ProblemMalformedField
			findings = append(findings, f)
		}
	}

	// 3. Physics consistency, skipping rules that touch malformed fields.
	for _, r := range v.rules {
		if touchesAny(r, malformed) {
			continue
		}
		tol := v.tolerance(r.Name)
		expected, actual, dev, violated, ok := r.Check(rec, tol)
		if !ok || !violated {
			continue
		}
		sev := model.SeverityWarning
		if v.opts.StrictConsistency {
			sev = model.SeverityError
		}
		findings = append(findings, model.Finding{
			Field:    r.Target,
			Kind:     model.ProblemInconsistent,
			Severity: sev,
			Message: fmt.Sprintf("%s: %s expects %.4g, got %.4g (%+.1f%%, tolerance %.0f%%)",
				r.Name, r.Descriptor, expected, actual, dev*100, tol*100),
		})
	}

	sortFindings(findings)
	res.Findings = findings
	res.Verdict = verdict(findings)
	return res
}

func (v *Validator) tolerance(rule string) float64 {
	if t, ok := v.opts.RuleTolerances[rule]; ok && t > 0 {
		return t
	}
	if t, ok := v.schema.Tolerance(rule); ok {
		return t
	}
	return v.opts.Tolerance
}

// checkField returns a finding when the value has the wrong kind or lies
// outside the allowed range or set.
func checkField(e model.SchemaEntry, fv model.FieldValue) (model.Finding, bool) {
	sev := model.SeverityWarning
	if e.Tier == model.TierRequired {
		sev = model.SeverityError
	}

	switch e.Kind {
	case model.KindNumeric:
		f, ok := fv.Float()
		if !ok {
			return model.Finding{
				Field:    e.Name,
				Kind:     model.ProblemMalformedField,
				Severity: sev,
				Message:  fmt.Sprintf("expected a finite number, got %s", describe(fv.Value)),
			}, true
		}
		if e.Range != nil && !e.Range.Contains(f) {
			return model.Finding{
				Field:    e.Name,
				Kind:     model.ProblemOutOfRange,
				Severity: sev,
				Message:  fmt.Sprintf("%.4g %s outside [%.4g, %.4g]", f, e.Unit, e.Range.Min, e.Range.Max),
			}, true
		}
	case model.KindEnum:
		s, ok := fv.Value.(string)
		if !ok {
			return model.Finding{
				Field:    e.Name,
				Kind:     model.ProblemMalformedField,
				Severity: sev,
				Message:  fmt.Sprintf("expected a tag, got %s", describe(fv.Value)),
			}, true
		}
		if !e.Allows(s) {
			return model.Finding{
				Field:    e.Name,
				Kind:     model.ProblemOutOfRange,
				Severity: sev,
				Message:  fmt.Sprintf("%q is not an allowed value", s),
			}, true
		}
	case model.KindString:
		if _, ok := fv.Value.(string); !ok {
			return model.Finding{
				Field:    e.Name,
				Kind:     model.ProblemMalformedField,
				Severity: sev,
				Message:  fmt.Sprintf("expected text, got %s", describe(fv.Value)),
			}, true
		}
	}
	return model.Finding{}, false
}

func describe(v any) string {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		if math.IsInf(x, 0) {
			return "infinity"
		}
		return "a number"
	case string:
		return fmt.Sprintf("text %q", x)
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func touchesAny(r physics.Rule, fields map[string]bool) bool {
	if fields[r.Target] {
		return true
	}
	for _, in := range r.Inputs {
		if fields[in] {
			return true
		}
	}
	return false
}

func verdict(findings []model.Finding) model.Verdict {
	for _, f := range findings {
		if f.Severity != model.SeverityError {
			continue
		}
		switch f.Kind {
		case model.ProblemMissingField, model.ProblemOutOfRange, model.ProblemMalformedField,
			model.ProblemInconsistent, model.ProblemMalformedRecord:
			return model.VerdictFail
		}
	}
	return model.VerdictPass
}

// sortFindings orders findings by field then kind so output is deterministic.
func sortFindings(fs []model.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Field != fs[j].Field {
			return fs[i].Field < fs[j].Field
		}
		return fs[i].Kind < fs[j].Kind
	})
}
