// Package enhance fills missing material parameters from similar materials,
// physics derivations and literature defaults, recording provenance and
// confidence for every value it adds.
package enhance

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/physics"
	"github.com/prism-mfg/prism-cli/internal/schema"
)

// Strategy names one way of filling a missing parameter.
type Strategy string

const (
	StrategySimilar Strategy = "similar"
	StrategyPhysics Strategy = "physics"
	StrategyDefault Strategy = "default"
)

// DefaultStrategies is the full strategy chain in priority order.
var DefaultStrategies = []Strategy{StrategySimilar, StrategyPhysics, StrategyDefault}

// Confidence assigned by the non-statistical strategies.
const (
	DerivedConfidence = 0.8
	DefaultConfidence = 0.25
	DefaultMinPeers   = 3
)

// ParseStrategies converts configured names into strategies.
func ParseStrategies(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s := Strategy(strings.ToLower(strings.TrimSpace(n)))
		switch s {
		case StrategySimilar, StrategyPhysics, StrategyDefault:
			out = append(out, s)
		default:
			return nil, eris.Errorf("enhance: unknown strategy %q", n)
		}
	}
	return out, nil
}

// Options tunes the enhancer.
type Options struct {
	// MinPeers is the minimum number of peer values needed to interpolate.
	MinPeers int
	// IncludeOptional also targets optional parameters.
	IncludeOptional bool
	// Strategies enables strategies. Nil means DefaultStrategies.
	Strategies []Strategy
}

// Enhancer fills missing parameters. It is safe for concurrent use once built.
type Enhancer struct {
	schema      *schema.Schema
	corpus      []*model.MaterialRecord
	byClass     map[string][]*model.MaterialRecord
	byGroup     map[string][]*model.MaterialRecord
	targets     []string
	minPeers    int
	similar     bool
	physics     bool
	defaults    bool
	derivations map[string][]physics.Derivation
}

// New builds an Enhancer over a reference corpus. The corpus is copied and
// ordered by ID so results do not depend on input order.
func New(s *schema.Schema, corpus []*model.MaterialRecord, opts Options) (*Enhancer, error) {
	if s == nil {
		s = schema.Default()
	}
	if opts.MinPeers <= 0 {
		opts.MinPeers = DefaultMinPeers
	}
	strategies := opts.Strategies
	if strategies == nil {
		strategies = DefaultStrategies
	}

	e := &Enhancer{
		schema:      s,
		byClass:     make(map[string][]*model.MaterialRecord),
		byGroup:     make(map[string][]*model.MaterialRecord),
		targets:     s.Targeted(opts.IncludeOptional),
		minPeers:    opts.MinPeers,
		derivations: make(map[string][]physics.Derivation),
	}
	for _, st := range strategies {
		switch st {
		case StrategySimilar:
			e.similar = true
		case StrategyPhysics:
			e.physics = true
		case StrategyDefault:
			e.defaults = true
		default:
			return nil, eris.Errorf("enhance: unknown strategy %q", st)
		}
	}
	for _, d := range physics.Derivations() {
		e.derivations[d.Target] = append(e.derivations[d.Target], d)
	}

	for _, r := range corpus {
		if r != nil {
			e.corpus = append(e.corpus, r.Clone())
		}
	}
	sort.SliceStable(e.corpus, func(i, j int) bool { return e.corpus[i].ID < e.corpus[j].ID })
	for _, r := range e.corpus {
		if c, ok := r.Text(schema.ParamMaterialClass); ok {
			e.byClass[c] = append(e.byClass[c], r)
		}
		if g, ok := r.Text(schema.ParamISOGroup); ok {
			e.byGroup[g] = append(e.byGroup[g], r)
		}
	}
	return e, nil
}

// Enhance returns a copy of rec with missing parameters filled, plus an
// ENHANCEMENT_FAILED finding for every targeted parameter left absent.
// The input record is never modified.
func (e *Enhancer) Enhance(rec *model.MaterialRecord) (*model.MaterialRecord, []model.Finding) {
	if rec == nil {
		return nil, []model.Finding{{
			Kind:     model.ProblemMalformedRecord,
			Severity: model.SeverityError,
			Message:  "record is nil",
		}}
	}
	out := rec.Clone()

	// Interpolation and derivation run to a fixpoint first. A literature
	// default is added one field at a time so derivations can build on it.
	for {
		if e.pass(out) {
			continue
		}
		if e.defaults && e.fillDefault(out) {
			continue
		}
		break
	}

	var findings []model.Finding
	for _, name := range e.targets {
		if out.Has(name) {
			continue
		}
		findings = append(findings, model.Finding{
			Field:    name,
			Kind:     model.ProblemEnhancementFailed,
			Severity: model.SeverityWarning,
			Message:  "no strategy could produce a value",
		})
	}

	if filled := Filled(rec, out); len(filled) > 0 {
		zap.L().Debug("enhance: filled parameters",
			zap.String("record", rec.ID),
			zap.Int("filled", len(filled)),
			zap.Int("unfilled", len(findings)),
		)
	}
	return out, findings
}

// pass tries interpolation then derivation on every missing target once.
func (e *Enhancer) pass(rec *model.MaterialRecord) bool {
	progress := false
	for _, name := range e.targets {
		if rec.Has(name) {
			continue
		}
		if e.similar {
			if fv, ok := e.interpolate(rec, name); ok {
				rec.Set(name, fv)
				progress = true
				continue
			}
		}
		if e.physics {
			if fv, ok := e.derive(rec, name); ok {
				rec.Set(name, fv)
				progress = true
			}
		}
	}
	return progress
}

func (e *Enhancer) fillDefault(rec *model.MaterialRecord) bool {
	group, ok := rec.Text(schema.ParamISOGroup)
	if !ok {
		return false
	}
	for _, name := range e.targets {
		if rec.Has(name) {
			continue
		}
		v, ok := LiteratureDefault(group, name)
		if !ok {
			continue
		}
		rec.Set(name, model.FieldValue{
			Value:      v,
			Provenance: model.ProvenanceDefault,
			Confidence: DefaultConfidence,
			Source:     "literature:" + group,
		})
		return true
	}
	return false
}

// peers returns measured values of name from records sharing the material
// class, falling back to the ISO group when the class has too few.
func (e *Enhancer) peers(rec *model.MaterialRecord, name string) ([]any, string) {
	if c, ok := rec.Text(schema.ParamMaterialClass); ok {
		if vals := peerValues(e.byClass[c], rec, name); len(vals) >= e.minPeers {
			return vals, "material_class=" + c
		}
	}
	if g, ok := rec.Text(schema.ParamISOGroup); ok {
		if vals := peerValues(e.byGroup[g], rec, name); len(vals) >= e.minPeers {
			return vals, "iso_group=" + g
		}
	}
	return nil, ""
}

func peerValues(pool []*model.MaterialRecord, self *model.MaterialRecord, name string) []any {
	var vals []any
	for _, p := range pool {
		if p.ID == self.ID && self.ID != "" {
			continue
		}
		fv, ok := p.Get(name)
		if !ok || fv.Provenance != model.ProvenanceMeasured {
			continue
		}
		vals = append(vals, fv.Value)
	}
	return vals
}

func (e *Enhancer) interpolate(rec *model.MaterialRecord, name string) (model.FieldValue, bool) {
	entry, ok := e.schema.Entry(name)
	if !ok {
		return model.FieldValue{}, false
	}
	vals, basis := e.peers(rec, name)
	if len(vals) == 0 {
		return model.FieldValue{}, false
	}

	var fv model.FieldValue
	if entry.Kind == model.KindNumeric {
		nums := make([]float64, 0, len(vals))
		for _, v := range vals {
			if f, ok := (model.FieldValue{Value: v}).Float(); ok {
				nums = append(nums, f)
			}
		}
		if len(nums) < e.minPeers {
			return model.FieldValue{}, false
		}
		cv := CoefficientOfVariation(nums)
		fv = model.FieldValue{
			Value:       Median(nums),
			Confidence:  1 / (1 + cv),
			Uncertainty: cv,
		}
		basis = fmt.Sprintf("%s (n=%d)", basis, len(nums))
	} else {
		tags := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		if len(tags) < e.minPeers {
			return model.FieldValue{}, false
		}
		mode, share := Mode(tags)
		fv = model.FieldValue{
			Value:       mode,
			Confidence:  share,
			Uncertainty: 1 - share,
		}
		basis = fmt.Sprintf("%s (n=%d)", basis, len(tags))
	}
	fv.Provenance = model.ProvenanceInterpolated
	fv.Source = "peers:" + basis
	return fv, true
}

func (e *Enhancer) derive(rec *model.MaterialRecord, name string) (model.FieldValue, bool) {
	for _, d := range e.derivations[name] {
		v, ok := d.Apply(rec)
		if !ok {
			continue
		}
		conf := DerivedConfidence
		for _, in := range d.Inputs {
			if fv, ok := rec.Get(in); ok && fv.Confidence < conf {
				conf = fv.Confidence
			}
		}
		return model.FieldValue{
			Value:      v,
			Provenance: model.ProvenanceDerived,
			Confidence: conf,
			Source:     "rule:" + d.Rule,
		}, true
	}
	return model.FieldValue{}, false
}

// Filled returns the parameters present in after but not in before, sorted.
func Filled(before, after *model.MaterialRecord) []string {
	if after == nil {
		return nil
	}
	var out []string
	for _, name := range after.FieldNames() {
		if !before.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Median returns the median of vals. vals is not modified.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// CoefficientOfVariation returns the population standard deviation divided
// by the absolute mean. It is 0 for fewer than two values or a zero mean.
func CoefficientOfVariation(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if mean == 0 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss/float64(len(vals))) / math.Abs(mean)
}

// Mode returns the most frequent tag and its share of all tags. Ties go to
// the lexically smallest tag.
func Mode(tags []string) (string, float64) {
	if len(tags) == 0 {
		return "", 0
	}
	counts := make(map[string]int, len(tags))
	for _, t := range tags {
		counts[t]++
	}
	best, n := "", 0
	for t, c := range counts {
		if c > n || (c == n && t < best) {
			best, n = t, c
		}
	}
	return best, float64(n) / float64(len(tags))
}
