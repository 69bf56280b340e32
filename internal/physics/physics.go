// Package physics holds the deterministic relations between material
// parameters: consistency rules for validation and derivations for enhancement.
package physics

import (
	"math"

	"github.com/prism-mfg/prism-cli/internal/schema"
)

// Empirical constants.
const (
	// TensilePerBrinell converts Brinell hardness to ultimate tensile strength in MPa
	// for steels (UTS ~= 3.45 * HB).
	TensilePerBrinell = 3.45
	// VickersPerBrinell approximates HV from HB below ~450 HB.
	VickersPerBrinell = 1.05
	// DefaultTolerance is the relative tolerance used when a rule has none configured.
	DefaultTolerance = 0.15
)

// Values is a read-only view of numeric fields.
type Values interface {
	Number(name string) (float64, bool)
}

// Comparison is how a rule compares its expected value to the actual one.
type Comparison int

const (
	// Relative flags |actual-expected|/expected > tolerance.
	Relative Comparison = iota
	// AtMost flags actual > expected*(1+tolerance).
	AtMost
)

// Rule is a cross-field consistency check: Expected computes what Target
// should be from Inputs.
type Rule struct {
	Name       string
	Target     string
	Inputs     []string
	Compare    Comparison
	Expected   func(v map[string]float64) float64
	Descriptor string
}

// Derivation computes a missing parameter from parameters already present.
type Derivation struct {
	Rule    string
	Target  string
	Inputs  []string
	Compute func(v map[string]float64) float64
}

var rules = []Rule{
	{
		Name:       schema.RuleHardnessTensile,
		Target:     schema.ParamTensileStrength,
		Inputs:     []string{schema.ParamHardness},
		Compare:    Relative,
		Expected:   func(v map[string]float64) float64 { return TensilePerBrinell * v[schema.ParamHardness] },
		Descriptor: "3.45 x hardness",
	},
	{
		Name:    schema.RuleShearModulus,
		Target:  schema.ParamShearModulus,
		Inputs:  []string{schema.ParamElasticModulus, schema.ParamPoissonsRatio},
		Compare: Relative,
		Expected: func(v map[string]float64) float64 {
			return v[schema.ParamElasticModulus] / (2 * (1 + v[schema.ParamPoissonsRatio]))
		},
		Descriptor: "E / 2(1+v)",
	},
	{
		Name:       schema.RuleVickersBrinell,
		Target:     schema.ParamHardnessHV,
		Inputs:     []string{schema.ParamHardness},
		Compare:    Relative,
		Expected:   func(v map[string]float64) float64 { return VickersPerBrinell * v[schema.ParamHardness] },
		Descriptor: "1.05 x hardness",
	},
	{
		Name:       schema.RuleThermalDiffusivity,
		Target:     schema.ParamThermalDiffusivity,
		Inputs:     []string{schema.ParamThermalConductivity, schema.ParamDensity, schema.ParamSpecificHeat},
		Compare:    Relative,
		Expected:   diffusivity,
		Descriptor: "k / (rho cp)",
	},
	{
		Name:       schema.RuleYieldRatio,
		Target:     schema.ParamYieldStrength,
		Inputs:     []string{schema.ParamTensileStrength},
		Compare:    AtMost,
		Expected:   func(v map[string]float64) float64 { return v[schema.ParamTensileStrength] },
		Descriptor: "yield <= tensile",
	},
}

var derivations = []Derivation{
	{
		Rule:    schema.RuleHardnessTensile,
		Target:  schema.ParamTensileStrength,
		Inputs:  []string{schema.ParamHardness},
		Compute: func(v map[string]float64) float64 { return TensilePerBrinell * v[schema.ParamHardness] },
	},
	{
		Rule:    schema.RuleHardnessTensile,
		Target:  schema.ParamHardness,
		Inputs:  []string{schema.ParamTensileStrength},
		Compute: func(v map[string]float64) float64 { return v[schema.ParamTensileStrength] / TensilePerBrinell },
	},
	{
		Rule:    schema.RuleVickersBrinell,
		Target:  schema.ParamHardnessHV,
		Inputs:  []string{schema.ParamHardness},
		Compute: func(v map[string]float64) float64 { return VickersPerBrinell * v[schema.ParamHardness] },
	},
	{
		Rule:    schema.RuleVickersBrinell,
		Target:  schema.ParamHardness,
		Inputs:  []string{schema.ParamHardnessHV},
		Compute: func(v map[string]float64) float64 { return v[schema.ParamHardnessHV] / VickersPerBrinell },
	},
	{
		Rule:   schema.RuleShearModulus,
		Target: schema.ParamShearModulus,
		Inputs: []string{schema.ParamElasticModulus, schema.ParamPoissonsRatio},
		Compute: func(v map[string]float64) float64 {
			return v[schema.ParamElasticModulus] / (2 * (1 + v[schema.ParamPoissonsRatio]))
		},
	},
	{
		Rule:   schema.RuleShearModulus,
		Target: schema.ParamElasticModulus,
		Inputs: []string{schema.ParamShearModulus, schema.ParamPoissonsRatio},
		Compute: func(v map[string]float64) float64 {
			return 2 * v[schema.ParamShearModulus] * (1 + v[schema.ParamPoissonsRatio])
		},
	},
	{
		Rule:    schema.RuleThermalDiffusivity,
		Target:  schema.ParamThermalDiffusivity,
		Inputs:  []string{schema.ParamThermalConductivity, schema.ParamDensity, schema.ParamSpecificHeat},
		Compute: diffusivity,
	},
}

// diffusivity returns k / (rho * cp) in mm^2/s with density in g/cm^3.
func diffusivity(v map[string]float64) float64 {
	rho := v[schema.ParamDensity] * 1000
	cp := v[schema.ParamSpecificHeat]
	if rho == 0 || cp == 0 {
		return math.NaN()
	}
	return v[schema.ParamThermalConductivity] / (rho * cp) * 1e6
}

// Rules returns the consistency rules.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Derivations returns the derivations in priority order.
func Derivations() []Derivation {
	out := make([]Derivation, len(derivations))
	copy(out, derivations)
	return out
}

// DerivationsFor returns the derivations whose target is name, in priority order.
func DerivationsFor(name string) []Derivation {
	var out []Derivation
	for _, d := range derivations {
		if d.Target == name {
			out = append(out, d)
		}
	}
	return out
}

// Gather collects the named inputs. ok is false if any is absent.
func Gather(vals Values, names []string) (map[string]float64, bool) {
	m := make(map[string]float64, len(names))
	for _, n := range names {
		f, ok := vals.Number(n)
		if !ok {
			return nil, false
		}
		m[n] = f
	}
	return m, true
}

// Check evaluates r against vals. applicable is false when the target or an
// input is absent or the expected value is not finite. deviation is the
// relative difference between actual and expected.
func (r Rule) Check(vals Values, tolerance float64) (expected, actual, deviation float64, violated, applicable bool) {
	in, ok := Gather(vals, r.Inputs)
	if !ok {
		return 0, 0, 0, false, false
	}
	actual, ok = vals.Number(r.Target)
	if !ok {
		return 0, 0, 0, false, false
	}
	expected = r.Expected(in)
	if math.IsNaN(expected) || math.IsInf(expected, 0) || expected == 0 {
		return 0, 0, 0, false, false
	}
	deviation = (actual - expected) / math.Abs(expected)
	switch r.Compare {
	case AtMost:
		violated = deviation > tolerance
	default:
		violated = math.Abs(deviation) > tolerance
	}
	return expected, actual, deviation, violated, true
}

// Apply runs d against vals. ok is false when an input is absent or the
// result is not a finite number.
func (d Derivation) Apply(vals Values) (float64, bool) {
	in, ok := Gather(vals, d.Inputs)
	if !ok {
		return 0, false
	}
	out := d.Compute(in)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}
