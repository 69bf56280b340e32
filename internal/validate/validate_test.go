package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/schema"
)

// steel1045 returns a record with every required parameter present and
// physically consistent.
func steel1045() *model.MaterialRecord {
	r := model.NewRecord("AISI-1045")
	for k, v := range map[string]any{
		"name":                 "AISI 1045",
		"iso_group":            "P-STEEL",
		"density":              7.85,
		"melting_point":        1460.0,
		"thermal_conductivity": 49.8,
		"specific_heat":        486.0,
		"elastic_modulus":      205.0,
		"tensile_strength":     585.0,
		"yield_strength":       450.0,
		"hardness":             170.0,
		"machinability_rating": 57.0,
		"kc1_1":                1800.0,
		"mc":                   0.25,
	} {
		r.Set(k, model.Measured(v))
	}
	return r
}

func kinds(res model.ValidationResult) []model.ProblemKind {
	var out []model.ProblemKind
	for _, f := range res.Findings {
		out = append(out, f.Kind)
	}
	return out
}

func TestValidate_CompleteRecordPasses(t *testing.T) {
	t.Parallel()

	v := New(schema.Default(), Options{})
	res := v.Validate(steel1045())

	assert.Equal(t, "AISI-1045", res.RecordID)
	assert.Equal(t, model.VerdictPass, res.Verdict)
	assert.Empty(t, res.Findings)
	assert.InDelta(t, 13.0/33.0, res.Completeness, 1e-9)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	t.Parallel()

	rec := steel1045()
	delete(rec.Fields, "kc1_1")

	res := New(schema.Default(), Options{}).Validate(rec)

	assert.Equal(t, model.VerdictFail, res.Verdict)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, model.Finding{
		Field:    "kc1_1",
		Kind:     model.ProblemMissingField,
		Severity: model.SeverityError,
		Message:  "required parameter is missing",
	}, res.Findings[0])
}

func TestValidate_NilValueCountsAsMissing(t *testing.T) {
	t.Parallel()

	rec := steel1045()
	rec.Set("mc", model.FieldValue{})

	res := New(schema.Default(), Options{}).Validate(rec)
	assert.Equal(t, []model.ProblemKind{model.ProblemMissingField}, kinds(res))
}

func TestValidate_InconsistentHardnessIsWarning(t *testing.T) {
	t.Parallel()

	rec := steel1045()
	rec.Set("tensile_strength", model.Measured(1200.0))
	rec.Set("hardness", model.Measured(200.0))

	res := New(schema.Default(), Options{}).Validate(rec)

	assert.Equal(t, model.VerdictPass, res.Verdict)
	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, model.ProblemInconsistent, f.Kind)
	assert.Equal(t, "tensile_strength", f.Field)
	assert.Equal(t, model.SeverityWarning, f.Severity)
	assert.Contains(t, f.Message, "hardness_to_tensile")
}

func TestValidate_StrictConsistencyFails(t *testing.T) {
	t.Parallel()

	rec := steel1045()
	rec.Set("tensile_strength", model.Measured(1200.0))
	rec.Set("hardness", model.Measured(200.0))

	res := New(schema.Default(), Options{StrictConsistency: true}).Validate(rec)

	assert.Equal(t, model.VerdictFail, res.Verdict)
	assert.True(t, res.HasKind(model.ProblemInconsistent))
}

func TestValidate_DerivedStrengthAboveMeasured(t *testing.T) {
	t.Parallel()

	// 3.45 * 200 = 690 expected; 500 measured is 27.5% below.
	rec := steel1045()
	rec.Set("hardness", model.Measured(200.0))
	rec.Set("tensile_strength", model.Measured(500.0))

	lenient := New(schema.Default(), Options{}).Validate(rec)
	assert.Equal(t, model.VerdictPass, lenient.Verdict)
	assert.Equal(t, []model.ProblemKind{model.ProblemInconsistent}, kinds(lenient))
	f := lenient.Findings[0]
	assert.Equal(t, "tensile_strength", f.Field)
	assert.Equal(t, model.SeverityWarning, f.Severity)
	assert.Contains(t, f.Message, "expects 690")

	strict := New(schema.Default(), Options{StrictConsistency: true}).Validate(rec)
	assert.Equal(t, model.VerdictFail, strict.Verdict)
	assert.True(t, strict.HasKind(model.ProblemInconsistent))
}

func TestValidate_Tolerance(t *testing.T) {
	t.Parallel()

	rec := steel1045()
	// 3.45 * 170 = 586.5; 650 is ~10.8% above.
	rec.Set("tensile_strength", model.Measured(650.0))

	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{"default tolerance", Options{}, false},
		{"tight global tolerance", Options{Tolerance: 0.05}, true},
		{"tight rule tolerance", Options{RuleTolerances: map[string]float64{schema.RuleHardnessTensile: 0.05}}, true},
		{"rule tolerance wins", Options{Tolerance: 0.05, RuleTolerances: map[string]float64{schema.RuleHardnessTensile: 0.2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := New(schema.Default(), tt.opts).Validate(rec)
			assert.Equal(t, tt.want, res.HasKind(model.ProblemInconsistent))
		})
	}
}

func TestValidate_SchemaOverrideTolerance(t *testing.T) {
	t.Parallel()

	s, err := schema.Default().WithOverrides(&schema.Overrides{
		Version:    "tight",
		Tolerances: map[string]float64{schema.RuleHardnessTensile: 0.05},
	})
	require.NoError(t, err)

	rec := steel1045()
	rec.Set("tensile_strength", model.Measured(650.0))

	res := New(s, Options{}).Validate(rec)
	assert.True(t, res.HasKind(model.ProblemInconsistent))
}

func TestValidate_OutOfRange(t *testing.T) {
	t.Parallel()

	t.Run("required numeric fails", func(t *testing.T) {
		t.Parallel()
		rec := steel1045()
		rec.Set("density", model.Measured(42.0))
		res := New(schema.Default(), Options{}).Validate(rec)
		assert.Equal(t, model.VerdictFail, res.Verdict)
		fs := res.FindingsFor("density")
		require.Len(t, fs, 1)
		assert.Equal(t, model.ProblemOutOfRange, fs[0].Kind)
		assert.Contains(t, fs[0].Message, "outside [1.5, 21]")
	})

	t.Run("recommended numeric warns", func(t *testing.T) {
		t.Parallel()
		rec := steel1045()
		rec.Set("poissons_ratio", model.Measured(0.9))
		res := New(schema.Default(), Options{}).Validate(rec)
		assert.Equal(t, model.VerdictPass, res.Verdict)
		fs := res.FindingsFor("poissons_ratio")
		require.Len(t, fs, 1)
		assert.Equal(t, model.SeverityWarning, fs[0].Severity)
	})

	t.Run("enum outside allowed set", func(t *testing.T) {
		t.Parallel()
		rec := steel1045()
		rec.Set("iso_group", model.Measured("X-UNOBTAINIUM"))
		res := New(schema.Default(), Options{}).Validate(rec)
		assert.Equal(t, model.VerdictFail, res.Verdict)
		assert.Equal(t, []model.ProblemKind{model.ProblemOutOfRange}, kinds(res))
	})

	t.Run("range boundary is inclusive", func(t *testing.T) {
		t.Parallel()
		rec := steel1045()
		rec.Set("mc", model.Measured(0.5))
		res := New(schema.Default(), Options{}).Validate(rec)
		assert.Empty(t, res.Findings)
	})
}

func TestValidate_MalformedField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"text in numeric", "hardness", "hard"},
		{"NaN", "density", math.NaN()},
		{"number in enum", "iso_group", 3.0},
		{"bool in string", "name", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := steel1045()
			rec.Set(tt.field, model.Measured(tt.value))
			res := New(schema.Default(), Options{}).Validate(rec)
			assert.Equal(t, model.VerdictFail, res.Verdict)
			fs := res.FindingsFor(tt.field)
			require.Len(t, fs, 1)
			assert.Equal(t, model.ProblemMalformedField, fs[0].Kind)
		})
	}
}

func TestValidate_UnknownFieldWarns(t *testing.T) {
	t.Parallel()

	rec := steel1045()
	rec.Set("flux_capacitance", model.Measured(1.21))

	res := New(schema.Default(), Options{}).Validate(rec)
	assert.Equal(t, model.VerdictPass, res.Verdict)
	assert.Equal(t, []model.ProblemKind{model.ProblemUnknownField}, kinds(res))
}

func TestValidate_RecommendedRaisesCompleteness(t *testing.T) {
	t.Parallel()

	v := New(schema.Default(), Options{})
	rec := steel1045()
	before := v.Validate(rec).Completeness

	rec.Set("poissons_ratio", model.Measured(0.29))
	rec.Set("shear_modulus", model.Measured(79.5))
	after := v.Validate(rec).Completeness

	assert.InDelta(t, 2.0/33.0, after-before, 1e-9)
}

func TestValidate_NilRecord(t *testing.T) {
	t.Parallel()

	res := New(nil, Options{}).Validate(nil)
	assert.Equal(t, model.VerdictFail, res.Verdict)
	assert.Equal(t, []model.ProblemKind{model.ProblemMalformedRecord}, kinds(res))
}

func TestValidate_FindingsSorted(t *testing.T) {
	t.Parallel()

	rec := model.NewRecord("empty")
	res := New(schema.Default(), Options{}).Validate(rec)

	require.Len(t, res.Findings, 13)
	assert.Zero(t, res.Completeness)
	for i := 1; i < len(res.Findings); i++ {
		assert.Less(t, res.Findings[i-1].Field, res.Findings[i].Field)
	}
}
