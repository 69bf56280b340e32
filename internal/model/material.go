package model

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// FieldValue is one parameter value of a material record together with
// where it came from.
type FieldValue struct {
	Value       any        `json:"value"`
	Provenance  Provenance `json:"provenance"`
	Confidence  float64    `json:"confidence"`
	Uncertainty float64    `json:"uncertainty,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// Measured wraps v as a measured value with full confidence.
func Measured(v any) FieldValue {
	return FieldValue{Value: v, Provenance: ProvenanceMeasured, Confidence: 1.0}
}

// Float returns the value as a finite float64.
func (fv FieldValue) Float() (float64, bool) {
	var f float64
	switch v := fv.Value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// MarshalJSON writes non-finite numbers as strings so a single bad value
// cannot make a record unencodable.
func (fv FieldValue) MarshalJSON() ([]byte, error) {
	type plain FieldValue
	out := plain(fv)
	switch v := fv.Value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out.Value = strconv.FormatFloat(v, 'g', -1, 64)
		}
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			out.Value = strconv.FormatFloat(f, 'g', -1, 32)
		}
	}
	if math.IsNaN(out.Uncertainty) || math.IsInf(out.Uncertainty, 0) {
		out.Uncertainty = 0
	}
	return json.Marshal(out)
}

// MaterialRecord is one material's parameter set keyed by parameter name.
type MaterialRecord struct {
	ID     string                `json:"material_id"`
	Fields map[string]FieldValue `json:"fields"`
}

// NewRecord creates an empty record with the given ID.
func NewRecord(id string) *MaterialRecord {
	return &MaterialRecord{ID: id, Fields: make(map[string]FieldValue)}
}

// Has reports whether the named field is present with a non-nil value.
func (r *MaterialRecord) Has(name string) bool {
	if r == nil {
		return false
	}
	fv, ok := r.Fields[name]
	return ok && fv.Value != nil
}

// Get returns the named field.
func (r *MaterialRecord) Get(name string) (FieldValue, bool) {
	if r == nil {
		return FieldValue{}, false
	}
	fv, ok := r.Fields[name]
	if !ok || fv.Value == nil {
		return FieldValue{}, false
	}
	return fv, true
}

// Number returns the named field as a float64 if it is numeric.
func (r *MaterialRecord) Number(name string) (float64, bool) {
	fv, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	return fv.Float()
}

// Text returns the named field as a string if it is textual.
func (r *MaterialRecord) Text(name string) (string, bool) {
	fv, ok := r.Get(name)
	if !ok {
		return "", false
	}
	s, ok := fv.Value.(string)
	return s, ok
}

// Set stores a field value.
func (r *MaterialRecord) Set(name string, fv FieldValue) {
	if r.Fields == nil {
		r.Fields = make(map[string]FieldValue)
	}
	r.Fields[name] = fv
}

// Clone returns a copy whose field map can be mutated independently.
func (r *MaterialRecord) Clone() *MaterialRecord {
	if r == nil {
		return nil
	}
	c := &MaterialRecord{ID: r.ID, Fields: make(map[string]FieldValue, len(r.Fields))}
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return c
}

// FieldNames returns the present field names in sorted order.
func (r *MaterialRecord) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k, v := range r.Fields {
		if v.Value != nil {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
