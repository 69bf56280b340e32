package model

// Provenance records how a field value was obtained.
type Provenance string

const (
	ProvenanceMeasured     Provenance = "measured"
	ProvenanceInterpolated Provenance = "interpolated"
	ProvenanceDerived      Provenance = "derived"
	ProvenanceDefault      Provenance = "default"
)

// Valid reports whether p is one of the known provenance tags.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceMeasured, ProvenanceInterpolated, ProvenanceDerived, ProvenanceDefault:
		return true
	default:
		return false
	}
}

// Confidence thresholds used by ConfidenceLevel.
const (
	HighConfidence   = 0.75
	MediumConfidence = 0.45
)

// ConfidenceLevel maps a 0.0-1.0 confidence onto a coarse label.
func ConfidenceLevel(c float64) string {
	switch {
	case c >= HighConfidence:
		return "high"
	case c >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}
