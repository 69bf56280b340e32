package model

// ParamKind is the value kind of a schema parameter.
type ParamKind string

const (
	KindNumeric ParamKind = "numeric"
	KindEnum    ParamKind = "enum"
	KindString  ParamKind = "string"
)

// Tier is how strongly a record is expected to carry a parameter.
type Tier string

const (
	TierRequired    Tier = "required"
	TierRecommended Tier = "recommended"
	TierOptional    Tier = "optional"
)

// Range is an inclusive numeric range.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// SchemaEntry describes one material parameter.
type SchemaEntry struct {
	Name    string    `json:"name"`
	Kind    ParamKind `json:"kind"`
	Tier    Tier      `json:"tier"`
	Group   string    `json:"group"`
	Unit    string    `json:"unit,omitempty"`
	Range   *Range    `json:"range,omitempty"`
	Allowed []string  `json:"allowed,omitempty"`
	Rules   []string  `json:"rules,omitempty"`
}

// Allows reports whether an enum entry accepts the given tag.
func (e SchemaEntry) Allows(tag string) bool {
	if len(e.Allowed) == 0 {
		return true
	}
	for _, a := range e.Allowed {
		if a == tag {
			return true
		}
	}
	return false
}
