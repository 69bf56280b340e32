package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/prism-mfg/prism-cli/internal/model"
)

// Overrides adjusts ranges, tiers and rule tolerances of a base schema.
type Overrides struct {
	Version    string                   `yaml:"version"`
	Parameters map[string]ParamOverride `yaml:"parameters"`
	Tolerances map[string]float64       `yaml:"tolerances"`
}

// ParamOverride replaces individual attributes of one parameter.
type ParamOverride struct {
	Min  *float64   `yaml:"min,omitempty"`
	Max  *float64   `yaml:"max,omitempty"`
	Tier model.Tier `yaml:"tier,omitempty"`
}

// LoadOverrides reads an overrides file. The YAML has a top-level "schema" key.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read overrides %s", path)
	}

	var wrapper struct {
		Schema Overrides `yaml:"schema"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "schema: parse overrides")
	}
	if wrapper.Schema.Version == "" {
		return nil, eris.New("schema: overrides must set a version")
	}
	return &wrapper.Schema, nil
}

// WithOverrides returns a new schema with o applied. The resulting version is
// "<base>+<o.Version>" so cached results keyed on the old version are not reused.
func (s *Schema) WithOverrides(o *Overrides) (*Schema, error) {
	if o == nil {
		return s, nil
	}

	entries := s.Entries()
	for name, po := range o.Parameters {
		i, ok := s.byName[name]
		if !ok {
			return nil, eris.Errorf("schema: override for unknown parameter %q", name)
		}
		e := entries[i]
		if po.Min != nil || po.Max != nil {
			if e.Kind != model.KindNumeric {
				return nil, eris.Errorf("schema: range override on non-numeric parameter %q", name)
			}
			r := model.Range{}
			if e.Range != nil {
				r = *e.Range
			}
			if po.Min != nil {
				r.Min = *po.Min
			}
			if po.Max != nil {
				r.Max = *po.Max
			}
			e.Range = &r
		}
		if po.Tier != "" {
			e.Tier = po.Tier
		}
		entries[i] = e
	}

	for rule, tol := range o.Tolerances {
		if _, ok := s.rules[rule]; !ok {
			return nil, eris.Errorf("schema: tolerance for unknown rule %q", rule)
		}
		if tol <= 0 || tol >= 1 {
			return nil, eris.Errorf("schema: tolerance for %q must be in (0, 1), got %g", rule, tol)
		}
	}

	out, err := New(s.version+"+"+o.Version, entries)
	if err != nil {
		return nil, err
	}
	out.tolerances = make(map[string]float64, len(s.tolerances)+len(o.Tolerances))
	for rule, tol := range s.tolerances {
		out.tolerances[rule] = tol
	}
	for rule, tol := range o.Tolerances {
		out.tolerances[rule] = tol
	}
	return out, nil
}
