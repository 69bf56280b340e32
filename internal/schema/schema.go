// Package schema holds the material parameter catalog: names, kinds, tiers,
// ranges and the cross-field rules each parameter takes part in.
package schema

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/model"
)

// Schema is an immutable, indexed parameter catalog.
type Schema struct {
	version     string
	entries     []model.SchemaEntry
	byName      map[string]int
	required    []string
	recommended []string
	optional    []string
	rules       map[string][]string
	tolerances  map[string]float64
}

// New indexes entries into a Schema. Duplicate names and inverted ranges are rejected.
func New(version string, entries []model.SchemaEntry) (*Schema, error) {
	if version == "" {
		return nil, eris.New("schema: version is required")
	}
	s := &Schema{
		version: version,
		entries: make([]model.SchemaEntry, len(entries)),
		byName:  make(map[string]int, len(entries)),
		rules:   make(map[string][]string),
	}
	copy(s.entries, entries)

	for i, e := range s.entries {
		if e.Name == "" {
			return nil, eris.Errorf("schema: entry %d has no name", i)
		}
		if _, dup := s.byName[e.Name]; dup {
			return nil, eris.Errorf("schema: duplicate parameter %q", e.Name)
		}
		if e.Kind == model.KindNumeric && e.Range != nil && e.Range.Min > e.Range.Max {
			return nil, eris.Errorf("schema: parameter %q has min %.4g > max %.4g", e.Name, e.Range.Min, e.Range.Max)
		}
		s.byName[e.Name] = i

		switch e.Tier {
		case model.TierRequired:
			s.required = append(s.required, e.Name)
		case model.TierRecommended:
			s.recommended = append(s.recommended, e.Name)
		case model.TierOptional:
			s.optional = append(s.optional, e.Name)
		default:
			return nil, eris.Errorf("schema: parameter %q has unknown tier %q", e.Name, e.Tier)
		}
		for _, r := range e.Rules {
			s.rules[r] = append(s.rules[r], e.Name)
		}
	}

	sort.Strings(s.required)
	sort.Strings(s.recommended)
	sort.Strings(s.optional)
	return s, nil
}

var defaultSchema = sync.OnceValue(func() *Schema {
	s, err := New(DefaultVersion, builtinEntries())
	if err != nil {
		panic(err)
	}
	return s
})

// Default returns the built-in parameter schema.
func Default() *Schema {
	return defaultSchema()
}

// Version returns the schema version string.
func (s *Schema) Version() string { return s.version }

// Count returns the number of distinct parameters.
func (s *Schema) Count() int { return len(s.entries) }

// RequiredParameters returns the required parameter names, sorted.
func (s *Schema) RequiredParameters() []string { return cloneStrings(s.required) }

// RecommendedParameters returns the recommended parameter names, sorted.
func (s *Schema) RecommendedParameters() []string { return cloneStrings(s.recommended) }

// OptionalParameters returns the optional parameter names, sorted.
func (s *Schema) OptionalParameters() []string { return cloneStrings(s.optional) }

// Entry looks up a parameter by name.
func (s *Schema) Entry(name string) (model.SchemaEntry, bool) {
	i, ok := s.byName[name]
	if !ok {
		return model.SchemaEntry{}, false
	}
	return s.entries[i], true
}

// Entries returns all parameters in table order.
func (s *Schema) Entries() []model.SchemaEntry {
	out := make([]model.SchemaEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// RuleNames returns the cross-field rules referenced by any parameter, sorted.
func (s *Schema) RuleNames() []string {
	names := make([]string, 0, len(s.rules))
	for r := range s.rules {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}

// Tolerance returns the overridden relative tolerance for a rule, if any.
func (s *Schema) Tolerance(rule string) (float64, bool) {
	t, ok := s.tolerances[rule]
	return t, ok
}

// RuleParticipants returns the parameters that declare the given rule.
func (s *Schema) RuleParticipants(rule string) []string {
	return cloneStrings(s.rules[rule])
}

// Targeted returns the parameters an enhancer should try to fill:
// required and recommended, plus optional when includeOptional is set.
func (s *Schema) Targeted(includeOptional bool) []string {
	out := make([]string, 0, len(s.required)+len(s.recommended)+len(s.optional))
	out = append(out, s.required...)
	out = append(out, s.recommended...)
	if includeOptional {
		out = append(out, s.optional...)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
