package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/model"
)

const maxLineSize = 4 << 20

// LoadJSON decodes a JSON document holding either a keyed object
// {"ID": {...}}, a list [{"material_id": ...}], or {"materials": [...]}.
// Each entry is decoded independently; a syntax error in the document as a
// whole is returned as an error.
func (l *Loader) LoadJSON(r io.Reader) ([]Entry, error) {
	var doc json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode json document")
	}
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 {
		return nil, eris.New("ingest: empty json document")
	}

	switch doc[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(doc, &items); err != nil {
			return nil, eris.Wrap(err, "ingest: decode json list")
		}
		return l.fromList(items), nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(doc, &obj); err != nil {
			return nil, eris.Wrap(err, "ingest: decode json object")
		}
		if raw, ok := obj["materials"]; ok && len(obj) == 1 {
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, eris.Wrap(err, "ingest: \"materials\" must be a list")
			}
			return l.fromList(items), nil
		}
		return l.fromKeyed(obj), nil
	default:
		return nil, eris.New("ingest: json document must be an object or a list")
	}
}

// LoadJSONLines decodes one record object per line. Blank lines are skipped;
// lines that do not parse become malformed entries named line-<n>.
func (l *Loader) LoadJSONLines(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []Entry
	seen := make(map[string]bool)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		fallback := fmt.Sprintf("line-%d", n)
		entries = append(entries, l.dedupe(l.decodeEntry(fallback, line, true), seen))
	}
	if err := sc.Err(); err != nil {
		return entries, eris.Wrap(err, "ingest: read json lines")
	}
	return entries, nil
}

func (l *Loader) fromList(items []json.RawMessage) []Entry {
	entries := make([]Entry, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, raw := range items {
		e := l.decodeEntry(fmt.Sprintf("record-%d", i+1), raw, true)
		entries = append(entries, l.dedupe(e, seen))
	}
	return entries
}

func (l *Loader) fromKeyed(obj map[string]json.RawMessage) []Entry {
	ids := make([]string, 0, len(obj))
	for id := range obj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, l.decodeEntry(id, obj[id], false))
	}
	return entries
}

func (l *Loader) dedupe(e Entry, seen map[string]bool) Entry {
	if seen[e.ID] {
		return malformed(e.ID, "duplicate material_id %q", e.ID)
	}
	seen[e.ID] = true
	return e
}

// decodeEntry decodes one record object. When idFromBody is set the ID is
// read from "material_id" (or "id") and fallback is used only if absent.
func (l *Loader) decodeEntry(fallback string, raw json.RawMessage, idFromBody bool) Entry {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return malformed(fallback, "entry %s is not a json object", fallback)
	}

	id := fallback
	if idFromBody {
		for _, key := range []string{"material_id", "id"} {
			if v, ok := obj[key]; ok {
				var s string
				if err := json.Unmarshal(v, &s); err != nil || s == "" {
					return malformed(fallback, "entry %s has a non-string %s", fallback, key)
				}
				id = s
				break
			}
		}
	}
	delete(obj, "material_id")
	delete(obj, "id")

	// Records written by this tool nest their parameters under "fields".
	if nested, ok := obj["fields"]; ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(nested, &fields); err != nil {
			return malformed(id, "entry %s: \"fields\" must be an object", id)
		}
		obj = fields
	}

	rec := model.NewRecord(id)
	for name, rv := range obj {
		fv, present, err := l.decodeField(name, rv)
		if err != nil {
			return malformed(id, "entry %s field %s: %v", id, name, err)
		}
		if present {
			rec.Set(name, fv)
		}
	}
	return Entry{ID: id, Record: rec}
}

type wrappedValue struct {
	Value       *json.RawMessage `json:"value"`
	Provenance  model.Provenance `json:"provenance"`
	Confidence  *float64         `json:"confidence"`
	Uncertainty float64          `json:"uncertainty"`
	Source      string           `json:"source"`
}

// decodeField decodes a plain value or a {"value": ...} object.
func (l *Loader) decodeField(name string, raw json.RawMessage) (model.FieldValue, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return model.FieldValue{}, false, nil
	}

	switch raw[0] {
	case '[':
		return model.FieldValue{}, false, eris.New("lists are not parameter values")
	case '{':
		var w wrappedValue
		if err := json.Unmarshal(raw, &w); err != nil {
			return model.FieldValue{}, false, err
		}
		if w.Value == nil {
			return model.FieldValue{}, false, eris.New("object value has no \"value\" key")
		}
		inner := bytes.TrimSpace(*w.Value)
		if len(inner) > 0 && (inner[0] == '[' || inner[0] == '{') {
			return model.FieldValue{}, false, eris.New("nested value must be a scalar")
		}
		var v any
		if err := json.Unmarshal(inner, &v); err != nil {
			return model.FieldValue{}, false, err
		}
		if v == nil {
			return model.FieldValue{}, false, nil
		}

		fv := model.Measured(l.normalize(name, v))
		if w.Provenance != "" {
			if !w.Provenance.Valid() {
				return model.FieldValue{}, false, eris.Errorf("unknown provenance %q", w.Provenance)
			}
			fv.Provenance = w.Provenance
		}
		if w.Confidence != nil {
			if *w.Confidence < 0 || *w.Confidence > 1 {
				return model.FieldValue{}, false, eris.Errorf("confidence %g outside [0, 1]", *w.Confidence)
			}
			fv.Confidence = *w.Confidence
		}
		fv.Uncertainty = w.Uncertainty
		fv.Source = w.Source
		return fv, true, nil
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return model.FieldValue{}, false, err
		}
		return model.Measured(l.normalize(name, v)), true, nil
	}
}
