// Package ingest turns material datasets (JSON, JSON Lines, CSV, XLSX) into
// records. Entries that cannot be decoded are kept as malformed entries so a
// batch can report them without aborting.
package ingest

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/schema"
)

// Entry is one input record, or the reason it could not be read.
type Entry struct {
	ID     string
	Record *model.MaterialRecord
	Err    error
}

// Malformed reports whether the entry failed to decode.
func (e Entry) Malformed() bool {
	return e.Err != nil || e.Record == nil
}

// Loader decodes datasets against a schema, coercing numeric strings and
// normalizing enum tags.
type Loader struct {
	schema *schema.Schema
}

// New creates a Loader. A nil schema uses the built-in one.
func New(s *schema.Schema) *Loader {
	if s == nil {
		s = schema.Default()
	}
	return &Loader{schema: s}
}

// LoadFile reads path, choosing the decoder from its extension.
func (l *Loader) LoadFile(path string) ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return l.LoadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	switch ext {
	case ".json":
		return l.LoadJSON(f)
	case ".jsonl", ".ndjson":
		return l.LoadJSONLines(f)
	case ".csv":
		return l.LoadCSV(f)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", ext)
	}
}

// Records returns the records of well-formed entries.
func Records(entries []Entry) []*model.MaterialRecord {
	out := make([]*model.MaterialRecord, 0, len(entries))
	for _, e := range entries {
		if !e.Malformed() {
			out = append(out, e.Record)
		}
	}
	return out
}

func malformed(id, format string, args ...any) Entry {
	return Entry{ID: id, Err: eris.Wrapf(model.ErrMalformedRecord, format, args...)}
}

// normalize coerces a decoded value to the kind its schema entry expects.
// Values that cannot be coerced are returned unchanged for the validator to flag.
func (l *Loader) normalize(name string, v any) any {
	entry, ok := l.schema.Entry(name)
	if !ok {
		return v
	}
	s, isText := v.(string)
	if !isText {
		return v
	}
	switch entry.Kind {
	case model.KindNumeric:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	case model.KindEnum:
		return Tag(s)
	case model.KindString:
		return strings.TrimSpace(norm.NFKC.String(s))
	}
	return v
}

// Tag normalizes an enum tag: NFKC, trimmed, upper case, inner spaces as underscores.
func Tag(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	s = cases.Upper(language.Und).String(s)
	return strings.Join(strings.Fields(s), "_")
}
