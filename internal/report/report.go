// Package report writes batch results as JSON, plain text or XLSX, and
// writes enhanced datasets back out as keyed JSON.
package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/model"
)

// Format is a report output format.
type Format string

const (
	JSON Format = "json"
	Text Format = "text"
	XLSX Format = "xlsx"
)

// ParseFormat validates a format name. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, Text, XLSX:
		return f, nil
	default:
		return "", eris.Errorf("report: unknown format %q", s)
	}
}

// Write writes res to path in the given format.
func Write(path string, format Format, res *model.BatchResult) error {
	switch format {
	case JSON, "":
		return WriteJSON(path, res)
	case Text:
		return writeAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, FormatText(res))
			return err
		})
	case XLSX:
		return WriteXLSX(path, res)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

type metadata struct {
	Timestamp     time.Time       `json:"timestamp"`
	RunID         string          `json:"run_id"`
	Operation     model.Operation `json:"operation"`
	SchemaVersion string          `json:"schema_version"`
	Partial       bool            `json:"partial"`
	DurationMs    int64           `json:"duration_ms"`
}

type summary struct {
	Processed int `json:"processed"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	Enhanced  int `json:"enhanced"`
}

type document struct {
	Metadata metadata                 `json:"metadata"`
	Summary  summary                  `json:"summary"`
	Results  []model.ValidationResult `json:"results"`
}

// WriteJSON writes the batch report document to path, replacing any existing
// file only once the new one is complete.
func WriteJSON(path string, res *model.BatchResult) error {
	if res == nil {
		return eris.New("report: nil result")
	}
	results := res.Results
	if results == nil {
		results = []model.ValidationResult{}
	}
	doc := document{
		Metadata: metadata{
			Timestamp:     res.CompletedAt,
			RunID:         res.RunID,
			Operation:     res.Operation,
			SchemaVersion: res.SchemaVersion,
			Partial:       res.Partial,
			DurationMs:    res.Duration().Milliseconds(),
		},
		Summary: summary{
			Processed: res.Processed,
			Passed:    res.Passed,
			Failed:    res.Failed,
			Enhanced:  res.Enhanced,
		},
		Results: results,
	}
	if doc.Metadata.Timestamp.IsZero() {
		doc.Metadata.Timestamp = time.Now().UTC()
	}
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
}

// WriteRecords writes records as a keyed object {"ID": {"material_id", "fields"}}
// with provenance on every value. The output is readable by ingest.
func WriteRecords(path string, records []*model.MaterialRecord) error {
	out := make(map[string]*model.MaterialRecord, len(records))
	for _, r := range records {
		if r != nil {
			out[r.ID] = r
		}
	}
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	})
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "report: create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := write(tmp); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "report: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "report: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "report: rename to %s", path)
	}
	return nil
}
