package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/model"
)

// LoadCSV reads a comma-separated table with the same layout as LoadXLSX.
// Lines starting with '#' are comments.
func (l *Loader) LoadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	return l.fromTable("csv", rows)
}

// fromTable converts rows whose first row is the header into entries.
func (l *Loader) fromTable(source string, rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	idCol := -1
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		header[i] = h
		if h == "material_id" || (h == "id" && idCol < 0) {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, eris.Errorf("ingest: %s has no material_id column", source)
	}

	var entries []Entry
	seen := make(map[string]bool)
	for r, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		id := ""
		if idCol < len(cells) {
			id = strings.TrimSpace(cells[idCol])
		}
		if id == "" {
			id = fmt.Sprintf("row-%d", r+2)
		}

		rec := model.NewRecord(id)
		for c, cell := range cells {
			if c == idCol || c >= len(header) || header[c] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			rec.Set(header[c], model.Measured(l.normalize(header[c], cell)))
		}
		entries = append(entries, l.dedupe(Entry{ID: id, Record: rec}, seen))
	}
	return entries, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
