package report

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/prism-mfg/prism-cli/internal/model"
)

var findingColumns = []string{"record_id", "verdict", "completeness", "field", "kind", "severity", "message"}

var enhancedColumns = []string{"record_id", "field", "value", "provenance", "confidence", "confidence_level"}

// WriteXLSX writes a workbook with a Summary sheet and one Findings row per
// finding. Records without findings get a single row with their verdict.
// Enhance runs add an Enhanced sheet with one row per added value.
func WriteXLSX(path string, res *model.BatchResult) error {
	if res == nil {
		return eris.New("report: nil result")
	}
	f := xlsx.NewFile()

	sum, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addPair(sum, "Run ID", res.RunID)
	addPair(sum, "Operation", string(res.Operation))
	addPair(sum, "Schema Version", res.SchemaVersion)
	addIntPair(sum, "Processed", res.Processed)
	addIntPair(sum, "Passed", res.Passed)
	addIntPair(sum, "Failed", res.Failed)
	addIntPair(sum, "Enhanced", res.Enhanced)
	if res.Partial {
		addPair(sum, "Partial", "yes")
	} else {
		addPair(sum, "Partial", "no")
	}
	addIntPair(sum, "Duration (ms)", int(res.Duration().Milliseconds()))

	fs, err := f.AddSheet("Findings")
	if err != nil {
		return eris.Wrap(err, "report: add findings sheet")
	}
	header := fs.AddRow()
	for _, c := range findingColumns {
		header.AddCell().SetString(c)
	}
	for _, r := range res.Results {
		if len(r.Findings) == 0 {
			addFindingRow(fs, r, model.Finding{Message: r.Error})
			continue
		}
		for _, fd := range r.Findings {
			addFindingRow(fs, r, fd)
		}
	}

	if res.Operation == model.OperationEnhance {
		es, err := f.AddSheet("Enhanced")
		if err != nil {
			return eris.Wrap(err, "report: add enhanced sheet")
		}
		header := es.AddRow()
		for _, c := range enhancedColumns {
			header.AddCell().SetString(c)
		}
		for _, v := range enhancedValues(res) {
			row := es.AddRow()
			row.AddCell().SetString(v.RecordID)
			row.AddCell().SetString(v.Field)
			row.AddCell().SetString(fmt.Sprint(v.Value))
			row.AddCell().SetString(string(v.Provenance))
			row.AddCell().SetFloat(v.Confidence)
			row.AddCell().SetString(model.ConfidenceLevel(v.Confidence))
		}
	}

	return writeAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
}

func addPair(sheet *xlsx.Sheet, key, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetString(value)
}

func addIntPair(sheet *xlsx.Sheet, key string, value int) {
	row := sheet.AddRow()
	row.AddCell().SetString(key)
	row.AddCell().SetInt(value)
}

func addFindingRow(sheet *xlsx.Sheet, r model.ValidationResult, f model.Finding) {
	row := sheet.AddRow()
	row.AddCell().SetString(r.RecordID)
	row.AddCell().SetString(string(r.Verdict))
	row.AddCell().SetFloat(r.Completeness)
	row.AddCell().SetString(f.Field)
	row.AddCell().SetString(string(f.Kind))
	row.AddCell().SetString(string(f.Severity))
	row.AddCell().SetString(f.Message)
}
