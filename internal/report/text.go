package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/prism-mfg/prism-cli/internal/model"
)

// FormatText renders a human-readable batch report.
func FormatText(res *model.BatchResult) string {
	var b strings.Builder
	if res == nil {
		return "No results.\n"
	}

	fmt.Fprintf(&b, "# PRISM %s report\n", res.Operation)
	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	fmt.Fprintf(&b, "Schema: %s\n", res.SchemaVersion)
	fmt.Fprintf(&b, "Duration: %s\n", res.Duration().Round(time.Millisecond))
	if res.Partial {
		b.WriteString("Status: PARTIAL (interrupted before all records were processed)\n")
	}
	b.WriteString("\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Processed: %d\n", res.Processed)
	fmt.Fprintf(&b, "- Passed: %d\n", res.Passed)
	fmt.Fprintf(&b, "- Failed: %d\n", res.Failed)
	if res.Operation == model.OperationEnhance {
		fmt.Fprintf(&b, "- Enhanced: %d\n", res.Enhanced)
	}
	b.WriteString("\n")

	// Findings by kind.
	counts := make(map[model.ProblemKind]int)
	for _, r := range res.Results {
		for _, f := range r.Findings {
			counts[f.Kind]++
		}
	}
	b.WriteString("## Findings\n")
	if len(counts) == 0 {
		b.WriteString("No findings.\n\n")
	} else {
		for _, k := range kindOrder {
			if n := counts[k]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", k, n)
			}
		}
		b.WriteString("\n")
	}

	if res.Operation == model.OperationEnhance {
		b.WriteString("## Enhanced Values\n")
		vals := enhancedValues(res)
		if len(vals) == 0 {
			b.WriteString("No values added.\n\n")
		} else {
			for _, v := range vals {
				fmt.Fprintf(&b, "- %s %s = %v (%s, confidence %.2f %s)\n",
					v.RecordID, v.Field, v.Value, v.Provenance, v.Confidence, model.ConfidenceLevel(v.Confidence))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Failed Records\n")
	if res.Failed == 0 {
		b.WriteString("No failed records.\n")
		return b.String()
	}
	for _, r := range res.Results {
		if r.Passed() {
			continue
		}
		fmt.Fprintf(&b, "- %s (completeness %.0f%%)\n", r.RecordID, r.Completeness*100)
		if r.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", r.Error)
		}
		for _, f := range r.Findings {
			if f.Severity != model.SeverityError || f.Kind == model.ProblemMalformedRecord {
				continue
			}
			fmt.Fprintf(&b, "  - %s %s: %s\n", f.Kind, f.Field, f.Message)
		}
	}
	return b.String()
}

// enhancedValue is one value the enhancer added to an output record.
type enhancedValue struct {
	RecordID   string
	Field      string
	Value      any
	Provenance model.Provenance
	Confidence float64
}

// enhancedValues lists every non-measured value of the output records in
// record then field order.
func enhancedValues(res *model.BatchResult) []enhancedValue {
	var out []enhancedValue
	for _, r := range res.Records {
		if r == nil {
			continue
		}
		for _, name := range r.FieldNames() {
			fv := r.Fields[name]
			if fv.Provenance == "" || fv.Provenance == model.ProvenanceMeasured {
				continue
			}
			out = append(out, enhancedValue{
				RecordID:   r.ID,
				Field:      name,
				Value:      fv.Value,
				Provenance: fv.Provenance,
				Confidence: fv.Confidence,
			})
		}
	}
	return out
}

var kindOrder = []model.ProblemKind{
	model.ProblemMissingField,
	model.ProblemOutOfRange,
	model.ProblemMalformedField,
	model.ProblemInconsistent,
	model.ProblemMalformedRecord,
	model.ProblemEnhancementFailed,
	model.ProblemUnknownField,
}
