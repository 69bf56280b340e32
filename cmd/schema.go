package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/schema"
)

var (
	schemaTier string
	schemaJSON bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List schema parameters and tier counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSchema(cfg.Paths.SchemaOverrides)
		if err != nil {
			return err
		}

		entries, err := filterEntries(s, schemaTier)
		if err != nil {
			return err
		}

		if schemaJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		formatSchema(os.Stdout, s, entries)
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaTier, "tier", "", "only list one tier (required, recommended, optional)")
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "print entries as JSON")
	rootCmd.AddCommand(schemaCmd)
}

// filterEntries returns the schema entries of one tier, or all when tier is empty.
func filterEntries(s *schema.Schema, tier string) ([]model.SchemaEntry, error) {
	all := s.Entries()
	if tier == "" {
		return all, nil
	}
	t := model.Tier(strings.ToLower(tier))
	switch t {
	case model.TierRequired, model.TierRecommended, model.TierOptional:
	default:
		return nil, eris.Errorf("unknown tier %q", tier)
	}
	var out []model.SchemaEntry
	for _, e := range all {
		if e.Tier == t {
			out = append(out, e)
		}
	}
	return out, nil
}

// formatSchema writes the tier counts, a parameter table and the cross-field
// rules to out.
func formatSchema(out io.Writer, s *schema.Schema, entries []model.SchemaEntry) {
	_, _ = fmt.Fprintf(out, "Schema %s: %d parameters (%d required, %d recommended, %d optional)\n\n",
		s.Version(), s.Count(),
		len(s.RequiredParameters()), len(s.RecommendedParameters()), len(s.OptionalParameters()))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTIER\tKIND\tUNIT\tRANGE\tGROUP")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t----\t-----\t-----")
	for _, e := range entries {
		rng := ""
		if e.Range != nil {
			rng = fmt.Sprintf("%g..%g", e.Range.Min, e.Range.Max)
		} else if len(e.Allowed) > 0 {
			rng = strings.Join(e.Allowed, "|")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Name, e.Tier, e.Kind, e.Unit, rng, e.Group)
	}
	_ = w.Flush()

	rules := s.RuleNames()
	if len(rules) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\nCross-field rules:")
	for _, r := range rules {
		line := fmt.Sprintf("  %s: %s", r, strings.Join(s.RuleParticipants(r), ", "))
		if tol, ok := s.Tolerance(r); ok {
			line += fmt.Sprintf(" (tolerance %g)", tol)
		}
		_, _ = fmt.Fprintln(out, line)
	}
}
