package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/prism-mfg/prism-cli/internal/model"
)

func byID(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

func TestLoadJSON_KeyedObject(t *testing.T) {
	t.Parallel()

	doc := `{
		"AISI-4140": {"iso_group": "p-steel", "hardness": 285, "tensile_strength": "985"},
		"AISI-1045": {"iso_group": "P-STEEL", "density": {"value": 7.85, "provenance": "derived", "confidence": 0.8}}
	}`
	entries, err := New(nil).LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "AISI-1045", entries[0].ID, "keyed entries are ordered by ID")

	r := byID(entries)["AISI-4140"].Record
	require.NotNil(t, r)
	g, _ := r.Text("iso_group")
	assert.Equal(t, "P-STEEL", g)
	uts, ok := r.Number("tensile_strength")
	require.True(t, ok, "numeric strings are coerced")
	assert.Equal(t, 985.0, uts)
	hb, _ := r.Get("hardness")
	assert.Equal(t, model.Measured(285.0), hb)

	d, _ := byID(entries)["AISI-1045"].Record.Get("density")
	assert.Equal(t, model.ProvenanceDerived, d.Provenance)
	assert.Equal(t, 0.8, d.Confidence)
}

func TestLoadJSON_ListAndWrapper(t *testing.T) {
	t.Parallel()

	list := `[{"material_id": "A", "hardness": 200}, {"id": "B", "hardness": 210}, {"hardness": 220}]`
	wrapped := `{"materials": ` + list + `}`

	for name, doc := range map[string]string{"list": list, "wrapper": wrapped} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			entries, err := New(nil).LoadJSON(strings.NewReader(doc))
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, []string{"A", "B", "record-3"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
			for _, e := range entries {
				assert.False(t, e.Malformed())
				assert.Equal(t, []string{"hardness"}, e.Record.FieldNames())
			}
		})
	}
}

func TestLoadJSON_NestedFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	doc := `{"X": {"material_id": "X", "fields": {"hardness": {"value": 200, "provenance": "interpolated", "confidence": 0.93, "uncertainty": 0.07, "source": "peers:iso_group=P-STEEL (n=5)"}}}}`
	entries, err := New(nil).LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fv, ok := entries[0].Record.Get("hardness")
	require.True(t, ok)
	assert.Equal(t, model.FieldValue{
		Value:       200.0,
		Provenance:  model.ProvenanceInterpolated,
		Confidence:  0.93,
		Uncertainty: 0.07,
		Source:      "peers:iso_group=P-STEEL (n=5)",
	}, fv)
}

func TestLoadJSON_MalformedEntries(t *testing.T) {
	t.Parallel()

	doc := `[
		{"material_id": "ok", "hardness": 200},
		"not an object",
		{"material_id": "list-value", "hardness": [1, 2]},
		{"material_id": "no-value", "hardness": {"provenance": "measured"}},
		{"material_id": "bad-provenance", "hardness": {"value": 1, "provenance": "guessed"}},
		{"material_id": "bad-confidence", "hardness": {"value": 1, "confidence": 3}},
		{"material_id": 42},
		{"material_id": "ok", "hardness": 201}
	]`
	entries, err := New(nil).LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 8)

	assert.False(t, entries[0].Malformed())
	for _, e := range entries[1:] {
		assert.True(t, e.Malformed(), e.ID)
		assert.True(t, eris.Is(e.Err, model.ErrMalformedRecord), e.ID)
	}
	assert.Equal(t, "record-2", entries[1].ID)
	assert.Equal(t, "record-7", entries[6].ID)
	assert.Contains(t, entries[7].Err.Error(), "duplicate material_id")
}

func TestLoadJSON_NullAndWrongKindValues(t *testing.T) {
	t.Parallel()

	entries, err := New(nil).LoadJSON(strings.NewReader(`{"X": {"hardness": null, "density": "heavy", "name": true}}`))
	require.NoError(t, err)
	r := entries[0].Record

	assert.False(t, r.Has("hardness"), "null is absent")
	d, _ := r.Get("density")
	assert.Equal(t, "heavy", d.Value, "left for the validator to flag")
	n, _ := r.Get("name")
	assert.Equal(t, true, n.Value)
}

func TestLoadJSON_NonFiniteNumericStrings(t *testing.T) {
	t.Parallel()

	entries, err := New(nil).LoadJSON(strings.NewReader(`{"X": {"hardness": "NaN", "density": "-Inf", "melting_point": "infinity", "specific_heat": "486"}}`))
	require.NoError(t, err)
	r := entries[0].Record

	for name, raw := range map[string]string{"hardness": "NaN", "density": "-Inf", "melting_point": "infinity"} {
		fv, ok := r.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, raw, fv.Value, name)
	}
	cp, ok := r.Number("specific_heat")
	require.True(t, ok)
	assert.Equal(t, 486.0, cp)
}

func TestLoadCSV_NonFiniteCellKeptAsText(t *testing.T) {
	t.Parallel()

	entries, err := New(nil).LoadCSV(strings.NewReader("material_id,hardness\nA,Inf\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	fv, _ := entries[0].Record.Get("hardness")
	assert.Equal(t, "Inf", fv.Value)
}

func TestLoadJSON_DocumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"syntax error", `{"X": {"hardness": 200}`},
		{"empty", ``},
		{"scalar", `42`},
		{"materials not a list", `{"materials": {"a": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(nil).LoadJSON(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadJSONLines(t *testing.T) {
	t.Parallel()

	doc := strings.Join([]string{
		`{"material_id": "A", "hardness": 200}`,
		``,
		`{"material_id": "B", "hardness": `,
		`{"material_id": "C", "iso_group": "n-nonferrous"}`,
	}, "\n")

	entries, err := New(nil).LoadJSONLines(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "A", entries[0].ID)
	assert.Equal(t, "line-3", entries[1].ID)
	assert.True(t, entries[1].Malformed())
	g, _ := entries[2].Record.Text("iso_group")
	assert.Equal(t, "N-NONFERROUS", g)
}

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("materials")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "materials.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	t.Parallel()

	path := createTestXLSX(t, [][]string{
		{"Material_ID", "iso_group", "hardness", "condition"},
		{"AISI-1045", "P-STEEL", "170", "quenched tempered"},
		{"", "", "", ""},
		{"", "K-CAST_IRON", "", ""},
	})

	entries, err := New(nil).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	r := entries[0].Record
	assert.Equal(t, "AISI-1045", r.ID)
	hb, _ := r.Number("hardness")
	assert.Equal(t, 170.0, hb)
	c, _ := r.Text("condition")
	assert.Equal(t, "QUENCHED_TEMPERED", c)
	assert.False(t, r.Has("material_id"))

	assert.Equal(t, "row-4", entries[1].ID)
	assert.Equal(t, []string{"iso_group"}, entries[1].Record.FieldNames())
}

func TestLoadXLSX_NoIDColumn(t *testing.T) {
	t.Parallel()

	path := createTestXLSX(t, [][]string{{"hardness"}, {"170"}})
	_, err := New(nil).LoadXLSX(path)
	assert.ErrorContains(t, err, "no material_id column")
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	doc := "# exported from shop floor\n" +
		"material_id,iso_group,hardness,tensile_strength\n" +
		"AISI-4140, p-steel ,285,985\n" +
		",,,\n" +
		"GG-25,K-CAST_IRON,210\n" +
		",N-NONFERROUS,,\n"

	entries, err := New(nil).LoadCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	r := entries[0].Record
	assert.Equal(t, "AISI-4140", r.ID)
	g, _ := r.Text("iso_group")
	assert.Equal(t, "P-STEEL", g)
	uts, _ := r.Number("tensile_strength")
	assert.Equal(t, 985.0, uts)

	assert.Equal(t, "GG-25", entries[1].ID)
	assert.False(t, entries[1].Record.Has("tensile_strength"))
	assert.Equal(t, "row-5", entries[2].ID)
}

func TestLoadCSV_NoIDColumn(t *testing.T) {
	t.Parallel()

	_, err := New(nil).LoadCSV(strings.NewReader("hardness\n170\n"))
	assert.ErrorContains(t, err, "no material_id column")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonl := filepath.Join(dir, "in.jsonl")
	require.NoError(t, os.WriteFile(jsonl, []byte(`{"material_id":"A"}`+"\n"), 0o644))
	entries, err := New(nil).LoadFile(jsonl)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	txt := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(txt, []byte("A"), 0o644))
	_, err = New(nil).LoadFile(txt)
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = New(nil).LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CARBON_STEEL", Tag("  carbon   steel "))
	assert.Equal(t, "P-STEEL", Tag("ｐ-steel"), "full-width letters fold under NFKC")
	assert.Equal(t, "GRAY_IRON", Tag("GRAY_IRON"))
}

func TestRecords(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: "a", Record: model.NewRecord("a")},
		malformed("b", "bad"),
	}
	recs := Records(entries)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)
}
