package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const activeCasesExport = `Textbox12,Textbox3
Active Cases By Assigned Personnel Detail,
,
CaseNumbers,Title,Defendants,InitiatedOn,Type,CaseStatus
2025GS1800123,BURGLARY 2ND DEGREE,"Murray, Nicholas Edward",03/01/2025,GS,Pending
2025GS1800124,"GRAND LARCENY, VALUE $2,000","Smith, John",03/02/2025,GS,Indicted
,,ACTIVE CASES: 3,,,
,,,,,
2025GS1800125,SHOPLIFTING,"SMITH, JOHN",03/03/2025,GS,Pending
2025GS1800124,GRAND LARCENY,"smith, john",03/02/2025,GS,Indicted
`

func TestParseCSV(t *testing.T) {
	defs, err := ParseCSV(strings.NewReader(activeCasesExport))
	require.NoError(t, err)
	require.Len(t, defs, 3, "banner, blank and duplicate rows are dropped")

	first := defs[0]
	assert.Equal(t, "Murray, Nicholas Edward", first.RawName)
	assert.Equal(t, "murray", first.Name.Last)
	assert.Equal(t, "2025GS1800123", first.CaseNumber)
	assert.Equal(t, "BURGLARY 2ND DEGREE", first.Charges)
	assert.Equal(t, "03/01/2025", first.IncidentDate)
	assert.Equal(t, "Pending", first.CaseStatus)

	assert.Equal(t, "GRAND LARCENY, VALUE $2,000", defs[1].Charges)
	// same person on a different case is a separate row
	assert.Equal(t, "2025GS1800125", defs[2].CaseNumber)
}

func TestParseCSVMatterNumberAndBOM(t *testing.T) {
	in := "\ufeffMatterNumber,CaseNumbers,Defendants\nM-9,2025GS1,\"Doe, Jane\"\n"
	defs, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "M-9", defs[0].MatterNumber)
}

func TestParseCSVWithoutDefendantsColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("CaseNumbers,Title\n2025GS1,THEFT\n"))
	assert.ErrorIs(t, err, ErrNoDefendantsColumn)
}

func TestParseJSON(t *testing.T) {
	in := `[
		{"name": "Doe, Jane", "case_number": "2025GS2"},
		{"name": "   ", "case_number": "2025GS3"},
		{"name": "DOE, JANE", "case_number": "2025GS2"}
	]`
	defs, err := ParseJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "jane", defs[0].Name.First)
	assert.False(t, defs[1].Name.HasKeys(), "blank names are kept for an insufficient-data verdict")
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON(strings.NewReader(`{"name": "not an array"}`))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("csv", func(t *testing.T) {
		defs, err := ParseFile(write("cases.CSV", activeCasesExport))
		require.NoError(t, err)
		assert.Len(t, defs, 3)
	})

	t.Run("json", func(t *testing.T) {
		defs, err := ParseFile(write("cases.json", `[{"name": "Doe, Jane"}]`))
		require.NoError(t, err)
		assert.Len(t, defs, 1)
	})

	t.Run("pdf is rejected", func(t *testing.T) {
		_, err := ParseFile(write("cases.pdf", "%PDF-1.7"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := ParseFile(write("cases.xlsx", ""))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(dir, "absent.csv"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnsupportedFormat)
	})
}
