package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jailcheck/internal/custody/aggregate"
	"jailcheck/internal/custody/identity"
	"jailcheck/internal/custody/models"
)

var started = time.Date(2025, 6, 2, 14, 30, 5, 0, time.UTC)

func completedRun() *models.Run {
	bond := models.Money(250000)
	older := models.InmateRecord{
		BookingNumber:   "90001",
		FullName:        "SMITH, JOHN",
		Name:            identity.Normalize("SMITH, JOHN"),
		BookingDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		BookingDateText: "01/02/2024 00:00",
	}
	newer := models.InmateRecord{
		BookingNumber:   "101726",
		FullName:        "SMITH, JOHN",
		Name:            identity.Normalize("SMITH, JOHN"),
		BookingDate:     time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC),
		BookingDateText: "03/14/2025 09:05",
		Charges:         []models.Charge{{Description: "GRAND LARCENY"}},
		BondAmount:      &bond,
		MugshotURL:      "https://jail.example/photo/101726.jpg",
	}
	verdicts := []models.Verdict{
		{
			Defendant: models.NewDefendant("Doe, Jane", models.DefendantMetadata{CaseNumber: "2025GS1800002"}),
			Outcome:   models.OutcomeNotInCustody,
		},
		{
			Defendant:       models.NewDefendant("Smith, John", models.DefendantMetadata{CaseNumber: "2025GS1800001", MatterNumber: "M-17"}),
			Outcome:         models.OutcomeInCustody,
			Inmate:          &newer,
			Candidates:      []models.InmateRecord{newer, older},
			CustodyLocation: "Dorchester County Detention Center",
			Reason:          models.CategoryAmbiguousMatch,
			Detail:          "multiple candidates: SMITH, JOHN #101726; SMITH, JOHN #90001",
		},
		{
			Defendant: models.NewDefendant("", models.DefendantMetadata{CaseNumber: "2025GS1800003"}),
			Outcome:   models.OutcomeError,
			Reason:    models.CategoryInsufficientData,
			Detail:    "insufficient name data",
		},
	}
	result := aggregate.Aggregate(verdicts)
	return &models.Run{
		ID:         uuid.MustParse("6f1c2a4e-8d0b-4c1e-9a57-3f2b7d9e0c11"),
		Status:     models.RunStatusCompleted,
		SourceFile: "exports/Active Cases.csv",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		RosterSize: 412,
		Result:     &result,
	}
}

func TestFromRunCompleted(t *testing.T) {
	rep := FromRun(completedRun())

	assert.Equal(t, models.RunStatusCompleted, rep.Status)
	assert.Equal(t, started, rep.SearchDate)
	require.NotNil(t, rep.Summary)
	assert.Equal(t, models.Summary{Total: 3, InCustody: 1, NotInCustody: 1, Errors: 1}, *rep.Summary)

	require.Len(t, rep.CustodyResults, 3)
	first := rep.CustodyResults[0]
	assert.Equal(t, "Smith, John", first.DefendantName)
	assert.True(t, first.InCustody)
	assert.Equal(t, "101726", first.BookingNumber)
	assert.Equal(t, "$2,500.00", first.BondAmount)
	assert.Equal(t, []string{"GRAND LARCENY"}, first.ChargesAtBooking)
	assert.Equal(t, []string{"SMITH, JOHN #101726", "SMITH, JOHN #90001"}, first.Candidates)
	assert.Equal(t, "IN CUSTODY - Booked: 03/14/2025 09:05", first.StatusSummary)
	assert.Equal(t, "ambiguous_match", first.ErrorReason)

	assert.Equal(t, "NOT_IN_CUSTODY", rep.CustodyResults[1].Outcome)
	assert.Equal(t, "ERROR: insufficient name data", rep.CustodyResults[2].StatusSummary)

	require.Len(t, rep.InCustodyList, 1)
	assert.Equal(t, "M-17", rep.InCustodyList[0].MatterNumber)
}

func TestFromRunFailedCarriesNoResults(t *testing.T) {
	run := &models.Run{
		ID:          uuid.New(),
		Status:      models.RunStatusFailed,
		StartedAt:   started,
		Error:       "roster incomplete after 3 pages",
		ErrorReason: string(models.CategoryIncompleteRoster),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, run))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "failed", raw["status"])
	assert.Equal(t, "roster incomplete after 3 pages", raw["error"])
	assert.NotContains(t, raw, "summary")
	assert.NotContains(t, raw, "custody_results")
	assert.NotContains(t, raw, "in_custody_list")
}

func TestCompletedRunWithNobodyInCustodyHasEmptyList(t *testing.T) {
	run := completedRun()
	result := aggregate.Aggregate(run.Result.Verdicts[1:])
	run.Result = &result

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, run))
	assert.Contains(t, buf.String(), `"in_custody_list": []`)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Contains(t, raw, "in_custody_list")
	assert.Equal(t, []any{}, raw["in_custody_list"])
	assert.Equal(t, "completed", raw["status"])
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteFile(dir, completedRun())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Active Cases_custody_20250602_143005.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "6f1c2a4e-8d0b-4c1e-9a57-3f2b7d9e0c11", rep.RunID)
}

func TestFileNameWithoutSource(t *testing.T) {
	run := &models.Run{StartedAt: started}
	assert.Equal(t, "defendants_custody_20250602_143005.json", FileName(run))
}

func TestWriteJSONNilRun(t *testing.T) {
	assert.Error(t, WriteJSON(&bytes.Buffer{}, nil))
}
