package store

import (
	"time"

	"github.com/google/uuid"

	"jailcheck/internal/custody/identity"
	"jailcheck/internal/custody/models"
)

// newRun builds a completed run with one IN_CUSTODY and one ERROR verdict.
func newRun(started time.Time) *models.Run {
	bond := models.Money(150000)
	inmate := models.InmateRecord{
		BookingNumber:   "101726",
		FullName:        "MURRAY, NICHOLAS EDWARD",
		Name:            identity.Normalize("MURRAY, NICHOLAS EDWARD"),
		BookingDate:     time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC),
		BookingDateText: "03/14/2025 09:05",
		Charges:         []models.Charge{{Description: "BURGLARY 2ND DEGREE", Bond: &bond, BondText: "$1,500.00"}},
		BondAmount:      &bond,
	}
	verdicts := []models.Verdict{
		{
			Defendant:       models.NewDefendant("Murray, Nicholas Edward", models.DefendantMetadata{CaseNumber: "2025GS1800123"}),
			Outcome:         models.OutcomeInCustody,
			MatchedKey:      "murray nicholas edward",
			Inmate:          &inmate,
			Candidates:      []models.InmateRecord{inmate},
			CustodyLocation: "Dorchester County Detention Center",
		},
		{
			Defendant: models.NewDefendant("", models.DefendantMetadata{}),
			Outcome:   models.OutcomeError,
			Reason:    models.CategoryInsufficientData,
			Detail:    models.DetailInsufficientName,
		},
	}
	return &models.Run{
		ID:         uuid.New(),
		Status:     models.RunStatusCompleted,
		SourceFile: "active_cases.csv",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		RosterSize: 412,
		Result: &models.Result{
			Summary:  models.Summary{Total: 2, InCustody: 1, Errors: 1},
			Verdicts: verdicts,
		},
	}
}

func failedRun(started time.Time) *models.Run {
	return &models.Run{
		ID:          uuid.New(),
		Status:      models.RunStatusFailed,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
		Error:       "custody [incomplete_roster]: roster pagination aborted after 2 page(s)",
		ErrorReason: string(models.CategoryIncompleteRoster),
	}
}
