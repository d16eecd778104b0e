// Package aggregate orders custody verdicts and counts outcomes.
package aggregate

import (
	"slices"

	"jailcheck/internal/custody/models"
)

// Aggregate returns verdicts ordered IN_CUSTODY, NOT_IN_CUSTODY, ERROR,
// keeping input order within each group, with outcome counts. The input
// slice is not modified.
func Aggregate(verdicts []models.Verdict) models.Result {
	ordered := slices.Clone(verdicts)
	if ordered == nil {
		ordered = []models.Verdict{}
	}
	slices.SortStableFunc(ordered, func(a, b models.Verdict) int {
		return a.Outcome.Rank() - b.Outcome.Rank()
	})
	return models.Result{Summary: Summarize(ordered), Verdicts: ordered}
}

// Summarize counts verdict outcomes. Anything that is neither IN_CUSTODY nor
// NOT_IN_CUSTODY counts as an error.
func Summarize(verdicts []models.Verdict) models.Summary {
	s := models.Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Outcome {
		case models.OutcomeInCustody:
			s.InCustody++
		case models.OutcomeNotInCustody:
			s.NotInCustody++
		default:
			s.Errors++
		}
	}
	return s
}
