package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jailcheck/internal/custody/models"
)

func verdict(raw string, outcome models.Outcome) models.Verdict {
	return models.Verdict{Defendant: models.NewDefendant(raw, models.DefendantMetadata{}), Outcome: outcome}
}

func rawNames(vs []models.Verdict) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Defendant.RawName)
	}
	return out
}

func TestAggregate(t *testing.T) {
	input := []models.Verdict{
		verdict("Brown, Bradley", models.OutcomeNotInCustody),
		verdict("", models.OutcomeError),
		verdict("Murray, Nicholas", models.OutcomeInCustody),
		verdict("Adams, Avery", models.OutcomeNotInCustody),
		verdict("Smith, John", models.OutcomeInCustody),
		verdict("X", models.OutcomeError),
	}

	t.Run("groups by outcome and keeps input order within groups", func(t *testing.T) {
		res := Aggregate(input)
		assert.Equal(t, []string{
			"Murray, Nicholas", "Smith, John",
			"Brown, Bradley", "Adams, Avery",
			"", "X",
		}, rawNames(res.Verdicts))
		assert.Equal(t, models.Summary{Total: 6, InCustody: 2, NotInCustody: 2, Errors: 2}, res.Summary)
	})

	t.Run("idempotent", func(t *testing.T) {
		first := Aggregate(input)
		second := Aggregate(input)
		assert.Equal(t, first, second)
		again := Aggregate(first.Verdicts)
		assert.Equal(t, first, again)
	})

	t.Run("does not modify input", func(t *testing.T) {
		before := rawNames(input)
		Aggregate(input)
		assert.Equal(t, before, rawNames(input))
	})

	t.Run("empty input", func(t *testing.T) {
		res := Aggregate(nil)
		assert.Equal(t, models.Summary{}, res.Summary)
		require.NotNil(t, res.Verdicts)
		assert.Empty(t, res.Verdicts)
	})

	t.Run("insufficient data counts only as an error", func(t *testing.T) {
		res := Aggregate([]models.Verdict{verdict("", models.OutcomeError)})
		assert.Equal(t, models.Summary{Total: 1, Errors: 1}, res.Summary)
		assert.Empty(t, res.InCustody())
	})
}
