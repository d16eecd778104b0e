// Package matcher reconciles defendants against a roster snapshot.
package matcher

import (
	"fmt"
	"slices"
	"strings"

	"jailcheck/internal/custody/models"
)

// Roster is the read side of a roster index.
type Roster interface {
	Lookup(key string) []models.InmateRecord
}

type options struct {
	location string
}

// Option configures Resolve.
type Option func(*options)

// WithCustodyLocation sets the facility reported on IN_CUSTODY verdicts.
func WithCustodyLocation(location string) Option {
	return func(o *options) {
		o.location = location
	}
}

// Resolve decides the custody outcome for one defendant. It makes no
// network calls and does not modify its inputs.
//
// Keys are tried in priority order and the first key with any hit wins.
// Several hits under that key still yield IN_CUSTODY, with the most recent
// booking as evidence, every hit kept as a candidate, and an ambiguous-match
// annotation. A defendant without keys is an ERROR regardless of the roster.
func Resolve(d models.DefendantIdentity, roster Roster, opts ...Option) models.Verdict {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	v := models.Verdict{Defendant: d}
	keys := d.Keys()
	if len(keys) == 0 {
		v.Outcome = models.OutcomeError
		v.Err = models.NewInsufficientDataError()
		v.Reason = v.Err.Category
		v.Detail = models.DetailInsufficientName
		return v
	}

	for _, key := range keys {
		hits := roster.Lookup(key)
		if len(hits) == 0 {
			continue
		}
		candidates := slices.Clone(hits)
		slices.SortStableFunc(candidates, byMostRecentBooking)

		v.Outcome = models.OutcomeInCustody
		v.MatchedKey = key
		v.Inmate = &candidates[0]
		v.Candidates = candidates
		v.CustodyLocation = o.location
		if len(candidates) > 1 {
			v.Err = models.NewAmbiguousMatchError(key, len(candidates))
			v.Reason = v.Err.Category
			v.Detail = ambiguityDetail(candidates)
		}
		return v
	}

	v.Outcome = models.OutcomeNotInCustody
	return v
}

// byMostRecentBooking sorts later bookings first; undated bookings last.
func byMostRecentBooking(a, b models.InmateRecord) int {
	switch {
	case a.BookingDate.Equal(b.BookingDate):
		return 0
	case a.BookingDate.IsZero():
		return 1
	case b.BookingDate.IsZero():
		return -1
	case a.BookingDate.After(b.BookingDate):
		return -1
	default:
		return 1
	}
}

func ambiguityDetail(candidates []models.InmateRecord) string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		label := c.FullName
		if c.BookingNumber != "" {
			label += " #" + c.BookingNumber
		}
		names = append(names, label)
	}
	return fmt.Sprintf("multiple candidates: %s", strings.Join(names, "; "))
}
