package models

import "fmt"

// Outcome is the custody conclusion for one defendant.
type Outcome string

const (
	OutcomeInCustody    Outcome = "IN_CUSTODY"
	OutcomeNotInCustody Outcome = "NOT_IN_CUSTODY"
	OutcomeError        Outcome = "ERROR"
)

// Rank orders outcomes for presentation: in custody, not in custody, error.
func (o Outcome) Rank() int {
	switch o {
	case OutcomeInCustody:
		return 0
	case OutcomeNotInCustody:
		return 1
	default:
		return 2
	}
}

// Verdict is the resolution of one defendant against a roster snapshot.
//
// Inmate is set iff Outcome is IN_CUSTODY. Candidates holds every roster
// record that matched the winning key, most recent booking first. Reason and
// Detail are set for ERROR verdicts and for ambiguous IN_CUSTODY verdicts;
// Err carries the same failure as an error value and is not serialized.
type Verdict struct {
	Defendant       DefendantIdentity `json:"defendant"`
	Outcome         Outcome           `json:"outcome"`
	MatchedKey      string            `json:"matched_key,omitempty"`
	Inmate          *InmateRecord     `json:"inmate,omitempty"`
	Candidates      []InmateRecord    `json:"candidates,omitempty"`
	CustodyLocation string            `json:"custody_location,omitempty"`
	Reason          ErrorCategory     `json:"reason,omitempty"`
	Detail          string            `json:"detail,omitempty"`
	Err             *CustodyError     `json:"-"`
}

// Ambiguous reports whether more than one roster record matched.
func (v Verdict) Ambiguous() bool {
	return v.Reason == CategoryAmbiguousMatch
}

// StatusSummary is the one-line human-readable status.
func (v Verdict) StatusSummary() string {
	switch v.Outcome {
	case OutcomeInCustody:
		if v.Inmate != nil && v.Inmate.BookingDateText != "" {
			return "IN CUSTODY - Booked: " + v.Inmate.BookingDateText
		}
		if v.Inmate != nil {
			return "IN CUSTODY - Matched as " + v.Inmate.FullName
		}
		return "IN CUSTODY"
	case OutcomeNotInCustody:
		return "NOT IN CUSTODY"
	default:
		return fmt.Sprintf("ERROR: %s", v.Detail)
	}
}
