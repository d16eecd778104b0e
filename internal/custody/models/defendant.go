package models

import "jailcheck/internal/custody/identity"

// DefendantMetadata is the case information that travels with a defendant
// from the prosecutor's list into the result.
type DefendantMetadata struct {
	MatterNumber string `json:"matter_number,omitempty"`
	CaseNumber   string `json:"case_number,omitempty"`
	Charges      string `json:"charges,omitempty"`
	CaseStatus   string `json:"case_status,omitempty"`
	IncidentDate string `json:"incident_date,omitempty"`
}

// DefendantIdentity is one defendant from the input list. It is not
// modified after NewDefendant returns.
type DefendantIdentity struct {
	RawName string        `json:"raw_name"`
	Name    identity.Name `json:"name"`
	DefendantMetadata
}

// NewDefendant normalizes raw and attaches the case metadata.
func NewDefendant(raw string, meta DefendantMetadata) DefendantIdentity {
	return DefendantIdentity{
		RawName:           raw,
		Name:              identity.Normalize(raw),
		DefendantMetadata: meta,
	}
}

// Keys returns the defendant's lookup keys, most specific first.
func (d DefendantIdentity) Keys() []string {
	return d.Name.Keys
}
