// Package report renders custody-check runs as machine-readable JSON.
//
// A failed run is written with status "failed" and its error and carries no
// results, so an empty in-custody list always means the roster was read
// completely.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jailcheck/internal/custody/models"
)

// FileTimestamp is the layout of the timestamp in report file names.
const FileTimestamp = "20060102_150405"

// Report is the serialized form of a run.
type Report struct {
	SearchDate     time.Time        `json:"search_date"`
	RunID          string           `json:"run_id"`
	SourceFile     string           `json:"source_file,omitempty"`
	Status         models.RunStatus `json:"status"`
	RosterSize     int              `json:"roster_size,omitempty"`
	Error          string           `json:"error,omitempty"`
	ErrorReason    string           `json:"error_reason,omitempty"`
	Summary        *models.Summary  `json:"summary,omitempty"`
	// Completed runs carry non-nil slices, so an empty roster outcome encodes
	// as [] while failed runs omit both keys.
	CustodyResults []CustodyResult  `json:"custody_results,omitzero"`
	InCustodyList  []InCustodyEntry `json:"in_custody_list,omitzero"`
}

// CustodyResult is one defendant's row.
type CustodyResult struct {
	DefendantName    string   `json:"defendant_name"`
	MatterNumber     string   `json:"matter_number,omitempty"`
	CaseNumber       string   `json:"case_number,omitempty"`
	CaseStatus       string   `json:"case_status,omitempty"`
	Outcome          string   `json:"outcome"`
	InCustody        bool     `json:"in_custody"`
	MatchedAs        string   `json:"matched_as,omitempty"`
	BookingNumber    string   `json:"booking_number,omitempty"`
	BookingDate      string   `json:"booking_date,omitempty"`
	CustodyLocation  string   `json:"custody_location,omitempty"`
	ChargesAtBooking []string `json:"charges_at_booking,omitempty"`
	BondAmount       string   `json:"bond_amount,omitempty"`
	MugshotURL       string   `json:"mugshot_url,omitempty"`
	Candidates       []string `json:"candidates,omitempty"`
	ErrorReason      string   `json:"error_reason,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	StatusSummary    string   `json:"status_summary"`
}

// InCustodyEntry is the short form used for the in-custody list.
type InCustodyEntry struct {
	DefendantName string   `json:"defendant_name"`
	MatterNumber  string   `json:"matter_number,omitempty"`
	CaseNumber    string   `json:"case_number,omitempty"`
	BookingNumber string   `json:"booking_number,omitempty"`
	BookingDate   string   `json:"booking_date,omitempty"`
	Charges       []string `json:"charges,omitempty"`
	BondAmount    string   `json:"bond_amount,omitempty"`
}

// FromRun builds the report for run.
func FromRun(run *models.Run) Report {
	rep := Report{
		SearchDate:  run.StartedAt,
		RunID:       run.ID.String(),
		SourceFile:  run.SourceFile,
		Status:      run.Status,
		RosterSize:  run.RosterSize,
		Error:       run.Error,
		ErrorReason: run.ErrorReason,
	}
	if !run.Completed() {
		rep.Status = models.RunStatusFailed
		return rep
	}

	summary := run.Result.Summary
	rep.Summary = &summary
	rep.CustodyResults = make([]CustodyResult, 0, len(run.Result.Verdicts))
	for _, v := range run.Result.Verdicts {
		rep.CustodyResults = append(rep.CustodyResults, fromVerdict(v))
	}
	rep.InCustodyList = []InCustodyEntry{}
	for _, v := range run.Result.InCustody() {
		rep.InCustodyList = append(rep.InCustodyList, InCustodyEntry{
			DefendantName: v.Defendant.RawName,
			MatterNumber:  v.Defendant.MatterNumber,
			CaseNumber:    v.Defendant.CaseNumber,
			BookingNumber: v.Inmate.BookingNumber,
			BookingDate:   v.Inmate.BookingDateText,
			Charges:       v.Inmate.ChargeDescriptions(),
			BondAmount:    bond(v.Inmate),
		})
	}
	return rep
}

func fromVerdict(v models.Verdict) CustodyResult {
	out := CustodyResult{
		DefendantName:   v.Defendant.RawName,
		MatterNumber:    v.Defendant.MatterNumber,
		CaseNumber:      v.Defendant.CaseNumber,
		CaseStatus:      v.Defendant.CaseStatus,
		Outcome:         string(v.Outcome),
		InCustody:       v.Outcome == models.OutcomeInCustody,
		CustodyLocation: v.CustodyLocation,
		ErrorReason:     string(v.Reason),
		ErrorMessage:    v.Detail,
		StatusSummary:   v.StatusSummary(),
	}
	if v.Inmate != nil {
		out.MatchedAs = v.Inmate.FullName
		out.BookingNumber = v.Inmate.BookingNumber
		out.BookingDate = v.Inmate.BookingDateText
		out.ChargesAtBooking = v.Inmate.ChargeDescriptions()
		out.BondAmount = bond(v.Inmate)
		out.MugshotURL = v.Inmate.MugshotURL
	}
	if len(v.Candidates) > 1 {
		for _, c := range v.Candidates {
			out.Candidates = append(out.Candidates, fmt.Sprintf("%s #%s", c.FullName, c.BookingNumber))
		}
	}
	return out
}

func bond(r *models.InmateRecord) string {
	if r == nil || r.BondAmount == nil {
		return ""
	}
	return r.BondAmount.String()
}

// WriteJSON writes the indented report for run to w.
func WriteJSON(w io.Writer, run *models.Run) error {
	if run == nil {
		return fmt.Errorf("write report: run is required")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(FromRun(run)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// FileName returns "<stem>_custody_<timestamp>.json" for the run's source file.
func FileName(run *models.Run) string {
	stem := strings.TrimSuffix(filepath.Base(run.SourceFile), filepath.Ext(run.SourceFile))
	if stem == "" || stem == "." {
		stem = "defendants"
	}
	return fmt.Sprintf("%s_custody_%s.json", stem, run.StartedAt.Format(FileTimestamp))
}

// WriteFile writes the report into dir and returns the file's path.
func WriteFile(dir string, run *models.Run) (string, error) {
	if run == nil {
		return "", fmt.Errorf("write report: run is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(run))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := WriteJSON(f, run); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}
