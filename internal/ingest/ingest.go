// Package ingest reads prosecutor defendant lists into DefendantIdentity
// values. CSV case exports are parsed directly; PDF reports must be
// converted to the JSON form by an external extractor first.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jailcheck/internal/custody/models"
)

var (
	// ErrUnsupportedFormat is returned for inputs other than .csv and .json.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoDefendantsColumn is returned when no CSV row names a Defendants column.
	ErrNoDefendantsColumn = errors.New("csv must contain a Defendants column")
)

const (
	colDefendants = "defendants"
	colCase       = "casenumbers"
	colTitle      = "title"
	colInitiated  = "initiatedon"
	colStatus     = "casestatus"
	colMatter     = "matternumber"
)

// ParseFile picks a parser from the file extension.
func ParseFile(path string) ([]models.DefendantIdentity, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".json":
	case ".pdf":
		return nil, fmt.Errorf("%w: %s (extract it to JSON first)", ErrUnsupportedFormat, ext)
	default:
		return nil, fmt.Errorf("%w: %q, use .csv or .json", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open defendant file %s: %w", path, err)
	}
	defer f.Close()

	if ext == ".json" {
		return ParseJSON(f)
	}
	return ParseCSV(f)
}

// ParseCSV reads an "Active Cases" export. Rows before the header row are
// skipped, as are blank rows and repeated banner rows.
func ParseCSV(r io.Reader) ([]models.DefendantIdentity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var cols map[string]int
	var out dedupe
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv record: %w", err)
		}

		if cols == nil {
			cols = header(record)
			continue
		}

		raw := cell(record, cols, colDefendants)
		if raw == "" || strings.EqualFold(raw, "defendants") || strings.Contains(strings.ToUpper(raw), "ACTIVE CASES") {
			continue
		}
		out.add(models.NewDefendant(raw, models.DefendantMetadata{
			MatterNumber: cell(record, cols, colMatter),
			CaseNumber:   cell(record, cols, colCase),
			Charges:      cell(record, cols, colTitle),
			CaseStatus:   cell(record, cols, colStatus),
			IncidentDate: cell(record, cols, colInitiated),
		}))
	}
	if cols == nil {
		return nil, ErrNoDefendantsColumn
	}
	return out.list, nil
}

// header returns the column index map when record is the header row.
func header(record []string) map[string]int {
	cols := make(map[string]int, len(record))
	for i, name := range record {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := cols[key]; !seen && key != "" {
			cols[key] = i
		}
	}
	if _, ok := cols[colDefendants]; !ok {
		return nil
	}
	return cols
}

func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Entry is one defendant in the JSON input form.
type Entry struct {
	Name         string `json:"name"`
	MatterNumber string `json:"matter_number,omitempty"`
	CaseNumber   string `json:"case_number,omitempty"`
	Charges      string `json:"charges,omitempty"`
	CaseStatus   string `json:"case_status,omitempty"`
	IncidentDate string `json:"incident_date,omitempty"`
}

// Defendant converts the entry. Blank names are kept so they surface as
// insufficient-data verdicts rather than disappearing.
func (e Entry) Defendant() models.DefendantIdentity {
	return models.NewDefendant(strings.TrimSpace(e.Name), models.DefendantMetadata{
		MatterNumber: strings.TrimSpace(e.MatterNumber),
		CaseNumber:   strings.TrimSpace(e.CaseNumber),
		Charges:      strings.TrimSpace(e.Charges),
		CaseStatus:   strings.TrimSpace(e.CaseStatus),
		IncidentDate: strings.TrimSpace(e.IncidentDate),
	})
}

// ParseJSON reads a JSON array of Entry values.
func ParseJSON(r io.Reader) ([]models.DefendantIdentity, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode defendant json: %w", err)
	}
	var out dedupe
	for _, e := range entries {
		out.add(e.Defendant())
	}
	return out.list, nil
}

// dedupe keeps the first defendant per (last, first, case number).
type dedupe struct {
	seen map[[3]string]struct{}
	list []models.DefendantIdentity
}

func (d *dedupe) add(def models.DefendantIdentity) {
	if d.seen == nil {
		d.seen = make(map[[3]string]struct{})
	}
	if def.Name.HasKeys() {
		key := [3]string{def.Name.Last, def.Name.First, def.CaseNumber}
		if _, dup := d.seen[key]; dup {
			return
		}
		d.seen[key] = struct{}{}
	}
	d.list = append(d.list, def)
}
