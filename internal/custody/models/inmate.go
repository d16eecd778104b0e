package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jailcheck/internal/custody/identity"
)

// Money is an amount in cents.
type Money int64

// String formats m as dollars, e.g. "$1,500.00".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	dollars := fmt.Sprintf("%d", int64(m)/100)
	var b strings.Builder
	for i, r := range dollars {
		if i > 0 && (len(dollars)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), int64(m)%100)
}

// ParseMoney reads a dollar amount such as "$1,500.00" or "250". It reports
// false for text without a leading amount, e.g. "NO BOND".
func ParseMoney(s string) (Money, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	whole, frac, _ := strings.Cut(s, ".")
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars < 0 {
		return 0, false
	}
	cents := int64(0)
	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		c, err := strconv.ParseInt(frac[:2], 10, 64)
		if err != nil || len(frac) > 2 && strings.Trim(frac[2:], "0") != "" {
			return 0, false
		}
		cents = c
	}
	return Money(dollars*100 + cents), true
}

// Charge is one booking charge as published on the roster.
type Charge struct {
	Description string `json:"description"`
	Bond        *Money `json:"bond,omitempty"`
	BondText    string `json:"bond_text,omitempty"`
}

// InmateRecord is one booking card from a roster snapshot.
type InmateRecord struct {
	BookingNumber   string        `json:"booking_number"`
	FullName        string        `json:"full_name"`
	Name            identity.Name `json:"name"`
	BookingDate     time.Time     `json:"booking_date"`
	BookingDateText string        `json:"booking_date_text,omitempty"`
	ArrestDateText  string        `json:"arrest_date_text,omitempty"`
	ArrestingAgency string        `json:"arresting_agency,omitempty"`
	RaceSex         string        `json:"race_sex,omitempty"`
	DateOfBirth     string        `json:"date_of_birth,omitempty"`
	Charges         []Charge      `json:"charges"`
	BondAmount      *Money        `json:"bond_amount,omitempty"`
	MugshotURL      string        `json:"mugshot_url,omitempty"`
	PhotoName       string        `json:"photo_name,omitempty"`
	// ReleaseDateText is set when the card carries a release marker.
	ReleaseDateText string `json:"release_date_text,omitempty"`
}

// ChargeDescriptions returns the charge descriptions in roster order.
func (r InmateRecord) ChargeDescriptions() []string {
	out := make([]string, 0, len(r.Charges))
	for _, c := range r.Charges {
		out = append(out, c.Description)
	}
	return out
}

// Released reports whether the card is a historical record.
func (r InmateRecord) Released() bool {
	return r.ReleaseDateText != ""
}
