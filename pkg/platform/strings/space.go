// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
	"unicode"
)

// CollapseSpace trims s and replaces every internal run of whitespace,
// non-breaking spaces included, with a single ASCII space.
//
// Example:
//
//	CollapseSpace("  MURRAY,  NICHOLAS\tEDWARD ")
//	// Returns: "MURRAY, NICHOLAS EDWARD"
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// TrimTrailingPunct removes trailing periods and commas from s.
//
// Example:
//
//	TrimTrailingPunct("Jr.,")
//	// Returns: "Jr"
func TrimTrailingPunct(s string) string {
	return strings.TrimRight(s, ".,")
}
