// Package identity canonicalizes person names into comparable identities and
// the ordered lookup keys used to reconcile defendants against the jail roster.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	pkgstrings "jailcheck/pkg/platform/strings"
)

// Name is a normalized person name. All fields are lowercase with internal
// whitespace collapsed. Last never contains a generational suffix; the
// suffix, when present, is kept in Suffix for display.
type Name struct {
	First  string `json:"first"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last"`
	Suffix string `json:"suffix,omitempty"`

	// Keys are lookup keys, most specific first. Empty when the name lacks
	// either a first or a last component.
	Keys []string `json:"keys"`
}

// HasKeys reports whether the name can be looked up at all.
func (n Name) HasKeys() bool {
	return len(n.Keys) > 0
}

// Display renders the name as "last, first middle suffix".
func (n Name) Display() string {
	given := joinNonEmpty(n.First, n.Middle, n.Suffix)
	switch {
	case n.Last == "":
		return given
	case given == "":
		return n.Last
	default:
		return n.Last + ", " + given
	}
}

var generationalSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {},
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize parses raw into a Name.
//
// A comma selects "Last, First Middle"; otherwise the last token is the
// surname and everything before it is first and middle. A trailing
// generational suffix (Jr, Sr, II, III, IV) is split off the surname before
// keys are built. Unparseable input yields a Name with no keys.
func Normalize(raw string) Name {
	s := strings.ToLower(pkgstrings.CollapseSpace(fold(raw)))
	if s == "" {
		return Name{}
	}

	var surname, given []string
	if i := strings.IndexByte(s, ','); i >= 0 {
		surname = tokens(s[:i])
		given = tokens(s[i+1:])
	} else {
		surname, given = splitUncommaed(tokens(s))
	}

	var suffix []string
	surname, suffix = dropSuffixes(surname)
	for len(given) > 0 && isSuffix(given[len(given)-1]) {
		suffix = append([]string{given[len(given)-1]}, suffix...)
		given = given[:len(given)-1]
	}

	n := Name{
		Last:   strings.Join(surname, " "),
		Suffix: strings.Join(suffix, " "),
	}
	if len(given) > 0 {
		n.First = given[0]
		n.Middle = strings.Join(given[1:], " ")
	}
	n.Keys = Keys(n.Last, n.First, n.Middle)
	return n
}

// Keys returns the lookup keys for already normalized components:
// "last first middle" followed by "last first". A last-only key is never
// produced.
func Keys(last, first, middle string) []string {
	if last == "" || first == "" {
		return nil
	}
	twoPart := last + " " + first
	if middle == "" {
		return []string{twoPart}
	}
	return []string{twoPart + " " + middle, twoPart}
}

func fold(s string) string {
	out, _, err := transform.String(foldAccents, s)
	if err != nil {
		return s
	}
	return out
}

// tokens splits on whitespace and stray commas and strips trailing periods.
func tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if f = pkgstrings.TrimTrailingPunct(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// splitUncommaed handles "First Middle Last [Suffix]".
func splitUncommaed(toks []string) (surname, given []string) {
	n := len(toks)
	switch {
	case n == 0:
		return nil, nil
	case n >= 3 && isSuffix(toks[n-1]):
		return toks[n-2:], toks[:n-2]
	default:
		return toks[n-1:], toks[:n-1]
	}
}

// dropSuffixes removes suffix tokens from a surname, keeping at least one token.
func dropSuffixes(surname []string) (kept, suffix []string) {
	for _, t := range surname {
		if isSuffix(t) && len(surname) > 1 {
			suffix = append(suffix, t)
			continue
		}
		kept = append(kept, t)
	}
	return kept, suffix
}

func isSuffix(tok string) bool {
	_, ok := generationalSuffixes[tok]
	return ok
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
