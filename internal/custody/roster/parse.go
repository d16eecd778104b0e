package roster

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"jailcheck/internal/custody/identity"
	"jailcheck/internal/custody/models"
	pkgstrings "jailcheck/pkg/platform/strings"
)

// Page is one parsed roster response.
type Page struct {
	Number  int
	Records []models.InmateRecord
	// Skipped counts booking cards without a usable name.
	Skipped int
	// End is set when the page carries no booking cards or an explicit
	// no-results marker.
	End bool
	// TotalPages is the page count advertised by the fragment, zero if absent.
	TotalPages int
}

var (
	bookingIDPattern = regexp.MustCompile(`BookingID=(\d+)`)
	pageCountPattern = regexp.MustCompile(`(?i)page\s+\d+\s+of\s+(\d+)`)
)

const photoAltPrefix = "booking photo for "

var bookingDateLayouts = []string{
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04 PM",
	"01/02/2006 03:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
}

// ParsePage extracts booking cards from a roster HTML fragment. base resolves
// relative mugshot references; it may be nil.
func ParsePage(body io.Reader, base *url.URL) (Page, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return Page{}, fmt.Errorf("parsing roster fragment: %w", err)
	}

	var page Page
	cards := findAll(doc, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "booking-card") })
	for _, card := range cards {
		rec, ok := parseCard(card, base)
		if !ok {
			page.Skipped++
			continue
		}
		page.Records = append(page.Records, rec)
	}

	noResults := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (hasClass(n, "no-results") || hasClass(n, "no-records"))
	}) != nil
	page.End = len(cards) == 0 || noResults
	page.TotalPages = totalPages(doc)
	return page, nil
}

func parseCard(card *html.Node, base *url.URL) (models.InmateRecord, bool) {
	header := findFirst(card, func(n *html.Node) bool { return isElement(n, "h5") })
	if header == nil {
		return models.InmateRecord{}, false
	}
	rec := models.InmateRecord{FullName: textOf(header)}
	rec.Name = identity.Normalize(rec.FullName)
	if !rec.Name.HasKeys() {
		return models.InmateRecord{}, false
	}

	for _, row := range findAll(card, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "detail-row") }) {
		label := findFirst(row, func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, "detail-label") })
		value := findFirst(row, func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, "detail-value") })
		if label == nil || value == nil {
			continue
		}
		applyDetail(&rec, strings.ToLower(textOf(label)), textOf(value))
	}

	for _, item := range findAll(card, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "charge-item") }) {
		if c, ok := parseCharge(item); ok {
			rec.Charges = append(rec.Charges, c)
		}
	}

	if img := findFirst(card, func(n *html.Node) bool { return isElement(n, "img") && hasClass(n, "booking-mugshot") }); img != nil {
		rec.MugshotURL = resolve(base, attr(img, "src"))
		alt := pkgstrings.CollapseSpace(attr(img, "alt"))
		if strings.HasPrefix(strings.ToLower(alt), photoAltPrefix) {
			rec.PhotoName = alt[len(photoAltPrefix):]
		}
	}

	if link := findFirst(card, func(n *html.Node) bool {
		return isElement(n, "a") && bookingIDPattern.MatchString(attr(n, "href"))
	}); link != nil {
		rec.BookingNumber = bookingIDPattern.FindStringSubmatch(attr(link, "href"))[1]
	}
	return rec, true
}

func applyDetail(rec *models.InmateRecord, label, value string) {
	switch {
	case strings.Contains(label, "booked"):
		rec.BookingDateText = value
		rec.BookingDate = parseBookingDate(value)
	case strings.Contains(label, "arrest date"):
		rec.ArrestDateText = value
	case strings.Contains(label, "arresting agency"):
		rec.ArrestingAgency = value
	case strings.Contains(label, "bond total"):
		if m, ok := models.ParseMoney(value); ok {
			rec.BondAmount = &m
		}
	case strings.Contains(label, "race"):
		rec.RaceSex = value
	case strings.Contains(label, "dob"), strings.Contains(label, "birth"):
		rec.DateOfBirth = value
	case strings.Contains(label, "release"):
		if value != "" {
			rec.ReleaseDateText = value
		}
	}
}

// parseCharge reads the description from the first div of charge-details and
// an optional "Bond: $X" line from any later div.
func parseCharge(item *html.Node) (models.Charge, bool) {
	details := findFirst(item, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "charge-details") })
	if details == nil {
		return models.Charge{}, false
	}
	divs := findAll(details, func(n *html.Node) bool { return n != details && isElement(n, "div") })
	if len(divs) == 0 {
		return models.Charge{}, false
	}
	c := models.Charge{Description: textOf(divs[0])}
	if c.Description == "" {
		return models.Charge{}, false
	}
	for _, d := range divs[1:] {
		text := textOf(d)
		if !strings.HasPrefix(strings.ToLower(text), "bond") {
			continue
		}
		_, amount, _ := strings.Cut(text, ":")
		c.BondText = strings.TrimSpace(amount)
		if m, ok := models.ParseMoney(c.BondText); ok {
			c.Bond = &m
		}
		break
	}
	return c, true
}

func parseBookingDate(s string) time.Time {
	for _, layout := range bookingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// totalPages reads a data-total-pages attribute or a "Page N of M" label.
func totalPages(doc *html.Node) int {
	if n := findFirst(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "data-total-pages") != "" }); n != nil {
		if v, err := strconv.Atoi(strings.TrimSpace(attr(n, "data-total-pages"))); err == nil && v > 0 {
			return v
		}
	}
	if n := findFirst(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && hasClass(n, "page-count") }); n != nil {
		if m := pageCountPattern.FindStringSubmatch(textOf(n)); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return v
			}
		}
	}
	return 0
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findFirst(c, match); n != nil {
			return n
		}
	}
	return nil
}

// findAll returns matching nodes in document order without descending into
// a match.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return pkgstrings.CollapseSpace(b.String())
}
