package roster

import (
	"fmt"
	"strings"
)

// cardHTML renders a booking card the way the booking service does.
func cardHTML(name, booking string, details ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="booking-card">`)
	fmt.Fprintf(&b, `<div class="card-header"><h5 class="card-title">%s</h5></div>`, name)
	fmt.Fprintf(&b, `<img class="booking-mugshot" src="/bookingsearch/photos/%s.jpg" alt="Booking photo for %s">`, booking, name)
	for i := 0; i+1 < len(details); i += 2 {
		fmt.Fprintf(&b, `<div class="detail-row"><span class="detail-label">%s</span><span class="detail-value">%s</span></div>`, details[i], details[i+1])
	}
	if booking != "" {
		fmt.Fprintf(&b, `<a class="btn" href="booking_detail.php?BookingID=%s&amp;AgencyID=DorchesterCoSC">View Full Details</a>`, booking)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func pageHTML(cards ...string) string {
	return `<div class="results">` + strings.Join(cards, "\n") + `</div>`
}

const emptyPageHTML = `<div class="no-results">No current confinements found.</div>`
