package roster

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jailcheck/internal/custody/models"
)

const fullCard = `
<div class="booking-card">
  <div class="card-header"><h5 class="card-title">
      MURRAY,   NICHOLAS EDWARD
  </h5></div>
  <img class="booking-mugshot" src="photos/101726.jpg" alt="Booking photo for NICHOLAS EDWARD MURRAY">
  <div class="detail-row"><span class="detail-label">Booked:</span><span class="detail-value">03/14/2025 09:05</span></div>
  <div class="detail-row"><span class="detail-label">Arrest Date/Time:</span><span class="detail-value">03/13/2025 23:40</span></div>
  <div class="detail-row"><span class="detail-label">Arresting Agency:</span><span class="detail-value">Dorchester County Sheriff</span></div>
  <div class="detail-row"><span class="detail-label">Race/Sex:</span><span class="detail-value">W/M</span></div>
  <div class="detail-row"><span class="detail-label">DOB:</span><span class="detail-value">01/02/1990</span></div>
  <div class="detail-row"><span class="detail-label">Bond Total:</span><span class="detail-value">$1,500.00</span></div>
  <div class="charges">
    <div class="charge-item"><div class="charge-details">
      <div>BURGLARY 2ND DEGREE</div><div>Bond: $1,000.00</div>
    </div></div>
    <div class="charge-item"><div class="charge-details">
      <div>PETIT LARCENY</div><div>Bond: NO BOND</div>
    </div></div>
  </div>
  <a href="booking_detail.php?BookingID=101726&amp;AgencyID=DorchesterCoSC">View Full Details</a>
</div>`

func TestParsePage(t *testing.T) {
	base, err := url.Parse("https://cc.example.test/bookingsearch/")
	require.NoError(t, err)

	t.Run("extracts every card field", func(t *testing.T) {
		page, err := ParsePage(strings.NewReader(fullCard), base)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.False(t, page.End)

		rec := page.Records[0]
		assert.Equal(t, "101726", rec.BookingNumber)
		assert.Equal(t, "MURRAY, NICHOLAS EDWARD", rec.FullName)
		assert.Equal(t, "murray", rec.Name.Last)
		assert.Equal(t, []string{"murray nicholas edward", "murray nicholas"}, rec.Name.Keys)
		assert.Equal(t, time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC), rec.BookingDate)
		assert.Equal(t, "03/14/2025 09:05", rec.BookingDateText)
		assert.Equal(t, "03/13/2025 23:40", rec.ArrestDateText)
		assert.Equal(t, "Dorchester County Sheriff", rec.ArrestingAgency)
		assert.Equal(t, "W/M", rec.RaceSex)
		assert.Equal(t, "01/02/1990", rec.DateOfBirth)
		require.NotNil(t, rec.BondAmount)
		assert.Equal(t, models.Money(150000), *rec.BondAmount)
		assert.Equal(t, "https://cc.example.test/bookingsearch/photos/101726.jpg", rec.MugshotURL)
		assert.Equal(t, "NICHOLAS EDWARD MURRAY", rec.PhotoName)
		assert.False(t, rec.Released())

		require.Len(t, rec.Charges, 2)
		assert.Equal(t, "BURGLARY 2ND DEGREE", rec.Charges[0].Description)
		require.NotNil(t, rec.Charges[0].Bond)
		assert.Equal(t, models.Money(100000), *rec.Charges[0].Bond)
		assert.Equal(t, "PETIT LARCENY", rec.Charges[1].Description)
		assert.Equal(t, "NO BOND", rec.Charges[1].BondText)
		assert.Nil(t, rec.Charges[1].Bond)
	})

	t.Run("uncommaed card names", func(t *testing.T) {
		page, err := ParsePage(strings.NewReader(pageHTML(cardHTML("JOHN Q PUBLIC", "7"))), base)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.Equal(t, []string{"public john q", "public john"}, page.Records[0].Name.Keys)
	})

	t.Run("release marker", func(t *testing.T) {
		html := pageHTML(cardHTML("DOE, JANE", "9", "Booked:", "01/05/2025 10:00", "Release Date:", "01/06/2025 08:00"))
		page, err := ParsePage(strings.NewReader(html), base)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.True(t, page.Records[0].Released())
		assert.Equal(t, "01/06/2025 08:00", page.Records[0].ReleaseDateText)
	})

	t.Run("cards without a usable name are skipped", func(t *testing.T) {
		html := pageHTML(
			cardHTML("CHER", "1"),
			`<div class="booking-card"><span>no header</span></div>`,
			cardHTML("SMITH, JOHN", "2"),
		)
		page, err := ParsePage(strings.NewReader(html), base)
		require.NoError(t, err)
		assert.Len(t, page.Records, 1)
		assert.Equal(t, 2, page.Skipped)
		assert.False(t, page.End)
	})

	t.Run("missing booking number and unparseable date", func(t *testing.T) {
		html := pageHTML(cardHTML("SMITH, JOHN", "", "Booked:", "sometime"))
		page, err := ParsePage(strings.NewReader(html), base)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.Empty(t, page.Records[0].BookingNumber)
		assert.True(t, page.Records[0].BookingDate.IsZero())
		assert.Equal(t, "sometime", page.Records[0].BookingDateText)
	})

	t.Run("end of results", func(t *testing.T) {
		for name, body := range map[string]string{
			"empty fragment":    "",
			"no results marker": emptyPageHTML,
			"marker with cards": pageHTML(cardHTML("SMITH, JOHN", "2")) + emptyPageHTML,
		} {
			page, err := ParsePage(strings.NewReader(body), base)
			require.NoError(t, err, name)
			assert.True(t, page.End, name)
		}
	})

	t.Run("advertised page count", func(t *testing.T) {
		page, err := ParsePage(strings.NewReader(`<div data-total-pages="4"></div>`+pageHTML(cardHTML("SMITH, JOHN", "2"))), base)
		require.NoError(t, err)
		assert.Equal(t, 4, page.TotalPages)

		page, err = ParsePage(strings.NewReader(`<span class="page-count">Page 1 of 12</span>`+pageHTML(cardHTML("SMITH, JOHN", "2"))), base)
		require.NoError(t, err)
		assert.Equal(t, 12, page.TotalPages)
	})
}
