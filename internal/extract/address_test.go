package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressesFromSchemaOrgMarkup(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div itemscope itemtype="https://schema.org/PostalAddress">
			<span itemprop="streetAddress">500 Oak Avenue</span>
			<span itemprop="addressLocality">Springfield</span>
			<span itemprop="addressRegion">IL</span>
			<span itemprop="postalCode">62704</span>
		</div>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"500, Oak Avenue, Springfield, IL, 62704"}, record.Addresses)
}

func TestAddressesFromAddressElement(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<address>123 Main Street<br>Anytown, CA 90210</address>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"123, Main Street, Anytown, CA, 90210"}, record.Addresses)
}

func TestAddressesFromBodyFallback(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<p>Visit our office at 77 Harbor Boulevard, Suite 210, Portland, OR 97201, USA</p>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Len(t, record.Addresses, 1)
	require.Contains(t, record.Addresses[0], "Harbor Boulevard")
	require.Contains(t, record.Addresses[0], "97201")
}

func TestAddressesIgnorePlainProse(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<p>We have been serving the community since 1987 with pride and dedication.</p>
		<div class="address">Coming soon</div>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Empty(t, record.Addresses)
}

func TestAddressesDropSubstringDuplicates(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"123, Main Street, Anytown, CA, 90210"},
		mergeAddress([]string{"123, Main Street, Anytown, CA, 90210"}, "123, Main Street, Anytown"),
	)
	require.Equal(t,
		[]string{"123, Main Street, Anytown, CA, 90210"},
		mergeAddress([]string{"123, Main Street, Anytown"}, "123, Main Street, Anytown, CA, 90210"),
	)
}

func TestParseUSAddress(t *testing.T) {
	t.Parallel()

	addr, ok := parseUSAddress("742 Evergreen Terrace, Springfield, OR 97477")
	require.True(t, ok)
	require.Equal(t, "742", addr.houseNumber)
	require.Equal(t, "Evergreen Terrace", addr.road)
	require.Equal(t, "Springfield", addr.city)
	require.Equal(t, "OR", addr.region)
	require.Equal(t, "97477", addr.postcode)
}

func TestParseGeneralAddressHandlesCountry(t *testing.T) {
	t.Parallel()

	addr, ok := parseGeneralAddress("10 Downing Street, London SW1A 2AA, United Kingdom")
	require.True(t, ok)
	require.Equal(t, "10", addr.houseNumber)
	require.Equal(t, "Downing Street", addr.road)
	require.Equal(t, "London", addr.city)
	require.Equal(t, "SW1A 2AA", addr.postcode)
	require.Equal(t, "United Kingdom", addr.country)
}

func TestPostalAddressFormatOrderIsStable(t *testing.T) {
	t.Parallel()

	addr := postalAddress{
		houseNumber: "9",
		road:        "Rue de Rivoli",
		city:        "Paris",
		postcode:    "75001",
		country:     "France",
	}
	require.Equal(t, "9, Rue de Rivoli, Paris, 75001, France", addr.format())
}
