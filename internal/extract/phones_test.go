package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhonesFromTelLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="tel:+1-800-555-1212">Call us</a>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"+18005551212"}, record.Phones)
}

func TestPhonesFromContactContainers(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="contact-info">Phone: (212) 555-0123</div>
		<address>Fax: 212-555-0124</address>
		<footer>Call us at (212) 555-0123</footer>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"+12125550123", "+12125550124"}, record.Phones)
}

func TestPhonesDeduplicateAcrossFormats(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="tel:2125550123">Call</a>
		<div class="phone">+1 (212) 555-0123</div>
		<footer>212.555.0123</footer>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"+12125550123"}, record.Phones)
}

func TestPhonesRejectPlaceholders(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="contact">Call 123-456-7890 or 555-555-5555</div>
		<div class="contact">Order total: 1234567</div>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Empty(t, record.Phones)
}

func TestPhonesInternationalWithPrefix(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div class="contact">Tel: +44 20 7946 0958</div>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"+442079460958"}, record.Phones)
}

func TestCleanPhoneCandidate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "(212) 555-0123", cleanPhoneCandidate("Phone: (212) 555-0123"))
	require.Equal(t, "212-555-0123", cleanPhoneCandidate("212-555-0123 ext. 42"))
	require.Equal(t, "1-800-FLOWERS", cleanPhoneCandidate("Call us: 1-800-FLOWERS"))
}
