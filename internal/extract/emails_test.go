package extract

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeCFEmail applies the Cloudflare obfuscation scheme the extractor is
// expected to reverse.
func encodeCFEmail(key byte, addr string) string {
	raw := make([]byte, 0, len(addr)+1)
	raw = append(raw, key)
	for _, b := range []byte(addr) {
		raw = append(raw, b^key)
	}
	return hex.EncodeToString(raw)
}

func TestEmailsFromMailtoLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="mailto:Sales@Example-Widgets.com?subject=Hello">Email sales</a>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"sales@example-widgets.com"}, record.Emails)
}

func TestEmailsDecodeCloudflareProtection(t *testing.T) {
	t.Parallel()

	encoded := encodeCFEmail(0x42, "info@example.com")
	html := `<html><body>
		<a href="/cdn-cgi/l/email-protection#` + encoded + `">[email protected]</a>
		<span class="__cf_email__" data-cfemail="` + encodeCFEmail(0x7f, "support@example.com") + `"></span>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"info@example.com", "support@example.com"}, record.Emails)
}

func TestEmailsDeobfuscateSpelledOutAddresses(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<p>Reach us at hello [at] example [dot] com for details.</p>
		<p>Or try billing(at)example(dot)com.</p>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"billing@example.com", "hello@example.com"}, record.Emails)
}

func TestEmailsFromVisibleText(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div>Questions? Write to Help@Example.com anytime.</div>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"help@example.com"}, record.Emails)
}

func TestEmailsDeduplicateAndSort(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="mailto:zeta@example.com">z</a>
		<a href="mailto:alpha@example.com">a</a>
		<p>zeta@example.com</p>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, []string{"alpha@example.com", "zeta@example.com"}, record.Emails)
}

func TestDecodeCFEmailRejectsGarbage(t *testing.T) {
	t.Parallel()

	require.Empty(t, decodeCFEmail("zz-not-hex"))
	require.Empty(t, decodeCFEmail("ab"))
}
