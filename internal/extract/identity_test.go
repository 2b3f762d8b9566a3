package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEngine(opts ...Option) *Engine {
	return NewEngine(zap.NewNop(), opts...)
}

func TestCompanyNamePrefersSiteName(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<title>Home | Acme Widgets</title>
		<meta property="og:site_name" content="Acme Widgets Inc">
		<meta property="og:title" content="Acme Widgets - Quality Tools">
	</head><body></body></html>`

	record := testEngine().Scrape(html, "https://acme.example.com/")
	require.Equal(t, "Acme Widgets Inc", record.CompanyName)
}

func TestCompanyNameFallsBackToTitleClause(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Contact Us | Bright Horizons Consulting</title></head><body></body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, "Bright Horizons Consulting", record.CompanyName)
}

func TestCompanyNameSkipsGenericLabels(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Home</title></head><body></body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Empty(t, record.CompanyName)
}

func TestCompanyNameStripsWelcomePrefix(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Welcome to Cedar Valley Dental</title></head><body></body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, "Cedar Valley Dental", record.CompanyName)
}

func TestCompanyNameUsesSchemaOrgMarkup(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<div itemscope itemtype="https://schema.org/Organization">
			<span itemprop="name">Northwind Traders</span>
		</div>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, "Northwind Traders", record.CompanyName)
}

func TestCompanyNameFromCopyrightLine(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<footer>© 2024 Harbor Light Media. All rights reserved.</footer>
	</body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Equal(t, "Harbor Light Media", record.CompanyName)
}

func TestCompanyNameRejectsLongPhrases(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<title>The very best artisanal sourdough bread delivered to your door every morning</title>
	</head><body></body></html>`

	record := testEngine().Scrape(html, "https://example.com/")
	require.Empty(t, record.CompanyName)
}

type stubRecognizer struct {
	orgs []string
}

func (s stubRecognizer) Organizations(string) []string { return s.orgs }

func TestCompanyNameUsesRecognizerAsLastResort(t *testing.T) {
	t.Parallel()

	html := `<html><body><h1>Our services</h1></body></html>`

	engine := testEngine(WithRecognizer(stubRecognizer{orgs: []string{"Quarry Labs"}}))
	record := engine.Scrape(html, "https://example.com/")
	require.Equal(t, "Quarry Labs", record.CompanyName)

	// Markup evidence must outrank recognizer output.
	html = `<html><head><meta property="og:site_name" content="Stone Soup Kitchen"></head>
		<body><h1>Hello</h1></body></html>`
	record = engine.Scrape(html, "https://example.com/")
	require.Equal(t, "Stone Soup Kitchen", record.CompanyName)
}

func TestPickWinnerBreaksTiesByLength(t *testing.T) {
	t.Parallel()

	winner := pickWinner([]candidate{
		{name: "Acme", weight: 7},
		{name: "Acme Widgets", weight: 7},
	})
	require.Equal(t, "Acme Widgets", winner)
}

func TestPickWinnerDeduplicatesCaseInsensitively(t *testing.T) {
	t.Parallel()

	winner := pickWinner([]candidate{
		{name: "acme widgets", weight: 5},
		{name: "Acme Widgets", weight: 5},
		{name: "ACME WIDGETS", weight: 8},
	})
	require.Equal(t, "ACME WIDGETS", winner)
}
