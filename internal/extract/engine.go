package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Engine extracts lead records from HTML. One Engine is safe for
// concurrent use; it holds no per-page state.
type Engine struct {
	recognizer EntityRecognizer
	region     string
	logger     *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecognizer plugs in an entity recognizer for identity extraction.
func WithRecognizer(r EntityRecognizer) Option {
	return func(e *Engine) { e.recognizer = r }
}

// WithDefaultRegion sets the region used to parse phone numbers written
// without a country prefix. Defaults to US.
func WithDefaultRegion(region string) Option {
	return func(e *Engine) { e.region = region }
}

// NewEngine builds an extraction engine.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		recognizer: NopRecognizer(),
		region:     "US",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scrape extracts every lead field from one page. Extractors are isolated:
// a failure in one leaves the others' results intact. Scrape is pure with
// respect to its inputs, so re-running it yields the same record.
func (e *Engine) Scrape(htmlContent, sourceURL string) LeadRecord {
	record := LeadRecord{SourceURL: sourceURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		e.logger.Warn("unparseable html", zap.String("url", sourceURL), zap.Error(err))
		return record
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		base = nil
	}

	e.capture(sourceURL, "company_name", func() { record.CompanyName = e.companyName(doc) })
	e.capture(sourceURL, "phones", func() { record.Phones = e.phones(doc) })
	e.capture(sourceURL, "emails", func() { record.Emails = e.emails(doc) })
	e.capture(sourceURL, "addresses", func() { record.Addresses = e.addresses(doc) })
	e.capture(sourceURL, "social_links", func() { record.SocialLinks = e.socialLinks(doc, base) })
	e.capture(sourceURL, "description", func() { record.Description = e.description(doc) })
	e.capture(sourceURL, "canonical_url", func() { record.CanonicalURL = e.canonicalURL(doc, base) })

	record.Website = website(record.CanonicalURL, base)
	return record
}

// capture runs one extractor, absorbing panics so a malformed page can
// never take down the whole record.
func (e *Engine) capture(sourceURL, field string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extractor panicked",
				zap.String("url", sourceURL),
				zap.String("field", field),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

// website derives the site root, preferring the canonical URL's origin
// over the fetched URL's.
func website(canonicalURL string, base *url.URL) string {
	if canonicalURL != "" {
		if canonical, err := url.Parse(canonicalURL); err == nil {
			if o := origin(canonical); o != "" {
				return o
			}
		}
	}
	return origin(base)
}
