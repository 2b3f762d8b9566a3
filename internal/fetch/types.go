// Package fetch retrieves web pages with per-domain politeness, robots.txt
// enforcement, retry handling and an optional headless-browser transport.
package fetch

import (
	"context"
	"net/http"
)

// Mode selects the transport used to retrieve a page.
type Mode int

const (
	// ModeDefault defers the transport choice to configuration.
	ModeDefault Mode = iota
	// ModeLightweight forces the plain HTTP transport.
	ModeLightweight
	// ModeBrowser forces the headless-browser transport.
	ModeBrowser
)

// Result is the terminal outcome of a fetch. Content is populated only when
// Outcome is OutcomeOK. FinalURL is the post-redirect URL when known,
// otherwise the requested URL.
type Result struct {
	Content  []byte
	FinalURL string
	Outcome  Outcome
}

// page is the raw product of a single transport attempt.
type page struct {
	body     []byte
	finalURL string
	status   int
}

// transport retrieves a single URL. Implementations map their own failures
// onto the fetch outcome taxonomy via fail().
type transport interface {
	Get(ctx context.Context, rawURL string, headers http.Header) (page, error)
}
