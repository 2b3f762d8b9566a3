package fetch

import (
	"math/rand/v2"
	"net/http"
)

// headerBuilder produces browser-like request headers with a user agent
// drawn at random from the configured pool on every request.
type headerBuilder struct {
	agents []string
}

func newHeaderBuilder(agents []string) headerBuilder {
	return headerBuilder{agents: agents}
}

func (b headerBuilder) userAgent() string {
	if len(b.agents) == 0 {
		return "Mozilla/5.0 (compatible; leadharvest/1.0)"
	}
	return b.agents[rand.IntN(len(b.agents))]
}

// build returns a fresh header set for one request. Accept-Encoding is left
// to the HTTP client so bodies arrive decoded.
func (b headerBuilder) build() http.Header {
	h := http.Header{}
	h.Set("User-Agent", b.userAgent())
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", "https://www.google.com/")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Sec-Fetch-User", "?1")
	return h
}
