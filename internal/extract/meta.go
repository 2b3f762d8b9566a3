package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

const minDescriptionLength = 10

// description returns the page summary from the strongest metadata source
// that carries a substantive value.
func (e *Engine) description(doc *goquery.Document) string {
	for _, selector := range []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[name="twitter:description"]`,
	} {
		if v := metaContent(doc, selector); len(v) >= minDescriptionLength {
			return v
		}
	}
	return ""
}

// canonicalURL returns the absolute canonical link, or "" when the page
// declares none.
func (e *Engine) canonicalURL(doc *goquery.Document, base *url.URL) string {
	href := attrText(doc.Find(`link[rel="canonical"]`).First(), "href")
	if href == "" {
		return ""
	}
	resolved := resolveURL(base, href)
	if resolved == nil {
		return ""
	}
	return resolved.String()
}

// origin reduces a URL to its scheme://host root.
func origin(u *url.URL) string {
	if u == nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}
