package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRE     = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:!?])`)
	hyphenFolder     = strings.NewReplacer(
		"‐", "-", // hyphen
		"‑", "-", // non-breaking hyphen
		"‒", "-", // figure dash
		"–", "-", // en dash
		"—", "-", // em dash
		"―", "-", // horizontal bar
	)
)

// cleanText compatibility-normalizes s, folds exotic hyphens and collapses
// all whitespace runs (including NBSP) to single spaces.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = hyphenFolder.Replace(s)
	s = strings.ReplaceAll(s, " ", " ")
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// nodeText extracts and normalizes the visible text of a selection.
func nodeText(sel *goquery.Selection) string {
	return cleanText(sel.Text())
}

// attrText extracts and normalizes an attribute value.
func attrText(sel *goquery.Selection, attr string) string {
	v, _ := sel.Attr(attr)
	return cleanText(v)
}
