package extract

import (
	"encoding/hex"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const cfEmailPathPrefix = "/cdn-cgi/l/email-protection"

var (
	emailRE       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	obfuscatedAt  = regexp.MustCompile(`(?i)\s*(?:\[\s*at\s*\]|\(\s*at\s*\)|\{\s*at\s*\}|\s@\s)\s*`)
	obfuscatedDot = regexp.MustCompile(`(?i)\s*(?:\[\s*dot\s*\]|\(\s*dot\s*\)|\{\s*dot\s*\})\s*`)
	spelledOutAt  = regexp.MustCompile(`(?i)\b([A-Za-z0-9._%+\-]+)\s+at\s+([A-Za-z0-9.\-]+)\s+dot\s+([A-Za-z]{2,})\b`)
)

// emails collects addresses from mailto links, Cloudflare-protected spans
// and visible text, lowercased, validated and returned sorted without
// duplicates.
func (e *Engine) emails(doc *goquery.Document) []string {
	found := map[string]struct{}{}
	add := func(raw string) {
		if addr, ok := normalizeEmail(raw); ok {
			found[addr] = struct{}{}
		}
	}

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		// Strip ?subject= and friends.
		addr, _, _ = strings.Cut(addr, "?")
		add(addr)
	})

	// Cloudflare scramble-protected addresses.
	doc.Find(`a[href*="email-protection"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if idx := strings.Index(href, cfEmailPathPrefix+"#"); idx >= 0 {
			add(decodeCFEmail(href[idx+len(cfEmailPathPrefix)+1:]))
		}
	})
	doc.Find("[data-cfemail]").Each(func(_ int, sel *goquery.Selection) {
		encoded, _ := sel.Attr("data-cfemail")
		add(decodeCFEmail(encoded))
	})

	doc.Find("p, li, td, span, div, address, footer, a").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 8 {
			return
		}
		text := deobfuscate(nodeText(sel))
		for _, match := range emailRE.FindAllString(text, -1) {
			add(match)
		}
	})

	out := make([]string, 0, len(found))
	for addr := range found {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// decodeCFEmail reverses the Cloudflare email obfuscation: the first hex
// byte is an XOR key applied to every following byte.
func decodeCFEmail(encoded string) string {
	raw, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(raw) < 2 {
		return ""
	}
	key := raw[0]
	decoded := make([]byte, len(raw)-1)
	for i, b := range raw[1:] {
		decoded[i] = b ^ key
	}
	return string(decoded)
}

// deobfuscate rewrites common "user [at] domain [dot] tld" spellings into
// plain addresses.
func deobfuscate(text string) string {
	text = spelledOutAt.ReplaceAllString(text, "$1@$2.$3")
	text = obfuscatedAt.ReplaceAllString(text, "@")
	text = obfuscatedDot.ReplaceAllString(text, ".")
	return text
}

// normalizeEmail lowercases and validates a candidate address.
func normalizeEmail(raw string) (string, bool) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if addr == "" || !emailRE.MatchString(addr) {
		return "", false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", false
	}
	return parsed.Address, true
}
