package fetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ValidateURL checks that rawURL is an absolute http(s) URL with a usable
// host and returns the parsed URL plus its politeness key.
func ValidateURL(rawURL string) (*url.URL, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, "", fmt.Errorf("url %q has no host", rawURL)
	}
	return parsed, RegistrableDomain(parsed.Host), nil
}

// RegistrableDomain reduces a host to its registrable domain so that
// subdomains share one politeness budget. Hosts without a public suffix
// (IP literals, localhost, internal names) fall back to the bare host.
func RegistrableDomain(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if ip := net.ParseIP(host); ip != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
