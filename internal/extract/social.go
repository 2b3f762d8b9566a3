package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// socialPlatform describes how profile links for one network are shaped.
type socialPlatform struct {
	key          string
	domain       string
	altDomains   []string
	pathPrefixes []string
	usernameRE   *regexp.Regexp
	exclusions   []string
	queryProfile string
}

// socialPlatforms is checked in order; the first valid link per platform
// wins.
var socialPlatforms = []socialPlatform{
	{
		key:          "linkedin",
		domain:       "linkedin.com",
		pathPrefixes: []string{"company/", "in/", "school/", "showcase/"},
		exclusions:   []string{"share", "shareArticle", "sharing", "feed", "jobs", "learning", "pulse", "search"},
	},
	{
		key:        "twitter",
		domain:     "twitter.com",
		altDomains: []string{"x.com"},
		usernameRE: regexp.MustCompile(`^@?[A-Za-z0-9_]{1,15}$`),
		exclusions: []string{"share", "intent", "search", "hashtag", "home", "i/", "status/"},
	},
	{
		key:          "facebook",
		domain:       "facebook.com",
		altDomains:   []string{"fb.com", "fb.me"},
		pathPrefixes: []string{"pages/", "people/"},
		usernameRE:   regexp.MustCompile(`^[A-Za-z0-9.\-]{3,}$`),
		exclusions:   []string{"sharer", "share.php", "dialog", "plugins", "login", "events", "groups", "watch", "hashtag"},
		queryProfile: "profile.php",
	},
	{
		key:        "instagram",
		domain:     "instagram.com",
		usernameRE: regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`),
		exclusions: []string{"p/", "reel/", "reels/", "explore", "stories", "share", "accounts"},
	},
	{
		key:          "youtube",
		domain:       "youtube.com",
		altDomains:   []string{"youtu.be"},
		pathPrefixes: []string{"channel/", "c/", "user/", "@"},
		exclusions:   []string{"watch", "embed", "shorts", "playlist", "results", "feed"},
	},
	{
		key:        "pinterest",
		domain:     "pinterest.com",
		usernameRE: regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`),
		exclusions: []string{"pin/", "pins/", "search", "ideas"},
	},
	{
		key:        "tiktok",
		domain:     "tiktok.com",
		usernameRE: regexp.MustCompile(`^@[A-Za-z0-9._]{1,24}$`),
		exclusions: []string{"video/", "tag/", "music/", "discover", "share"},
	},
}

// socialLinks maps platform keys to the first valid profile URL found on
// the page, in document order, with relative hrefs resolved against base.
func (e *Engine) socialLinks(doc *goquery.Document, base *url.URL) map[string]string {
	links := map[string]string{}
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if len(links) == len(socialPlatforms) {
			return
		}
		href, _ := sel.Attr("href")
		resolved := resolveURL(base, href)
		if resolved == nil {
			return
		}
		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		for _, platform := range socialPlatforms {
			if _, have := links[platform.key]; have {
				continue
			}
			if platform.matches(resolved) {
				links[platform.key] = abs
				break
			}
		}
	})

	if len(links) == 0 {
		return nil
	}
	return links
}

func (p socialPlatform) matches(u *url.URL) bool {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !p.hostMatches(host) {
		return false
	}

	path := strings.Trim(u.EscapedPath(), "/")
	lowerPath := strings.ToLower(path)
	for _, excluded := range p.exclusions {
		if strings.HasPrefix(lowerPath, strings.ToLower(excluded)) {
			return false
		}
	}

	if p.queryProfile != "" && strings.Contains(lowerPath, strings.ToLower(p.queryProfile)) {
		return u.Query().Get("id") != ""
	}
	if path == "" {
		return false
	}
	for _, prefix := range p.pathPrefixes {
		if strings.HasPrefix(lowerPath, strings.ToLower(prefix)) && len(path) > len(prefix) {
			return true
		}
	}
	if p.usernameRE != nil {
		first, _, _ := strings.Cut(path, "/")
		return p.usernameRE.MatchString(first)
	}
	return false
}

func (p socialPlatform) hostMatches(host string) bool {
	if host == p.domain || strings.HasSuffix(host, "."+p.domain) {
		return true
	}
	for _, alt := range p.altDomains {
		if host == alt || strings.HasSuffix(host, "."+alt) {
			return true
		}
	}
	return false
}

// resolveURL turns href into an absolute http(s) URL relative to base.
func resolveURL(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Hostname() == "" {
		return nil
	}
	return parsed
}
