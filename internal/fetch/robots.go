package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Policy answers whether a URL may be fetched under the site's crawl rules.
type Policy interface {
	Allowed(rawURL string) bool
}

// allowAllPolicy is used when robots.txt enforcement is disabled.
type allowAllPolicy struct{}

func (allowAllPolicy) Allowed(string) bool { return true }

// NewAllowAllPolicy returns a policy that permits every URL.
func NewAllowAllPolicy() Policy { return allowAllPolicy{} }

// Policies caches parsed robots.txt rules per registrable domain in a
// bounded LRU. Concurrent first-time lookups of one domain are collapsed
// into a single fetch. Any failure to obtain or parse robots.txt resolves
// to a permissive ruleset, so enforcement only ever narrows on evidence.
type Policies struct {
	client    *http.Client
	cache     *lru.Cache[string, *robotstxt.RobotsData]
	flight    singleflight.Group
	userAgent string
	logger    *zap.Logger
}

// PoliciesConfig controls robots.txt retrieval and caching.
type PoliciesConfig struct {
	// UserAgent is the product token matched against robots.txt groups.
	UserAgent string
	// CacheSize bounds the number of cached domains.
	CacheSize int
	// FetchTimeout bounds a single robots.txt download.
	FetchTimeout time.Duration
}

// NewPolicies constructs the robots.txt cache.
func NewPolicies(cfg PoliciesConfig, logger *zap.Logger) (*Policies, error) {
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("robots cache size must be positive, got %d", cfg.CacheSize)
	}
	cache, err := lru.New[string, *robotstxt.RobotsData](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("robots cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "*"
	}
	return &Policies{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		cache:     cache,
		userAgent: ua,
		logger:    logger,
	}, nil
}

// Allowed reports whether rawURL may be fetched according to the domain's
// robots.txt. Unresolvable rules fail open.
func (p *Policies) Allowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return true
	}
	data := p.rules(parsed.Host)
	group := data.FindGroup(p.userAgent)
	if group == nil {
		return true
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return group.Test(path)
}

// Reset drops every cached ruleset.
func (p *Policies) Reset() {
	p.cache.Purge()
}

// rules returns the cached ruleset for host, fetching it on first use.
// The key is the registrable domain so subdomain variants share an entry.
func (p *Policies) rules(host string) *robotstxt.RobotsData {
	key := RegistrableDomain(host)
	if data, ok := p.cache.Get(key); ok {
		return data
	}
	v, _, _ := p.flight.Do(key, func() (any, error) {
		if data, ok := p.cache.Get(key); ok {
			return data, nil
		}
		data := p.download(host)
		p.cache.Add(key, data)
		return data, nil
	})
	return v.(*robotstxt.RobotsData)
}

// download retrieves robots.txt, trying https before http. An https
// response with a status other than success or not-found may be scheme
// specific, so the http attempt still runs before any sentinel is chosen.
// Missing files, exhausted schemes and parse errors all yield permissive
// rules.
func (p *Policies) download(host string) *robotstxt.RobotsData {
	for _, scheme := range []string{"https", "http"} {
		robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
		resp, err := p.client.Get(robotsURL)
		if err != nil {
			p.logger.Debug("robots.txt fetch failed",
				zap.String("url", robotsURL), zap.Error(err))
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		closeErr := resp.Body.Close()
		if err != nil || closeErr != nil {
			continue
		}
		usable := (resp.StatusCode >= 200 && resp.StatusCode < 300) ||
			resp.StatusCode == http.StatusNotFound
		if !usable {
			p.logger.Debug("robots.txt status unusable",
				zap.String("url", robotsURL), zap.Int("status", resp.StatusCode))
			continue
		}
		data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
		if err != nil {
			p.logger.Warn("robots.txt unparseable, allowing all",
				zap.String("url", robotsURL), zap.Error(err))
			return permissiveRules()
		}
		return data
	}
	p.logger.Debug("robots.txt unreachable, allowing all", zap.String("host", host))
	return permissiveRules()
}

func permissiveRules() *robotstxt.RobotsData {
	data, err := robotstxt.FromString("")
	if err != nil {
		return &robotstxt.RobotsData{}
	}
	return data
}
