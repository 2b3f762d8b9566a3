package fetch

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPolicies(t *testing.T) *Policies {
	t.Helper()
	policies, err := NewPolicies(PoliciesConfig{
		UserAgent:    "*",
		CacheSize:    16,
		FetchTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return policies
}

func robotsServer(t *testing.T, body string, status int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPoliciesEnforceDisallowRules(t *testing.T) {
	t.Parallel()

	server := robotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK, nil)
	policies := newTestPolicies(t)

	require.True(t, policies.Allowed(server.URL+"/public/page.html"))
	require.False(t, policies.Allowed(server.URL+"/private/page.html"))
}

func TestPoliciesAllowWhenRobotsMissing(t *testing.T) {
	t.Parallel()

	server := robotsServer(t, "not found", http.StatusNotFound, nil)
	policies := newTestPolicies(t)

	require.True(t, policies.Allowed(server.URL+"/anything"))
}

func TestPoliciesAllowWhenHostUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	policies := newTestPolicies(t)
	require.True(t, policies.Allowed(url+"/page"))
}

func TestPoliciesFetchRobotsOncePerDomain(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := robotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK, &hits)
	policies := newTestPolicies(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.True(t, policies.Allowed(server.URL+"/public/page.html"))
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), hits.Load())
}

// schemeSplitTransport serves different canned robots.txt responses for
// https and http so the scheme fallback can be exercised without TLS.
type schemeSplitTransport struct {
	httpsStatus int
	httpsBody   string
	httpStatus  int
	httpBody    string
}

func (t schemeSplitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	status, body := t.httpStatus, t.httpBody
	if req.URL.Scheme == "https" {
		status, body = t.httpsStatus, t.httpsBody
	}
	return cannedResponse(req, status, body), nil
}

func cannedResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

func TestPoliciesFallBackToHTTPWhenHTTPSStatusUnusable(t *testing.T) {
	t.Parallel()

	for _, httpsStatus := range []int{http.StatusInternalServerError, http.StatusForbidden} {
		policies := newTestPolicies(t)
		policies.client.Transport = schemeSplitTransport{
			httpsStatus: httpsStatus,
			httpsBody:   "error",
			httpStatus:  http.StatusOK,
			httpBody:    "User-agent: *\nDisallow: /private/\n",
		}

		require.False(t, policies.Allowed("https://example.com/private/page.html"),
			"https %d must fall back to the http robots.txt, which disallows /private/", httpsStatus)
		require.True(t, policies.Allowed("https://example.com/ok.html"))
	}
}

func TestPoliciesAllowWhenBothSchemesFail(t *testing.T) {
	t.Parallel()

	policies := newTestPolicies(t)
	policies.client.Transport = schemeSplitTransport{
		httpsStatus: http.StatusInternalServerError,
		httpStatus:  http.StatusBadGateway,
	}

	require.True(t, policies.Allowed("https://example.com/anything"))
}

// countingTransport answers every robots.txt request permissively and
// counts fetches per host.
type countingTransport struct {
	mu   sync.Mutex
	hits map[string]int
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	if t.hits == nil {
		t.hits = make(map[string]int)
	}
	t.hits[req.URL.Hostname()]++
	t.mu.Unlock()
	return cannedResponse(req, http.StatusOK, "User-agent: *\nDisallow:\n"), nil
}

func (t *countingTransport) count(host string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits[host]
}

func TestPoliciesEvictLeastRecentlyUsedDomain(t *testing.T) {
	t.Parallel()

	transport := &countingTransport{}
	policies, err := NewPolicies(PoliciesConfig{
		UserAgent:    "*",
		CacheSize:    2,
		FetchTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	policies.client.Transport = transport

	// Distinct registrable domains, since that is the cache key.
	require.True(t, policies.Allowed("https://alpha.example/"))
	require.True(t, policies.Allowed("https://beta.example/"))
	require.True(t, policies.Allowed("https://gamma.example/"))

	// alpha.example was evicted when gamma.example filled the cache.
	require.True(t, policies.Allowed("https://alpha.example/again"))
	require.Equal(t, 2, transport.count("alpha.example"))
	require.Equal(t, 1, transport.count("gamma.example"))

	// beta.example fell out in turn when alpha.example came back.
	require.True(t, policies.Allowed("https://beta.example/again"))
	require.Equal(t, 2, transport.count("beta.example"))
}

func TestPoliciesResetDropsCachedRules(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := robotsServer(t, "User-agent: *\nDisallow:\n", http.StatusOK, &hits)
	policies := newTestPolicies(t)

	require.True(t, policies.Allowed(server.URL+"/a"))
	require.True(t, policies.Allowed(server.URL+"/b"))
	require.Equal(t, int64(1), hits.Load())

	policies.Reset()
	require.True(t, policies.Allowed(server.URL+"/c"))
	require.Equal(t, int64(2), hits.Load())
}
