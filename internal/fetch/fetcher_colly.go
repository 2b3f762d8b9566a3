package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/quarrylabs/leadharvest/internal/config"
)

// collyTransport is the lightweight HTTP transport. Each Get clones the base
// collector so response handlers never leak between requests. Rate limiting
// and concurrency live in the scheduler's throttle, not in colly.
type collyTransport struct {
	base   *colly.Collector
	logger *zap.Logger
}

func newCollyTransport(cfg config.Config, logger *zap.Logger) (*collyTransport, error) {
	proxy := http.ProxyFromEnvironment
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
		proxy = http.ProxyURL(proxyURL)
	}

	base := colly.NewCollector(colly.Async(true))
	// Retries revisit the same URL on purpose.
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 proxy,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &collyTransport{base: base, logger: logger}, nil
}

// Get fetches one page. Non-success statuses become server outcomes with the
// post-redirect URL preserved; connection failures are classified by the
// outcome mapper.
func (t *collyTransport) Get(ctx context.Context, rawURL string, headers http.Header) (page, error) {
	collector := t.base.Clone()
	resultCh := make(chan collyResult, 1)
	var once sync.Once
	send := func(res collyResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnRequest(func(r *colly.Request) {
		for k, values := range headers {
			for _, v := range values {
				r.Headers.Set(k, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		send(collyResult{page: page{
			body:     append([]byte{}, r.Body...),
			finalURL: r.Request.URL.String(),
			status:   r.StatusCode,
		}})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			finalURL := rawURL
			if r.Request != nil && r.Request.URL != nil {
				finalURL = r.Request.URL.String()
			}
			send(collyResult{err: failf(OutcomeServer, "status %d fetching %s", r.StatusCode, finalURL), finalURL: finalURL})
			return
		}
		if err == nil {
			err = errors.New("unknown transport error")
		}
		send(collyResult{err: fail(outcomeOf(err), err)})
	})

	if err := collector.Visit(rawURL); err != nil {
		return page{finalURL: rawURL}, fail(outcomeOf(err), err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return page{finalURL: rawURL}, fail(outcomeOf(err), err)
		}
		if res.err != nil {
			finalURL := res.finalURL
			if finalURL == "" {
				finalURL = rawURL
			}
			return page{finalURL: finalURL}, res.err
		}
		return res.page, nil
	default:
		return page{finalURL: rawURL}, failf(OutcomeUnexpected, "fetch of %s produced no result", rawURL)
	}
}

type collyResult struct {
	page     page
	finalURL string
	err      error
}
