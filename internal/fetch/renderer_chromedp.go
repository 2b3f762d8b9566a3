package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrRendererClosed indicates the shared browser has been shut down.
var ErrRendererClosed = errors.New("renderer closed")

// automationMaskJS hides the most common headless fingerprints before any
// page script runs.
const automationMaskJS = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3]});
window.chrome = window.chrome || { runtime: {} };
`

// chromedpRenderer drives a single shared headless browser. The browser is
// launched on first use and each Get runs in its own tab, so one renderer
// serves concurrent callers.
type chromedpRenderer struct {
	mu            sync.Mutex
	started       bool
	closed        bool
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	browserCtx    context.Context
	timeout       time.Duration
	proxyURL      string
	logger        *zap.Logger
}

func newChromedpRenderer(timeout time.Duration, proxyURL string, logger *zap.Logger) *chromedpRenderer {
	return &chromedpRenderer{
		timeout:  timeout,
		proxyURL: proxyURL,
		logger:   logger,
	}
}

// ensureBrowser launches the shared browser once and returns its context.
func (r *chromedpRenderer) ensureBrowser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRendererClosed
	}
	if r.started {
		return r.browserCtx, nil
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if r.proxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(r.proxyURL))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, failf(OutcomeRender, "browser launch: %w", err)
	}

	r.allocCancel = allocCancel
	r.browserCancel = browserCancel
	r.browserCtx = browserCtx
	r.started = true
	r.logger.Info("headless browser started")
	return r.browserCtx, nil
}

// Get renders the page in a fresh tab and returns the post-JavaScript DOM.
// The render budget is twice the plain-HTTP timeout since script execution
// is part of the page load.
func (r *chromedpRenderer) Get(ctx context.Context, rawURL string, headers http.Header) (page, error) {
	browserCtx, err := r.ensureBrowser()
	if err != nil {
		return page{finalURL: rawURL}, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	taskCtx, cancelTask := context.WithTimeout(tabCtx, 2*r.timeout)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := &renderMeta{}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.status = int(resp.Response.Status)
			meta.url = resp.Response.URL
		})
	})

	width := int64(1280 + rand.IntN(640))
	height := int64(760 + rand.IntN(320))
	ua := headers.Get("User-Agent")

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(ua),
		chromedp.EmulateViewport(width, height),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(automationMaskJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return page{finalURL: meta.finalURL(rawURL)}, failf(OutcomeTimeout, "render %s: %w", rawURL, err)
		}
		return page{finalURL: meta.finalURL(rawURL)}, failf(OutcomeRender, "render %s: %w", rawURL, err)
	}

	status := meta.status
	if status == 0 {
		status = http.StatusOK
	}
	return page{
		body:     []byte(html),
		finalURL: meta.finalURL(rawURL),
		status:   status,
	}, nil
}

// Shutdown tears down the shared browser. Safe to call more than once and
// before the browser ever started.
func (r *chromedpRenderer) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if !r.started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.browserCancel()
		r.allocCancel()
		close(done)
	}()
	select {
	case <-done:
		r.logger.Info("headless browser stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("browser shutdown: %w", ctx.Err())
	}
}

type renderMeta struct {
	once   sync.Once
	status int
	url    string
}

func (m *renderMeta) finalURL(raw string) string {
	if m.url == "" {
		return raw
	}
	return m.url
}

// forwardCancel propagates parent cancellation into cancel until the
// returned stop function runs.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
