package fetch

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quarrylabs/leadharvest/internal/config"
)

// Scheduler coordinates a fetch end to end: URL validation, robots.txt
// consultation, per-domain throttling, transport dispatch and retries.
type Scheduler struct {
	cfg      config.Config
	policy   Policy
	throttle *Throttle
	headers  headerBuilder
	retryer  *Retryer
	fast     transport
	renderer transport
	shutdown func(context.Context) error
	logger   *zap.Logger
}

// Option overrides a Scheduler collaborator, primarily for tests.
type Option func(*Scheduler)

// WithTransport replaces the lightweight HTTP transport.
func WithTransport(t transport) Option {
	return func(s *Scheduler) { s.fast = t }
}

// WithRenderer replaces the headless-browser transport.
func WithRenderer(t transport) Option {
	return func(s *Scheduler) { s.renderer = t }
}

// WithPolicy replaces the robots.txt policy.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// NewScheduler wires the fetch stack from configuration.
func NewScheduler(cfg config.Config, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		cfg:      cfg,
		throttle: NewThrottle(cfg.PerDomainConcurrency, cfg.MinDelayPerDomain, cfg.MaxDelayPerDomain),
		headers:  newHeaderBuilder(cfg.UserAgents),
		retryer: NewRetryer(RetryConfig{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			Multiplier: cfg.RetryMultiplier,
			Jitter:     cfg.RetryJitter,
		}, logger),
		shutdown: func(context.Context) error { return nil },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.policy == nil {
		if cfg.Robots.Respect {
			policies, err := NewPolicies(PoliciesConfig{
				UserAgent:    cfg.Robots.UserAgent,
				CacheSize:    cfg.Robots.CacheSize,
				FetchTimeout: cfg.Robots.FetchTimeout,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("robots policies: %w", err)
			}
			s.policy = policies
		} else {
			s.policy = NewAllowAllPolicy()
		}
	}
	if s.fast == nil {
		fast, err := newCollyTransport(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("http transport: %w", err)
		}
		s.fast = fast
	}
	if s.renderer == nil && cfg.RenderEnabled {
		renderer := newChromedpRenderer(cfg.RequestTimeout, cfg.ProxyURL, logger)
		s.renderer = renderer
		s.shutdown = renderer.Shutdown
	}
	return s, nil
}

// Fetch retrieves rawURL and reports the result through the outcome
// taxonomy; it never returns an error. Invalid input is rejected before any
// network traffic.
func (s *Scheduler) Fetch(ctx context.Context, rawURL string, mode Mode) Result {
	_, domain, err := ValidateURL(rawURL)
	if err != nil {
		s.logger.Warn("rejecting url", zap.String("url", rawURL), zap.Error(err))
		return Result{FinalURL: rawURL, Outcome: OutcomeInvalidInput}
	}

	tr := s.pick(mode)
	if tr == nil {
		s.logger.Warn("browser rendering requested but disabled", zap.String("url", rawURL))
		return Result{FinalURL: rawURL, Outcome: OutcomeRender}
	}

	var pg page
	err = s.retryer.Do(ctx, rawURL, func() error {
		attempted, attemptErr := s.attempt(ctx, rawURL, domain, tr)
		pg = attempted
		return attemptErr
	})
	if err != nil {
		outcome := outcomeOf(err)
		s.logger.Warn("fetch failed",
			zap.String("url", rawURL),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
		finalURL := pg.finalURL
		if finalURL == "" {
			finalURL = rawURL
		}
		return Result{FinalURL: finalURL, Outcome: outcome}
	}

	s.flagChallengePage(rawURL, pg.body)
	return Result{Content: pg.body, FinalURL: pg.finalURL, Outcome: OutcomeOK}
}

// Shutdown releases the shared browser and clears politeness state.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.throttle.Reset()
	if p, ok := s.policy.(*Policies); ok {
		p.Reset()
	}
	return s.shutdown(ctx)
}

// attempt runs one policy check, throttle acquisition and transport call.
func (s *Scheduler) attempt(ctx context.Context, rawURL, domain string, tr transport) (page, error) {
	if !s.policy.Allowed(rawURL) {
		return page{}, failf(OutcomePolicyDenied, "robots.txt disallows %s", rawURL)
	}

	headers := s.headers.build()
	release, err := s.throttle.Acquire(ctx, domain)
	if err != nil {
		return page{}, err
	}
	defer release()

	pg, err := tr.Get(ctx, rawURL, headers)
	if err != nil {
		return pg, err
	}
	if pg.status < 200 || pg.status >= 300 {
		return pg, failf(OutcomeServer, "status %d fetching %s", pg.status, rawURL)
	}
	return pg, nil
}

// pick resolves the effective transport for a request mode.
func (s *Scheduler) pick(mode Mode) transport {
	useBrowser := mode == ModeBrowser || (mode == ModeDefault && s.cfg.RenderByDefault)
	if useBrowser {
		return s.renderer
	}
	return s.fast
}

// challengeMarkers are substrings that suggest an anti-bot interstitial.
var challengeMarkers = [][]byte{
	[]byte("captcha"),
	[]byte("are you a robot"),
	[]byte("verify you are human"),
	[]byte("verifying you are human"),
	[]byte("attention required"),
}

// flagChallengePage logs a warning when the head of the body looks like a
// bot challenge. Advisory only; the page still flows downstream.
func (s *Scheduler) flagChallengePage(rawURL string, body []byte) {
	head := body
	if len(head) > 2048 {
		head = head[:2048]
	}
	head = bytes.ToLower(head)
	for _, marker := range challengeMarkers {
		if bytes.Contains(head, marker) {
			s.logger.Warn("page looks like a bot challenge",
				zap.String("url", rawURL),
				zap.String("marker", string(marker)),
			)
			return
		}
	}
}
