// Package pipeline drives seed URLs through fetch, extraction and
// persistence with bounded concurrency.
package pipeline

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quarrylabs/leadharvest/internal/extract"
	"github.com/quarrylabs/leadharvest/internal/fetch"
	"github.com/quarrylabs/leadharvest/internal/metrics"
	"github.com/quarrylabs/leadharvest/internal/storage"
)

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, mode fetch.Mode) fetch.Result
}

// Scraper extracts a lead record from one page.
type Scraper interface {
	Scrape(htmlContent, sourceURL string) extract.LeadRecord
}

// Stats summarizes one pipeline run.
type Stats struct {
	Attempted int64
	Fetched   int64
	Extracted int64
	Saved     int64
	Skipped   int64
}

// Pipeline fans seed URLs out over a bounded worker pool. One URL failing
// never stops the others.
type Pipeline struct {
	fetcher     Fetcher
	scraper     Scraper
	sink        storage.Sink
	metrics     *metrics.Metrics
	logger      *zap.Logger
	concurrency int
	mode        fetch.Mode
}

// Config wires a Pipeline.
type Config struct {
	Fetcher     Fetcher
	Scraper     Scraper
	Sink        storage.Sink
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Concurrency int
	Mode        fetch.Mode
}

// New builds a pipeline from its collaborators.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		fetcher:     cfg.Fetcher,
		scraper:     cfg.Scraper,
		sink:        cfg.Sink,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		mode:        cfg.Mode,
	}
}

// Run processes every seed and flushes the sink once all workers finish.
// Cancellation stops new work; in-flight URLs run to completion.
func (p *Pipeline) Run(ctx context.Context, seeds []string) Stats {
	var counters struct {
		attempted atomic.Int64
		fetched   atomic.Int64
		extracted atomic.Int64
		saved     atomic.Int64
		skipped   atomic.Int64
	}

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			counters.attempted.Add(1)

			result := p.fetcher.Fetch(ctx, seed, p.mode)
			p.metrics.FetchesTotal.WithLabelValues(result.Outcome.String()).Inc()
			if result.Outcome != fetch.OutcomeOK {
				counters.skipped.Add(1)
				p.metrics.URLsSkipped.Inc()
				return nil
			}
			counters.fetched.Add(1)

			// Relative links resolve against the post-redirect URL while the
			// record keeps the seed as its source.
			record := p.scraper.Scrape(string(result.Content), firstNonEmpty(result.FinalURL, seed))
			record.SourceURL = seed
			counters.extracted.Add(1)

			if !record.HasSignal() {
				counters.skipped.Add(1)
				p.metrics.URLsSkipped.Inc()
				p.logger.Debug("dropping near-empty record", zap.String("url", seed))
				return nil
			}
			if err := p.sink.Save(ctx, record); err != nil {
				counters.skipped.Add(1)
				p.metrics.URLsSkipped.Inc()
				p.logger.Error("persist lead", zap.String("url", seed), zap.Error(err))
				return nil
			}
			counters.saved.Add(1)
			p.metrics.LeadsSaved.Inc()
			return nil
		})
	}
	_ = g.Wait()

	if err := p.sink.Flush(ctx); err != nil {
		p.logger.Error("flush sink", zap.Error(err))
	}

	stats := Stats{
		Attempted: counters.attempted.Load(),
		Fetched:   counters.fetched.Load(),
		Extracted: counters.extracted.Load(),
		Saved:     counters.saved.Load(),
		Skipped:   counters.skipped.Load(),
	}
	p.logger.Info("pipeline run complete",
		zap.Int64("attempted", stats.Attempted),
		zap.Int64("fetched", stats.Fetched),
		zap.Int64("extracted", stats.Extracted),
		zap.Int64("saved", stats.Saved),
		zap.Int64("skipped", stats.Skipped),
	)
	return stats
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
