// Package cmd defines and implements the CLI commands for the leadharvest
// executable.
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quarrylabs/leadharvest/internal/config"
	"github.com/quarrylabs/leadharvest/internal/extract"
	"github.com/quarrylabs/leadharvest/internal/fetch"
	"github.com/quarrylabs/leadharvest/internal/logging"
	"github.com/quarrylabs/leadharvest/internal/metrics"
	"github.com/quarrylabs/leadharvest/internal/pipeline"
	"github.com/quarrylabs/leadharvest/internal/storage"
)

// newHarvestCmd creates and configures the 'harvest' subcommand.
func newHarvestCmd() *cobra.Command {
	var (
		seedsFile string
		dryRun    bool
		render    bool
	)
	cmd := &cobra.Command{
		Use:   "harvest [url ...]",
		Short: "Fetches the given URLs and extracts lead records",
		Long: `Runs the full pipeline over the seed URLs: polite fetch, lead
extraction and persistence. Seeds come from positional arguments or from a
CSV file with a 'url' column.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, args, seedsFile, dryRun, render)
		},
	}
	cmd.Flags().StringVar(&seedsFile, "seeds", "", "CSV file with a 'url' column (defaults to pipeline.seeds_csv when no URLs are given)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract but do not persist; log record counts only")
	cmd.Flags().BoolVar(&render, "render", false, "render pages in a headless browser")
	return cmd
}

func runHarvest(cmd *cobra.Command, args []string, seedsFile string, dryRun, render bool) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.InitLogger(cfg.Development)
	logger := logging.L
	if render {
		cfg.RenderEnabled = true
	}

	seeds, err := resolveSeeds(args, seedsFile, cfg.SeedsCSV)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seed urls: pass them as arguments or provide --seeds")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsSrv, err := metrics.Serve(cfg.MetricsAddr, prometheus.DefaultGatherer, logger)
		if err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
		defer func() {
			if serr := metricsSrv.Shutdown(context.Background()); serr != nil {
				logger.Warn("Failed to shut down metrics server", zap.Error(serr))
			}
		}()
	}

	sink, err := buildSink(ctx, cfg, dryRun, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	scheduler, err := fetch.NewScheduler(cfg, logger)
	if err != nil {
		return fmt.Errorf("init fetch scheduler: %w", err)
	}
	defer func() {
		if serr := scheduler.Shutdown(context.Background()); serr != nil {
			logger.Warn("Failed to shut down scheduler", zap.Error(serr))
		}
	}()

	mode := fetch.ModeDefault
	if render {
		mode = fetch.ModeBrowser
	}

	run := pipeline.New(pipeline.Config{
		Fetcher:     scheduler,
		Scraper:     extract.NewEngine(logger),
		Sink:        sink,
		Metrics:     metrics.New(prometheus.DefaultRegisterer),
		Logger:      logger,
		Concurrency: cfg.PipelineConcurrency,
		Mode:        mode,
	})

	stats := run.Run(ctx, seeds)

	logger.Info("Harvest finished",
		zap.Int("seeds", len(seeds)),
		zap.Int64("fetched", stats.Fetched),
		zap.Int64("saved", stats.Saved),
		zap.Int64("skipped", stats.Skipped),
	)
	return nil
}

// resolveSeeds prefers explicit URLs, then an explicit CSV, then the
// configured default CSV.
func resolveSeeds(args []string, seedsFile, defaultCSV string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	path := seedsFile
	if path == "" {
		path = defaultCSV
	}
	if path == "" {
		return nil, nil
	}
	seeds, err := loadSeedsCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load seeds from %s: %w", path, err)
	}
	return seeds, nil
}

func buildSink(ctx context.Context, cfg config.Config, dryRun bool, logger *zap.Logger) (storage.Sink, error) {
	if dryRun || cfg.DatabaseDSN == "" {
		if !dryRun {
			logger.Warn("No database configured; records will not be persisted")
		}
		return storage.NewMemorySink(), nil
	}
	sink, err := storage.NewPostgresSink(ctx, cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres sink: %w", err)
	}
	return sink, nil
}
