// Command tcpairs verifies tropical cyclone forecast tracks against best
// tracks. Deck lines come from files or a Kafka topic; verification records
// go to SQLite, Kafka, or both.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-track-verify/internal/adapter/deckfile"
	httpadapter "github.com/couchcryptid/storm-track-verify/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-track-verify/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-verify/internal/adapter/landmask"
	"github.com/couchcryptid/storm-track-verify/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-track-verify/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
	"github.com/couchcryptid/storm-track-verify/internal/observability"
	"github.com/couchcryptid/storm-track-verify/internal/pipeline"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("tcpairs failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		Job:       cfg.Job,
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
	}

	if cfg.LandmaskPath != "" {
		mask, err := landmask.LoadFile(cfg.LandmaskPath)
		if err != nil {
			return err
		}
		opts.Land = mask
		logger.Info("land mask loaded", "path", cfg.LandmaskPath, "polygons", mask.Len())
	} else {
		logger.Info("no land mask configured; distance to land is missing")
	}

	if cfg.Job.WatchWarnFile != "" {
		ww, err := deckfile.ReadWatchWarn(cfg.Job.WatchWarnFile, cfg.Job.WatchWarnOffset)
		if err != nil {
			return err
		}
		opts.WatchWarn = ww
		logger.Info("watch/warning bulletins loaded", "path", cfg.Job.WatchWarnFile, "bulletins", len(ww))
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		opts.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	extractor, closeExtractor, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}
	defer closeWith(logger, "deck reader", closeExtractor)

	var loaders pipeline.MultiLoader
	var store *sqlite.Store
	if cfg.WritesSQLite() {
		store, err = sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer closeWith(logger, "sqlite store", store)
		loaders = append(loaders, store)
	}
	if cfg.WritesKafka() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer closeWith(logger, "kafka writer", writer)
		loaders = append(loaders, writer)
	}
	var loader pipeline.RecordLoader
	if len(loaders) > 0 {
		loader = loaders
	}

	p := pipeline.New(extractor, loader, logger, metrics, opts)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, func() (any, bool) {
		sum, ok := p.LastSummary()
		return sum, ok
	}, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
	}()

	for {
		sum, err := p.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down")
				return nil
			}
			return err
		}
		if store != nil {
			logErrorSummary(ctx, store, sum.RunID, logger)
		}

		// File decks are a single run; a topic keeps being consumed.
		if cfg.DeckSource != config.SourceKafka {
			return nil
		}
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-time.After(cfg.BatchFlushInterval):
		}
	}
}

func newExtractor(cfg *config.Config, logger *slog.Logger) (pipeline.LineExtractor, io.Closer, error) {
	if cfg.DeckSource == config.SourceKafka {
		r := kafkaadapter.NewReader(cfg, logger)
		return r, r, nil
	}

	var sources []deckfile.Source
	for _, set := range []struct {
		deck  domain.Deck
		paths []string
	}{
		{domain.DeckA, cfg.ADeckPaths},
		{domain.DeckE, cfg.EDeckPaths},
		{domain.DeckB, cfg.BDeckPaths},
	} {
		if len(set.paths) == 0 {
			continue
		}
		src, err := deckfile.Expand(set.deck, set.paths)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src...)
	}
	logger.Info("deck files found", "files", len(sources))
	r := deckfile.NewReader(sources, logger)
	return r, r, nil
}

func logErrorSummary(ctx context.Context, store *sqlite.Store, runID string, logger *slog.Logger) {
	sums, err := store.SummarizeErrors(ctx, runID)
	if err != nil {
		logger.Warn("error summary failed", "error", err)
		return
	}
	for _, s := range sums {
		logger.Info("track error summary",
			"adeck", s.ADeck,
			"lead_hours", s.LeadHours,
			"count", s.Count,
			"mean_tk_err", fmtMean(s.MeanTrackErr),
			"mean_vmax_err", fmtMean(s.MeanVMaxErr),
			"mean_mslp_err", fmtMean(s.MeanMSLPErr),
		)
	}
}

func fmtMean(v *float64) string {
	if v == nil {
		return "NA"
	}
	return fmt.Sprintf("%.1f", *v)
}

func closeWith(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error(name+" close error", "error", err)
	}
}
