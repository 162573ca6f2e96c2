// Command geobind consumes point records from Kafka, bins them with the
// configured profile and publishes styled points for rendering.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/geobin/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/geobin/internal/adapter/kafka"
	"github.com/couchcryptid/geobin/internal/adapter/scrape"
	"github.com/couchcryptid/geobin/internal/config"
	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/observability"
	"github.com/couchcryptid/geobin/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	profiles, err := config.LoadProfiles(cfg.BinProfilesFile)
	if err != nil {
		logger.Error("failed to load bin profiles", "error", err)
		os.Exit(1)
	}
	profile, err := profiles.Point(cfg.BinProfile)
	if err != nil {
		logger.Error("unknown bin profile", "error", err)
		os.Exit(1)
	}
	logger.Info("bin profile selected", "profile", cfg.BinProfile, "bins", len(profile.Bins))

	var locator domain.Locator
	if cfg.ScrapeEnabled {
		client := scrape.NewClient(cfg.ScrapeTimeout, cfg.ScrapeMinInterval, metrics, logger)
		locator = scrape.NewCachedLocator(client, cfg.ScrapeCacheSize, metrics)
		metrics.ScrapeEnabled.Set(1)
		logger.Info("url coordinate lookup enabled",
			"min_interval", cfg.ScrapeMinInterval, "timeout", cfg.ScrapeTimeout, "cache_size", cfg.ScrapeCacheSize)
	} else {
		logger.Info("url coordinate lookup disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(profile.Classifier(), locator, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
