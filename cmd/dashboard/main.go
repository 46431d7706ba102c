package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/safety-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/safety-dashboard/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/safety-dashboard/internal/adapter/mqtt"
	"github.com/couchcryptid/safety-dashboard/internal/board"
	"github.com/couchcryptid/safety-dashboard/internal/config"
	"github.com/couchcryptid/safety-dashboard/internal/countup"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
	"github.com/couchcryptid/safety-dashboard/internal/observability"
	"github.com/couchcryptid/safety-dashboard/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ds, err := loadDataset(cfg.DatasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	style, err := countup.ParseStyle(cfg.DisplayStyle)
	if err != nil {
		logger.Error("invalid display style", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded", "regions", len(ds.Regions), "as_of", ds.AsOf, "style", style.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// All displays advance on one frame loop.
	loop := countup.NewLoop(clockwork.NewRealClock(), cfg.FrameInterval)
	wg.Go(func() {
		if err := loop.Run(ctx); err != nil {
			logger.Error("frame loop error", "error", err)
		}
	})

	b := board.New(ds, loop, style, logger, metrics)
	checks := []httpadapter.ReadinessChecker{b}

	// Display streaming (feature-flagged via MQTT_ENABLED).
	var streamer *mqttadapter.Streamer
	if cfg.MQTTEnabled {
		streamer = mqttadapter.NewStreamer(mqttadapter.NewClient(cfg), cfg, metrics, logger)
		if err := streamer.Connect(ctx); err != nil {
			logger.Error("mqtt streaming disabled", "error", err)
			streamer = nil
		} else {
			b.OnDisplayChange(streamer.Publish)
			wg.Go(func() { streamer.Run(ctx) })
		}
	} else {
		logger.Info("mqtt streaming disabled")
	}

	// Region updates (feature-flagged via KAFKA_ENABLED).
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		transformer := pipeline.NewTransformer(b, logger)
		p := pipeline.New(reader, transformer, b, logger, metrics, cfg.BatchSize)
		checks = append(checks, p)
		wg.Go(func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		})
	} else {
		logger.Info("kafka region updates disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, b, httpadapter.AllReady(checks...), httpadapter.CountupDefaults{
		Style:         style,
		FrameInterval: cfg.FrameInterval,
		CacheSize:     cfg.RenderCacheSize,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	b.Close()
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if streamer != nil {
		streamer.Close()
	}

	logger.Info("shutdown complete")
}

func loadDataset(path string) (domain.Dataset, error) {
	if path == "" {
		return domain.DefaultDataset()
	}
	return domain.LoadDatasetFile(path)
}
