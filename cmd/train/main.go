// Command train builds the weekly dengue training dataset and, when a
// model runner is configured, drives a forecast fit from it. With
// CRON_SCHEDULE set it stays resident and rebuilds on schedule; otherwise
// it runs once and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	httpadapter "github.com/vectorwatch/dengue-etl/internal/adapter/http"
	kafkaadapter "github.com/vectorwatch/dengue-etl/internal/adapter/kafka"
	"github.com/vectorwatch/dengue-etl/internal/adapter/modelrunner"
	"github.com/vectorwatch/dengue-etl/internal/adapter/postgres"
	"github.com/vectorwatch/dengue-etl/internal/config"
	"github.com/vectorwatch/dengue-etl/internal/feature"
	"github.com/vectorwatch/dengue-etl/internal/observability"
	"github.com/vectorwatch/dengue-etl/internal/pipeline"
)

func main() {
	runConfigPath := flag.String("config", "dataset.yaml", "path to the dataset run config")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	run, err := config.LoadRun(*runConfigPath)
	if err != nil {
		slog.Error("failed to load run config", "error", err, "path", *runConfigPath)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
	if err != nil {
		logger.Error("failed to open warehouse", "error", err)
		os.Exit(1)
	}
	defer gw.Close()

	providers := pipeline.Providers{
		Temperature: feature.NewTemperature(gw, cfg.Schema, run.Temperature.Window, run.Temperature.Lag),
		ElNino:      feature.NewElNinoSSTA(gw, cfg.Schema, run.Nino34.Window, run.Nino34.Lag),
		DryDays:     feature.NewDryDays(gw, cfg.Schema, run.DaysNoRain.Window, run.DaysNoRain.Lag),
		Cases:       feature.NewCases(gw, cfg.Schema),
		Switch:      feature.NewTimeSinceSwitch(gw, cfg.Schema),
		Population:  feature.NewPopulation(gw, cfg.Schema),
	}

	// Publisher and model stages are feature-flagged.
	var publisher pipeline.DatasetPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("dataset publishing enabled", "topic", cfg.KafkaDatasetTopic)
	} else {
		logger.Info("dataset publishing disabled")
	}

	var model pipeline.ForecastModel
	if cfg.ModelEnabled {
		model = modelrunner.NewClient(cfg.ModelRunnerURL, cfg.ModelRunnerTimeout, logger)
		logger.Info("model runner enabled", "url", cfg.ModelRunnerURL, "timeout", cfg.ModelRunnerTimeout)
	} else {
		logger.Info("model runner disabled")
	}

	p := pipeline.New(providers, gw, publisher, model, run, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	exitCode := 0
	if cfg.Schedule != "" {
		exitCode = runScheduled(ctx, cfg.Schedule, p, logger)
	} else if err := p.Run(ctx); err != nil {
		logger.Error("dataset build failed", "error", err)
		exitCode = 1
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}

// runScheduled rebuilds the dataset on the cron schedule until the context
// is cancelled. An immediate build runs first so a fresh deploy does not
// wait a full period for its dataset.
func runScheduled(ctx context.Context, schedule string, p *pipeline.Pipeline, logger *slog.Logger) int {
	if err := p.Run(ctx); err != nil {
		logger.Error("initial dataset build failed", "error", err)
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("scheduled dataset build failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid cron schedule", "error", err, "schedule", schedule)
		return 1
	}

	logger.Info("scheduler started", "schedule", schedule)
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return 0
}
