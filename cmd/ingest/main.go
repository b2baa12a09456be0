// Command ingest loads raw climate observations into the warehouse.
//
// Rainfall and temperature come from station CSV exports on disk; the
// Niño 3.4 series is downloaded from the NOAA weekly bulletin. Upserts
// skip rows already present, so re-running over overlapping exports is
// safe.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vectorwatch/dengue-etl/internal/adapter/postgres"
	"github.com/vectorwatch/dengue-etl/internal/config"
	"github.com/vectorwatch/dengue-etl/internal/ingest"
	"github.com/vectorwatch/dengue-etl/internal/observability"
)

func main() {
	kind := flag.String("kind", "", "data source: rainfall, temperature, or nino34")
	path := flag.String("path", "", "CSV file or glob for rainfall/temperature")
	url := flag.String("url", ingest.DefaultNino34URL, "bulletin URL for nino34")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
	if err != nil {
		logger.Error("failed to open warehouse", "error", err)
		os.Exit(1)
	}
	defer gw.Close()

	in := ingest.NewIngestor(gw, cfg.Schema, logger)

	switch *kind {
	case "rainfall":
		err = ingestRainfall(ctx, in, *path, logger)
	case "temperature":
		err = ingestTemperature(ctx, in, *path, logger)
	case "nino34":
		err = ingestNino34(ctx, in, *url)
	default:
		logger.Error("unknown -kind", "kind", *kind)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("ingestion failed", "kind", *kind, "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete", "kind", *kind)
}

func ingestRainfall(ctx context.Context, in *ingest.Ingestor, pattern string, logger *slog.Logger) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		records, err := ingest.ReadRainfall(f, filepath.Base(file))
		f.Close()
		if err != nil {
			return err
		}
		logger.Info("rainfall file parsed", "file", file, "rows", len(records))
		if err := in.StoreRainfall(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

func ingestTemperature(ctx context.Context, in *ingest.Ingestor, pattern string, logger *slog.Logger) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		records, err := ingest.ReadTemperature(f, filepath.Base(file))
		f.Close()
		if err != nil {
			return err
		}
		logger.Info("temperature file parsed", "file", file, "rows", len(records))
		if err := in.StoreTemperature(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

func ingestNino34(ctx context.Context, in *ingest.Ingestor, url string) error {
	records, err := ingest.FetchNino34(ctx, http.DefaultClient, url)
	if err != nil {
		return err
	}
	return in.StoreNino34(ctx, records)
}
