package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig describes one dataset build: the date range, the destination
// tables, and the per-feature window and lag parameters. It is loaded from
// a YAML file so analysts can version dataset definitions alongside model
// configs.
type RunConfig struct {
	// Dataset is the destination table for assembled training rows.
	Dataset string
	// ForecastTable receives posterior mean/interval predictions.
	ForecastTable string
	// MetricsTable receives per-run fit statistics.
	MetricsTable string

	Start time.Time
	End   time.Time

	Temperature FeatureParams
	Nino34      FeatureParams
	DaysNoRain  FeatureParams
}

// FeatureParams are the rolling-window parameters for one climate feature.
type FeatureParams struct {
	Window int `yaml:"window"`
	Lag    int `yaml:"lag"`
}

type runConfigFile struct {
	Dataset       string `yaml:"dataset"`
	ForecastTable string `yaml:"forecast_table"`
	MetricsTable  string `yaml:"metrics_table"`
	Train         struct {
		StartTime string `yaml:"start_time"`
	} `yaml:"train"`
	Test struct {
		EndTime string `yaml:"end_time"`
	} `yaml:"test"`
	Features struct {
		Temperature FeatureParams `yaml:"temperature"`
		Nino34      FeatureParams `yaml:"nino34"`
		DaysNoRain  FeatureParams `yaml:"days_no_rain"`
	} `yaml:"features"`
}

const dateLayout = "2006-01-02"

// LoadRun reads and validates a run configuration from a YAML file.
func LoadRun(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	return parseRun(data)
}

func parseRun(data []byte) (*RunConfig, error) {
	var f runConfigFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse run config: %w", err)
	}

	if f.Dataset == "" {
		return nil, errors.New("run config: dataset is required")
	}
	start, err := time.Parse(dateLayout, f.Train.StartTime)
	if err != nil {
		return nil, fmt.Errorf("run config: train.start_time: %w", err)
	}
	end, err := time.Parse(dateLayout, f.Test.EndTime)
	if err != nil {
		return nil, fmt.Errorf("run config: test.end_time: %w", err)
	}
	if !start.Before(end) {
		return nil, errors.New("run config: train.start_time must precede test.end_time")
	}

	cfg := &RunConfig{
		Dataset:       f.Dataset,
		ForecastTable: f.ForecastTable,
		MetricsTable:  f.MetricsTable,
		Start:         start,
		End:           end,
		Temperature:   withDefaults(f.Features.Temperature, 12, 0),
		Nino34:        withDefaults(f.Features.Nino34, 12, 4),
		DaysNoRain:    withDefaults(f.Features.DaysNoRain, 12, 0),
	}
	return cfg, nil
}

// withDefaults fills unset feature params with the production defaults used
// by the national analysis dataset.
func withDefaults(p FeatureParams, window, lag int) FeatureParams {
	if p.Window == 0 {
		p.Window = window
		p.Lag = lag
	}
	return p
}
