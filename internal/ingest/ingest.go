// Package ingest loads raw climate observations into the warehouse.
//
// Three sources feed the feature pipeline: daily station rainfall CSVs,
// daily station dry-bulb temperature CSVs, and the NOAA weekly sea surface
// temperature bulletin. The CSV exports changed shape repeatedly over the
// years (renamed columns, shuffled date formats, stray whitespace), so
// readers normalize headers through an alias table instead of trusting any
// single layout.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RainfallRecord is one station-day rainfall observation.
type RainfallRecord struct {
	StationID   string
	Date        time.Time
	AmountMM    *float64
	DurationMin *float64
}

// TemperatureRecord is one station-day dry-bulb temperature observation.
type TemperatureRecord struct {
	StationID string
	Date      time.Time
	DBTMax    *float64
	DBTMin    *float64
	DBTMean   *float64
}

// NinoRecord is one weekly Niño 3.4 sea surface temperature reading.
type NinoRecord struct {
	Date time.Time
	SST  float64
	SSTA float64
}

// Store persists ingested rows, skipping duplicates on the conflict key.
type Store interface {
	Upsert(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) error
}

// Ingestor writes parsed observations into the warehouse schema.
type Ingestor struct {
	store  Store
	schema string
	logger *slog.Logger
}

// NewIngestor creates an Ingestor targeting the given schema.
func NewIngestor(store Store, schema string, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, schema: schema, logger: logger}
}

// StoreRainfall upserts rainfall observations keyed on (date, station_id).
func (in *Ingestor) StoreRainfall(ctx context.Context, records []RainfallRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.Date, r.StationID, r.AmountMM, r.DurationMin}
	}
	table := fmt.Sprintf("%s.rainfall", in.schema)
	columns := []string{"date", "station_id", "rainfall_amt_total", "rainfall_duration_min"}
	if err := in.store.Upsert(ctx, table, columns, rows, []string{"date", "station_id"}); err != nil {
		return fmt.Errorf("store rainfall: %w", err)
	}
	in.logger.Info("rainfall stored", "rows", len(rows))
	return nil
}

// StoreTemperature upserts temperature observations keyed on (date, station_id).
func (in *Ingestor) StoreTemperature(ctx context.Context, records []TemperatureRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.Date, r.StationID, r.DBTMax, r.DBTMin, r.DBTMean}
	}
	table := fmt.Sprintf("%s.temperature", in.schema)
	columns := []string{"date", "station_id", "dbt_max", "dbt_min", "dbt_mean"}
	if err := in.store.Upsert(ctx, table, columns, rows, []string{"date", "station_id"}); err != nil {
		return fmt.Errorf("store temperature: %w", err)
	}
	in.logger.Info("temperature stored", "rows", len(rows))
	return nil
}

// StoreNino34 upserts weekly Niño 3.4 readings keyed on date.
func (in *Ingestor) StoreNino34(ctx context.Context, records []NinoRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.Date, r.SST, r.SSTA}
	}
	table := fmt.Sprintf("%s.elnino34", in.schema)
	columns := []string{"date", "sst", "ssta"}
	if err := in.store.Upsert(ctx, table, columns, rows, []string{"date"}); err != nil {
		return fmt.Errorf("store nino34: %w", err)
	}
	in.logger.Info("nino34 stored", "rows", len(rows))
	return nil
}
