package ingest

import (
	"fmt"
	"io"
	"time"
)

// rainfallAliases maps every header spelling seen across rainfall export
// vintages (including recurring typos) to the canonical column names.
var rainfallAliases = map[string]string{
	"id_station":                "station_id",
	"station":                   "station_id",
	"stationcode":               "station_id",
	"sttaioncode":               "station_id",
	"dateasia/singapore(+0730)": "date",
	"dateasia/singapore(+0800)": "date",
	"datesingapore(+0800)":      "date",
	"totalrain":                 "rainfall_amt_total",
	"totalrainfall(mm)":         "rainfall_amt_total",
	"dailyrainamount(mm)":       "rainfall_amt_total",
	"rainamount(mm)":            "rainfall_amt_total",
	"totalduration":             "rainfall_duration_min",
	"dailyduration(minutes)":    "rainfall_duration_min",
	"dailyduration(minute)":     "rainfall_duration_min",
}

// ReadRainfall parses a rainfall CSV of any export vintage. Rows with an
// unparseable date are dropped, and duplicate (date, station) pairs keep
// the first occurrence.
func ReadRainfall(r io.Reader, filename string) ([]RainfallRecord, error) {
	t, err := readTable(r, rainfallAliases)
	if err != nil {
		return nil, fmt.Errorf("rainfall %s: %w", filename, err)
	}

	type key struct {
		date    time.Time
		station string
	}
	seen := make(map[key]struct{}, len(t.rows))
	records := make([]RainfallRecord, 0, len(t.rows))
	for _, row := range t.rows {
		date, ok := t.dateCell(row, "date", filename)
		if !ok {
			continue
		}
		station := t.cell(row, "station_id")
		k := key{date: date, station: station}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		records = append(records, RainfallRecord{
			StationID:   station,
			Date:        date,
			AmountMM:    t.floatCell(row, "rainfall_amt_total"),
			DurationMin: t.floatCell(row, "rainfall_duration_min"),
		})
	}
	return records, nil
}
