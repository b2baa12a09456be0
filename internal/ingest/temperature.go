package ingest

import (
	"fmt"
	"io"
	"time"
)

var temperatureAliases = map[string]string{
	"id_station":                "station_id",
	"stationcode":               "station_id",
	"dateasia/singapore(+0800)": "date",
	"maxdbt":                    "dbt_max",
	"mindbt":                    "dbt_min",
	"meandbt":                   "dbt_mean",
	"maxrh":                     "rh_max",
	"minrh":                     "rh_min",
	"meanrh":                    "rh_mean",
}

// ReadTemperature parses a dry-bulb temperature CSV of any export vintage.
// Relative humidity columns are accepted but discarded; only the dry-bulb
// series feeds the feature pipeline. Rows with an unparseable date are
// dropped and duplicate (date, station) pairs keep the first occurrence.
func ReadTemperature(r io.Reader, filename string) ([]TemperatureRecord, error) {
	t, err := readTable(r, temperatureAliases)
	if err != nil {
		return nil, fmt.Errorf("temperature %s: %w", filename, err)
	}

	type key struct {
		date    time.Time
		station string
	}
	seen := make(map[key]struct{}, len(t.rows))
	records := make([]TemperatureRecord, 0, len(t.rows))
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
		records = append(records, TemperatureRecord{
			StationID: station,
			Date:      date,
			DBTMax:    t.floatCell(row, "dbt_max"),
			DBTMin:    t.floatCell(row, "dbt_min"),
			DBTMean:   t.floatCell(row, "dbt_mean"),
		})
	}
	return records, nil
}
