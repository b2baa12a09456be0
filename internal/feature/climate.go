package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/vectorwatch/dengue-etl/internal/domain"
)

// temperatureQuery averages the daily station maximums to a national weekly
// maximum-temperature series. Mean-centering and the rolling window are
// applied in Go, not SQL, so partial-window behavior is uniform across
// features.
const temperatureQuery = `
SELECT
  CAST(to_char(date, 'IYYY') AS INT) AS iso_year,
  CAST(to_char(date, 'IW') AS INT) AS eweek,
  AVG(dbt_max) AS value
FROM %s.temperature
WHERE date >= $1 AND date < $2
GROUP BY 1, 2
ORDER BY 1, 2`

const elninoQuery = `
SELECT
  CAST(to_char(date, 'IYYY') AS INT) AS iso_year,
  CAST(to_char(date, 'IW') AS INT) AS eweek,
  AVG(ssta) AS value
FROM %s.elnino34
WHERE date >= $1 AND date < $2
GROUP BY 1, 2
ORDER BY 1, 2`

// dryDaysQuery counts, per week, the days whose national average rainfall
// was exactly zero.
const dryDaysQuery = `
SELECT
  CAST(to_char(date, 'IYYY') AS INT) AS iso_year,
  CAST(to_char(date, 'IW') AS INT) AS eweek,
  COUNT(*) FILTER (WHERE daily_total = 0) AS value
FROM (
  SELECT date, AVG(rainfall_amt_total) AS daily_total
  FROM %s.rainfall
  WHERE date >= $1 AND date < $2
  GROUP BY date
) daily
GROUP BY 1, 2
ORDER BY 1, 2`

// Temperature provides the mean-centered rolling average of weekly maximum
// temperature.
type Temperature struct {
	q      WeeklyQuerier
	schema string
	roll   domain.RollingWindow
}

// NewTemperature creates the provider with the given window and lag.
func NewTemperature(q WeeklyQuerier, schema string, window, lag int) *Temperature {
	return &Temperature{
		q:      q,
		schema: schema,
		roll:   domain.RollingWindow{Window: window, Lag: lag, MeanCentered: true},
	}
}

// Fetch returns one value per week with data in [start, end).
func (p *Temperature) Fetch(ctx context.Context, start, end time.Time) ([]domain.WeeklyValue, error) {
	raw, err := p.q.WeeklySeries(ctx, fmt.Sprintf(temperatureQuery, p.schema), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: temperature: %v", ErrDataUnavailable, err)
	}
	return p.roll.Apply(raw)
}

// Column returns the warehouse column name for this feature's parameters.
func (p *Temperature) Column() string {
	return fmt.Sprintf("max_t_scale_%d_wk_avg_%d", p.roll.Window, p.roll.Lag)
}

// ElNinoSSTA provides the mean-centered rolling average of the Niño 3.4 sea
// surface temperature anomaly, lagged to reflect the delayed effect of El
// Niño conditions on local transmission.
type ElNinoSSTA struct {
	q      WeeklyQuerier
	schema string
	roll   domain.RollingWindow
}

// NewElNinoSSTA creates the provider with the given window and lag.
func NewElNinoSSTA(q WeeklyQuerier, schema string, window, lag int) *ElNinoSSTA {
	return &ElNinoSSTA{
		q:      q,
		schema: schema,
		roll:   domain.RollingWindow{Window: window, Lag: lag, MeanCentered: true},
	}
}

func (p *ElNinoSSTA) Fetch(ctx context.Context, start, end time.Time) ([]domain.WeeklyValue, error) {
	raw, err := p.q.WeeklySeries(ctx, fmt.Sprintf(elninoQuery, p.schema), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: elnino34: %v", ErrDataUnavailable, err)
	}
	return p.roll.Apply(raw)
}

func (p *ElNinoSSTA) Column() string {
	return fmt.Sprintf("nino34_%d_wk_avg_%d", p.roll.Window, p.roll.Lag)
}

// DryDays provides the rolling total of dry days (zero national rainfall)
// per week. Totals are not mean-centered.
type DryDays struct {
	q      WeeklyQuerier
	schema string
	roll   domain.RollingWindow
}

// NewDryDays creates the provider with the given window and lag.
func NewDryDays(q WeeklyQuerier, schema string, window, lag int) *DryDays {
	return &DryDays{
		q:      q,
		schema: schema,
		roll:   domain.RollingWindow{Window: window, Lag: lag, Total: true},
	}
}

func (p *DryDays) Fetch(ctx context.Context, start, end time.Time) ([]domain.WeeklyValue, error) {
	raw, err := p.q.WeeklySeries(ctx, fmt.Sprintf(dryDaysQuery, p.schema), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: rainfall: %v", ErrDataUnavailable, err)
	}
	return p.roll.Apply(raw)
}

func (p *DryDays) Column() string {
	return fmt.Sprintf("days_no_rain_%d_wk_total_%d", p.roll.Window, p.roll.Lag)
}
