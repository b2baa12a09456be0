package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/vectorwatch/dengue-etl/internal/domain"
)

const casesQuery = `
SELECT
  CAST(to_char(date, 'IYYY') AS INT) AS iso_year,
  CAST(to_char(date, 'IW') AS INT) AS eweek,
  SUM(cases_total) AS value
FROM %s.dengue_agg
WHERE date >= $1 AND date < $2
GROUP BY 1, 2
ORDER BY 1, 2`

const populationQuery = `
SELECT year, population AS value
FROM %s.population
ORDER BY year`

// Cases provides the weekly dengue case counts, the model target.
type Cases struct {
	q      WeeklyQuerier
	schema string
}

// NewCases creates the provider.
func NewCases(q WeeklyQuerier, schema string) *Cases {
	return &Cases{q: q, schema: schema}
}

func (p *Cases) Fetch(ctx context.Context, start, end time.Time) ([]domain.WeeklyValue, error) {
	out, err := p.q.WeeklySeries(ctx, fmt.Sprintf(casesQuery, p.schema), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: cases: %v", ErrDataUnavailable, err)
	}
	return out, nil
}

// Column returns the warehouse column name for the target.
func (p *Cases) Column() string { return "cases" }

// Population provides the annual population series joined on year.
type Population struct {
	q      AnnualQuerier
	schema string
}

// NewPopulation creates the provider.
func NewPopulation(q AnnualQuerier, schema string) *Population {
	return &Population{q: q, schema: schema}
}

func (p *Population) Fetch(ctx context.Context) ([]domain.YearValue, error) {
	out, err := p.q.AnnualSeries(ctx, fmt.Sprintf(populationQuery, p.schema))
	if err != nil {
		return nil, fmt.Errorf("%w: population: %v", ErrDataUnavailable, err)
	}
	return out, nil
}
