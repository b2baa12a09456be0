package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/vectorwatch/dengue-etl/internal/domain"
)

// strainCountQuery pulls weekly sample counts per serotype. Strain labels
// are stored as 'D1'..'D4'; the numeric identifier is extracted here so the
// resolver works on plain ints.
const strainCountQuery = `
SELECT
  CAST(to_char(collection_date, 'IYYY') AS INT) AS iso_year,
  CAST(to_char(collection_date, 'IW') AS INT) AS eweek,
  CAST(REPLACE(serotype_strain, 'D', '') AS INT) AS serotype,
  COUNT(*) AS sample_count
FROM %s.serology
WHERE collection_date >= $1 AND collection_date < $2
GROUP BY 1, 2, 3
ORDER BY 1, 2, 3`

// TimeSinceSwitch provides the days-since-dominant-strain-switch feature:
// raw weekly serotype counts are resolved to dominant strain sets with the
// continuity tie-break, then scanned for switch events.
type TimeSinceSwitch struct {
	q      StrainQuerier
	schema string
}

// NewTimeSinceSwitch creates the provider.
func NewTimeSinceSwitch(q StrainQuerier, schema string) *TimeSinceSwitch {
	return &TimeSinceSwitch{q: q, schema: schema}
}

// Fetch returns one switch point per week with serotype data in [start, end).
func (p *TimeSinceSwitch) Fetch(ctx context.Context, start, end time.Time) ([]domain.SwitchPoint, error) {
	weeks, err := p.q.StrainCounts(ctx, fmt.Sprintf(strainCountQuery, p.schema), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: serotype counts: %v", ErrDataUnavailable, err)
	}
	obs := domain.ResolveDominant(weeks)
	return domain.DetectSwitches(obs)
}

// Column returns the warehouse column name for this feature.
func (p *TimeSinceSwitch) Column() string { return "days_since_switch" }
