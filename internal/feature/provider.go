// Package feature builds the weekly model features from warehouse data.
//
// Each provider pairs a raw aggregation query (one value per
// epidemiological week, nothing finer) with a domain transform: the rolling
// window and lag for climate features, dominant-strain resolution and
// switch detection for serology. Providers are deliberately thin; all
// algorithmic content lives in the domain package where it is tested
// without a database.
package feature

import (
	"context"
	"errors"

	"github.com/vectorwatch/dengue-etl/internal/domain"
)

// ErrDataUnavailable wraps any storage failure surfaced while fetching a
// feature series.
var ErrDataUnavailable = errors.New("feature data unavailable")

// WeeklyQuerier runs a query returning (iso_year, eweek, value) rows in
// chronological order.
type WeeklyQuerier interface {
	WeeklySeries(ctx context.Context, query string, args ...any) ([]domain.WeeklyValue, error)
}

// StrainQuerier runs a query returning (iso_year, eweek, serotype, count)
// rows grouped into per-week strain counts, in chronological order.
type StrainQuerier interface {
	StrainCounts(ctx context.Context, query string, args ...any) ([]domain.WeeklyStrainCounts, error)
}

// AnnualQuerier runs a query returning (year, value) rows.
type AnnualQuerier interface {
	AnnualSeries(ctx context.Context, query string, args ...any) ([]domain.YearValue, error)
}
