// Package postgres implements the warehouse gateway on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vectorwatch/dengue-etl/internal/domain"
)

// ErrStorage wraps connectivity and constraint failures surfaced by the
// warehouse. Duplicate-key conflicts during upserts are not errors; they
// are skipped and logged.
var ErrStorage = errors.New("storage failure")

// Gateway is a Postgres-backed storage gateway. It satisfies the feature
// package's querier interfaces and the pipeline's upserter.
type Gateway struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects a pooled gateway to the warehouse.
func Open(ctx context.Context, url string, maxConns int32, logger *slog.Logger) (*Gateway, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrStorage, err)
	}
	return &Gateway{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (g *Gateway) Close() {
	if g != nil && g.pool != nil {
		g.pool.Close()
	}
}

// Ping verifies warehouse connectivity, used by the readiness probe.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrStorage, err)
	}
	return nil
}

// WeeklySeries runs a query whose rows are (iso_year, eweek, value).
func (g *Gateway) WeeklySeries(ctx context.Context, query string, args ...any) ([]domain.WeeklyValue, error) {
	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: weekly series: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.WeeklyValue
	for rows.Next() {
		var v domain.WeeklyValue
		if err := rows.Scan(&v.Week.Year, &v.Week.Week, &v.Value); err != nil {
			return nil, fmt.Errorf("%w: scan weekly row: %v", ErrStorage, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: weekly series: %v", ErrStorage, err)
	}
	return out, nil
}

// StrainCounts runs a query whose rows are (iso_year, eweek, serotype,
// sample_count), ordered by week, and groups them per week.
func (g *Gateway) StrainCounts(ctx context.Context, query string, args ...any) ([]domain.WeeklyStrainCounts, error) {
	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: strain counts: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.WeeklyStrainCounts
	for rows.Next() {
		var week domain.EWeek
		var c domain.StrainCount
		if err := rows.Scan(&week.Year, &week.Week, &c.Strain, &c.Count); err != nil {
			return nil, fmt.Errorf("%w: scan strain row: %v", ErrStorage, err)
		}
		if n := len(out); n > 0 && out[n-1].Week == week {
			out[n-1].Counts = append(out[n-1].Counts, c)
			continue
		}
		out = append(out, domain.WeeklyStrainCounts{Week: week, Counts: []domain.StrainCount{c}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: strain counts: %v", ErrStorage, err)
	}
	return out, nil
}

// AnnualSeries runs a query whose rows are (year, value).
func (g *Gateway) AnnualSeries(ctx context.Context, query string, args ...any) ([]domain.YearValue, error) {
	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: annual series: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.YearValue
	for rows.Next() {
		var v domain.YearValue
		if err := rows.Scan(&v.Year, &v.Value); err != nil {
			return nil, fmt.Errorf("%w: scan annual row: %v", ErrStorage, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: annual series: %v", ErrStorage, err)
	}
	return out, nil
}

// Upsert inserts rows into table with ON CONFLICT DO NOTHING on the
// conflict columns, making replays idempotent. Rows skipped by conflicts
// are logged, not failed.
func (g *Gateway) Upsert(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) error {
	if len(rows) == 0 {
		return nil
	}
	sql, args, err := buildInsert(table, columns, rows, conflictColumns)
	if err != nil {
		return err
	}

	tag, err := g.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%w: upsert into %s: %v", ErrStorage, table, err)
	}

	inserted := tag.RowsAffected()
	if skipped := int64(len(rows)) - inserted; skipped > 0 {
		g.logger.Info("duplicate rows skipped during upsert",
			"table", table, "inserted", inserted, "skipped", skipped)
	}
	return nil
}

// buildInsert renders a multi-row INSERT ... ON CONFLICT DO NOTHING
// statement with positional placeholders.
func buildInsert(table string, columns []string, rows [][]any, conflictColumns []string) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", i*len(columns)+j+1)
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}

	if len(conflictColumns) > 0 {
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO NOTHING", strings.Join(conflictColumns, ", "))
	}
	return sb.String(), args, nil
}
