// Package pipeline orchestrates one dataset build: fetch the weekly
// feature series, assemble the training table, persist it, optionally
// publish it, and drive the external forecast model.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vectorwatch/dengue-etl/internal/config"
	"github.com/vectorwatch/dengue-etl/internal/domain"
	"github.com/vectorwatch/dengue-etl/internal/observability"
)

// WeeklyProvider fetches one weekly feature series for a date range.
type WeeklyProvider interface {
	Fetch(ctx context.Context, start, end time.Time) ([]domain.WeeklyValue, error)
	Column() string
}

// SwitchProvider fetches the days-since-switch series.
type SwitchProvider interface {
	Fetch(ctx context.Context, start, end time.Time) ([]domain.SwitchPoint, error)
	Column() string
}

// AnnualProvider fetches an annual series.
type AnnualProvider interface {
	Fetch(ctx context.Context) ([]domain.YearValue, error)
}

// Upserter persists rows into a warehouse table, skipping duplicates.
type Upserter interface {
	Upsert(ctx context.Context, table string, columns []string, rows [][]any, conflictColumns []string) error
}

// DatasetPublisher emits assembled rows to downstream consumers.
type DatasetPublisher interface {
	PublishDataset(ctx context.Context, runID string, rows []domain.Row) error
}

// FittedModel identifies a fitted model held by the model runner.
type FittedModel struct {
	ID string
}

// ForecastPoint is one posterior prediction from the fitted model.
type ForecastPoint struct {
	Date  time.Time
	Mean  float64
	Lower float64
	Upper float64
}

// FitMetrics are the model fit statistics reported by the runner.
type FitMetrics struct {
	WAIC float64
	DIC  float64
	CPO  float64
	CRPS float64
}

// ForecastModel is the opaque statistical engine: given an assembled
// dataset it produces predictions and fit statistics. Internals are the
// model runner's business.
type ForecastModel interface {
	Fit(ctx context.Context, rows []domain.Row) (FittedModel, error)
	Predict(ctx context.Context, m FittedModel) ([]ForecastPoint, error)
	Metrics(ctx context.Context, m FittedModel) (FitMetrics, error)
}

// Providers bundles the feature sources for one dataset definition.
type Providers struct {
	Temperature WeeklyProvider
	ElNino      WeeklyProvider
	DryDays     WeeklyProvider
	Cases       WeeklyProvider
	Switch      SwitchProvider
	Population  AnnualProvider
}

// Pipeline builds and persists one training dataset per Run call.
type Pipeline struct {
	providers Providers
	store     Upserter
	publisher DatasetPublisher // nil disables publishing
	model     ForecastModel    // nil disables the model stage
	run       *config.RunConfig
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline. Publisher and model may be nil to disable those
// stages.
func New(p Providers, store Upserter, publisher DatasetPublisher, model ForecastModel,
	run *config.RunConfig, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		providers: p,
		store:     store,
		publisher: publisher,
		model:     model,
		run:       run,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return fmt.Errorf("no dataset build has completed yet")
	}
	return nil
}

// Run executes one fetch-assemble-upsert-fit cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	rows, err := p.assemble(ctx, logger)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := p.persistDataset(ctx, rows); err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}
	p.metrics.RowsUpserted.Add(float64(len(rows)))
	logger.Info("dataset persisted", "table", p.run.Dataset, "rows", len(rows))

	if p.publisher != nil {
		if err := p.publisher.PublishDataset(ctx, runID, rows); err != nil {
			// Publishing is best-effort: downstream consumers can replay
			// from the warehouse, so a broker outage does not fail the run.
			p.metrics.PublishErrors.Inc()
			logger.Warn("dataset publish failed", "error", err)
		}
	}

	if p.model != nil {
		if err := p.runModel(ctx, logger, runID, rows); err != nil {
			p.metrics.RunsTotal.WithLabelValues("error").Inc()
			return err
		}
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastRunTimestamp.SetToCurrentTime()
	p.ready.Store(true)
	logger.Info("run complete", "rows", len(rows), "duration", time.Since(start))
	return nil
}

// assemble fetches every feature series and joins them on the temperature
// series. Fetches run sequentially; the join is keyed by (year, eweek), so
// fetch order can never affect the output.
func (p *Pipeline) assemble(ctx context.Context, logger *slog.Logger) ([]domain.Row, error) {
	start, end := p.run.Start, p.run.End

	temp, err := p.fetchWeekly(ctx, p.providers.Temperature, start, end)
	if err != nil {
		return nil, err
	}
	switches, err := p.providers.Switch.Fetch(ctx, start, end)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues(p.providers.Switch.Column()).Inc()
		return nil, fmt.Errorf("fetch %s: %w", p.providers.Switch.Column(), err)
	}
	nino, err := p.fetchWeekly(ctx, p.providers.ElNino, start, end)
	if err != nil {
		return nil, err
	}
	dry, err := p.fetchWeekly(ctx, p.providers.DryDays, start, end)
	if err != nil {
		return nil, err
	}
	cases, err := p.fetchWeekly(ctx, p.providers.Cases, start, end)
	if err != nil {
		return nil, err
	}
	population, err := p.providers.Population.Fetch(ctx)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("population").Inc()
		return nil, fmt.Errorf("fetch population: %w", err)
	}

	rows := domain.Assemble(temp, switches, nino, dry, cases, population)
	p.metrics.RowsAssembled.Add(float64(len(rows)))
	logger.Info("dataset assembled",
		"rows", len(rows),
		"weeks_with_serotype_data", len(switches),
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
	)
	return rows, nil
}

func (p *Pipeline) fetchWeekly(ctx context.Context, prov WeeklyProvider, start, end time.Time) ([]domain.WeeklyValue, error) {
	series, err := prov.Fetch(ctx, start, end)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues(prov.Column()).Inc()
		return nil, fmt.Errorf("fetch %s: %w", prov.Column(), err)
	}
	return series, nil
}

// persistDataset upserts assembled rows keyed on (year, eweek).
func (p *Pipeline) persistDataset(ctx context.Context, rows []domain.Row) error {
	columns := []string{
		"year", "eweek", "date",
		p.providers.Temperature.Column(),
		p.providers.Switch.Column(),
		p.providers.ElNino.Column(),
		p.providers.DryDays.Column(),
		p.providers.Cases.Column(),
		"population",
		"generated_at",
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{
			r.Week.Year, r.Week.Week, r.Date,
			r.TempAnomaly,
			r.DaysSinceSwitch,
			r.NinoSSTA,
			r.DaysNoRain,
			r.Cases,
			r.Population,
			r.GeneratedAt,
		}
	}
	if err := p.store.Upsert(ctx, p.run.Dataset, columns, values, []string{"year", "eweek"}); err != nil {
		return fmt.Errorf("persist dataset: %w", err)
	}
	return nil
}

// runModel fits the forecast model on the assembled rows, then persists its
// predictions and fit statistics.
func (p *Pipeline) runModel(ctx context.Context, logger *slog.Logger, runID string, rows []domain.Row) error {
	fitted, err := p.model.Fit(ctx, rows)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}
	logger.Info("model fitted", "model_id", fitted.ID)

	points, err := p.model.Predict(ctx, fitted)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	p.metrics.ForecastPoints.Add(float64(len(points)))

	if p.run.ForecastTable != "" {
		values := make([][]any, len(points))
		for i, pt := range points {
			values[i] = []any{runID, fitted.ID, pt.Date, pt.Mean, pt.Lower, pt.Upper}
		}
		columns := []string{"run_id", "model_id", "date", "mean", "lower_95", "upper_95"}
		if err := p.store.Upsert(ctx, p.run.ForecastTable, columns, values, []string{"run_id", "date"}); err != nil {
			return fmt.Errorf("persist forecast: %w", err)
		}
	}

	stats, err := p.model.Metrics(ctx, fitted)
	if err != nil {
		return fmt.Errorf("model metrics: %w", err)
	}
	logger.Info("model fit statistics",
		"waic", stats.WAIC, "dic", stats.DIC, "cpo", stats.CPO, "crps", stats.CRPS)

	if p.run.MetricsTable != "" {
		values := [][]any{{runID, fitted.ID, stats.WAIC, stats.DIC, stats.CPO, stats.CRPS}}
		columns := []string{"run_id", "model_id", "waic", "dic", "cpo", "crps"}
		if err := p.store.Upsert(ctx, p.run.MetricsTable, columns, values, []string{"run_id"}); err != nil {
			return fmt.Errorf("persist model metrics: %w", err)
		}
	}
	return nil
}
