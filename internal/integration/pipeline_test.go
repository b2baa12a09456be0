//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vectorwatch/dengue-etl/internal/adapter/postgres"
	"github.com/vectorwatch/dengue-etl/internal/config"
	"github.com/vectorwatch/dengue-etl/internal/feature"
	"github.com/vectorwatch/dengue-etl/internal/observability"
	"github.com/vectorwatch/dengue-etl/internal/pipeline"
)

const schemaDDL = `
CREATE SCHEMA national_analysis;

CREATE TABLE national_analysis.temperature (
	date date NOT NULL,
	station_id text NOT NULL,
	dbt_max double precision,
	dbt_min double precision,
	dbt_mean double precision,
	PRIMARY KEY (date, station_id)
);

CREATE TABLE national_analysis.rainfall (
	date date NOT NULL,
	station_id text NOT NULL,
	rainfall_amt_total double precision,
	rainfall_duration_min double precision,
	PRIMARY KEY (date, station_id)
);

CREATE TABLE national_analysis.elnino34 (
	date date PRIMARY KEY,
	sst double precision NOT NULL,
	ssta double precision NOT NULL
);

CREATE TABLE national_analysis.serology (
	collection_date date NOT NULL,
	sample_id text NOT NULL,
	serotype_strain text NOT NULL,
	PRIMARY KEY (collection_date, sample_id)
);

CREATE TABLE national_analysis.dengue_agg (
	date date PRIMARY KEY,
	cases_total double precision NOT NULL
);

CREATE TABLE national_analysis.population (
	year int PRIMARY KEY,
	population double precision NOT NULL
);

CREATE TABLE national_analysis.inla_model_ds (
	year int NOT NULL,
	eweek int NOT NULL,
	date date NOT NULL,
	max_t_scale_12_wk_avg_0 double precision,
	days_since_switch int,
	nino34_12_wk_avg_4 double precision,
	days_no_rain_12_wk_total_0 double precision,
	cases double precision,
	population double precision,
	generated_at timestamptz,
	PRIMARY KEY (year, eweek)
);
`

func startWarehouse(t *testing.T, ctx context.Context) string {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("surveillance"),
		tcpostgres.WithUsername("etl"),
		tcpostgres.WithPassword("etl"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		assert.NoError(t, ctr.Terminate(context.Background()))
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func seed(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, schemaDDL)
	require.NoError(t, err)

	// Daily observations for January 2024 across two stations.
	for day := 1; day <= 31; day++ {
		date := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
		for _, station := range []string{"S24", "S44"} {
			_, err = pool.Exec(ctx,
				`INSERT INTO national_analysis.temperature (date, station_id, dbt_max, dbt_min, dbt_mean)
				 VALUES ($1, $2, $3, $4, $5)`,
				date, station, 31.0+float64(day%3), 24.0, 27.5)
			require.NoError(t, err)

			rain := 0.0
			if day%2 == 0 {
				rain = 6.5
			}
			_, err = pool.Exec(ctx,
				`INSERT INTO national_analysis.rainfall (date, station_id, rainfall_amt_total)
				 VALUES ($1, $2, $3)`,
				date, station, rain)
			require.NoError(t, err)
		}
	}

	// Weekly Niño readings on the Wednesday of each week.
	for _, d := range []int{3, 10, 17, 24, 31} {
		_, err = pool.Exec(ctx,
			`INSERT INTO national_analysis.elnino34 (date, sst, ssta) VALUES ($1, $2, $3)`,
			time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC), 28.6, 2.0)
		require.NoError(t, err)
	}

	// Serotyped samples: DENV-2 dominant in week 1, DENV-3 takes over in week 3.
	samples := []struct {
		date   time.Time
		id     string
		strain string
	}{
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "smp-1", "D2"},
		{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "smp-2", "D2"},
		{time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), "smp-3", "D3"},
		{time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), "smp-4", "D3"},
		{time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC), "smp-5", "D2"},
	}
	for _, s := range samples {
		_, err = pool.Exec(ctx,
			`INSERT INTO national_analysis.serology (collection_date, sample_id, serotype_strain)
			 VALUES ($1, $2, $3)`, s.date, s.id, s.strain)
		require.NoError(t, err)
	}

	for day := 1; day <= 31; day++ {
		_, err = pool.Exec(ctx,
			`INSERT INTO national_analysis.dengue_agg (date, cases_total) VALUES ($1, $2)`,
			time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), float64(10+day))
		require.NoError(t, err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO national_analysis.population (year, population) VALUES (2024, 5600000)`)
	require.NoError(t, err)
}

// TestPipelineAgainstWarehouse runs the full fetch-assemble-upsert cycle
// against a real Postgres and verifies the persisted dataset.
func TestPipelineAgainstWarehouse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dsn := startWarehouse(t, ctx)
	seed(t, ctx, dsn)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw, err := postgres.Open(ctx, dsn, 2, logger)
	require.NoError(t, err)
	defer gw.Close()
	require.NoError(t, gw.Ping(ctx))

	const schema = "national_analysis"
	run := &config.RunConfig{
		Dataset:     "national_analysis.inla_model_ds",
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Temperature: config.FeatureParams{Window: 2, Lag: 0},
		Nino34:      config.FeatureParams{Window: 2, Lag: 0},
		DaysNoRain:  config.FeatureParams{Window: 2, Lag: 0},
	}

	providers := pipeline.Providers{
		Temperature: feature.NewTemperature(gw, schema, run.Temperature.Window, run.Temperature.Lag),
		ElNino:      feature.NewElNinoSSTA(gw, schema, run.Nino34.Window, run.Nino34.Lag),
		DryDays:     feature.NewDryDays(gw, schema, run.DaysNoRain.Window, run.DaysNoRain.Lag),
		Cases:       feature.NewCases(gw, schema),
		Switch:      feature.NewTimeSinceSwitch(gw, schema),
		Population:  feature.NewPopulation(gw, schema),
	}

	p := pipeline.New(providers, gw, nil, nil, run, logger, observability.NewMetricsForTesting())
	require.NoError(t, p.Run(ctx))
	require.NoError(t, p.CheckReadiness(ctx))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	var rowCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM national_analysis.inla_model_ds`).Scan(&rowCount))
	assert.Equal(t, 5, rowCount, "one dataset row per ISO week of January 2024")

	// Week 1: DENV-2 dominant, first serotyped week counts as a switch.
	var daysSinceSwitch int
	var cases float64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT days_since_switch, cases FROM national_analysis.inla_model_ds
		 WHERE year = 2024 AND eweek = 1`).Scan(&daysSinceSwitch, &cases))
	assert.Equal(t, 0, daysSinceSwitch)
	assert.Equal(t, 11.0+12.0+13.0+14.0+15.0+16.0+17.0, cases)

	// Week 2 has no serotyped samples, so days_since_switch defaults to 0.
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT days_since_switch FROM national_analysis.inla_model_ds
		 WHERE year = 2024 AND eweek = 2`).Scan(&daysSinceSwitch))
	assert.Equal(t, 0, daysSinceSwitch)

	// Week 3: DENV-3 outnumbers DENV-2, a genuine switch.
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT days_since_switch FROM national_analysis.inla_model_ds
		 WHERE year = 2024 AND eweek = 3`).Scan(&daysSinceSwitch))
	assert.Equal(t, 0, daysSinceSwitch)

	var population float64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT population FROM national_analysis.inla_model_ds
		 WHERE year = 2024 AND eweek = 1`).Scan(&population))
	assert.Equal(t, 5600000.0, population)

	// A second run hits the (year, eweek) conflict key and inserts nothing.
	require.NoError(t, p.Run(ctx))
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM national_analysis.inla_model_ds`).Scan(&rowCount))
	assert.Equal(t, 5, rowCount, "replays are idempotent")
}
