// Package modelrunner talks to the forecast model service over HTTP.
//
// The model service wraps the Bayesian spatio-temporal engine (INLA) behind
// a small JSON API: POST a training dataset to fit, then read predictions
// and fit statistics for the returned model ID. This client treats the
// engine as opaque; it never interprets model internals.
package modelrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vectorwatch/dengue-etl/internal/domain"
	"github.com/vectorwatch/dengue-etl/internal/pipeline"
)

// Client implements pipeline.ForecastModel against the model runner API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a model runner client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fit submits the assembled dataset and blocks until the fit completes.
func (c *Client) Fit(ctx context.Context, rows []domain.Row) (pipeline.FittedModel, error) {
	payload := fitRequest{Rows: make([]datasetRow, len(rows))}
	for i, r := range rows {
		payload.Rows[i] = newDatasetRow(r)
	}

	var resp fitResponse
	if err := c.post(ctx, "/v1/models", payload, &resp); err != nil {
		return pipeline.FittedModel{}, err
	}
	if resp.ModelID == "" {
		return pipeline.FittedModel{}, fmt.Errorf("model runner returned empty model id")
	}
	return pipeline.FittedModel{ID: resp.ModelID}, nil
}

// Predict retrieves the posterior predictions for a fitted model.
func (c *Client) Predict(ctx context.Context, m pipeline.FittedModel) ([]pipeline.ForecastPoint, error) {
	var resp predictResponse
	if err := c.get(ctx, "/v1/models/"+m.ID+"/predictions", &resp); err != nil {
		return nil, err
	}

	points := make([]pipeline.ForecastPoint, len(resp.Predictions))
	for i, p := range resp.Predictions {
		date, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: bad date %q: %w", i, p.Date, err)
		}
		points[i] = pipeline.ForecastPoint{
			Date:  date,
			Mean:  p.Mean,
			Lower: p.Lower95,
			Upper: p.Upper95,
		}
	}
	return points, nil
}

// Metrics retrieves the fit statistics for a fitted model.
func (c *Client) Metrics(ctx context.Context, m pipeline.FittedModel) (pipeline.FitMetrics, error) {
	var resp metricsResponse
	if err := c.get(ctx, "/v1/models/"+m.ID+"/metrics", &resp); err != nil {
		return pipeline.FitMetrics{}, err
	}
	return pipeline.FitMetrics{
		WAIC: resp.WAIC,
		DIC:  resp.DIC,
		CPO:  resp.CPO,
		CRPS: resp.CRPS,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model runner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("model runner error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Wire types for the model runner API.

type fitRequest struct {
	Rows []datasetRow `json:"rows"`
}

type datasetRow struct {
	Year            int      `json:"year"`
	EWeek           int      `json:"eweek"`
	Date            string   `json:"date"`
	TempAnomaly     float64  `json:"max_t_scale"`
	DaysSinceSwitch int      `json:"days_since_switch"`
	NinoSSTA        *float64 `json:"nino34,omitempty"`
	DaysNoRain      *float64 `json:"days_no_rain,omitempty"`
	Cases           *float64 `json:"cases,omitempty"`
	Population      *float64 `json:"population,omitempty"`
}

func newDatasetRow(r domain.Row) datasetRow {
	return datasetRow{
		Year:            r.Week.Year,
		EWeek:           r.Week.Week,
		Date:            r.Date.Format(time.DateOnly),
		TempAnomaly:     r.TempAnomaly,
		DaysSinceSwitch: r.DaysSinceSwitch,
		NinoSSTA:        r.NinoSSTA,
		DaysNoRain:      r.DaysNoRain,
		Cases:           r.Cases,
		Population:      r.Population,
	}
}

type fitResponse struct {
	ModelID string `json:"model_id"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	Date    string  `json:"date"`
	Mean    float64 `json:"mean"`
	Lower95 float64 `json:"lower_95"`
	Upper95 float64 `json:"upper_95"`
}

type metricsResponse struct {
	WAIC float64 `json:"waic"`
	DIC  float64 `json:"dic"`
	CPO  float64 `json:"cpo"`
	CRPS float64 `json:"crps"`
}
