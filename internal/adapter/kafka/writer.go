// Package kafka publishes assembled training rows to a sink topic so
// downstream consumers (dashboards, alerting) see each dataset build
// without querying the warehouse.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/vectorwatch/dengue-etl/internal/config"
	"github.com/vectorwatch/dengue-etl/internal/domain"
)

// Writer produces dataset rows to a Kafka topic.
// It implements pipeline.DatasetPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured dataset topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDatasetTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishDataset serializes and publishes every assembled row in a single
// WriteMessages call. Messages are keyed by week so a compacted topic keeps
// the latest build per week.
func (w *Writer) PublishDataset(ctx context.Context, runID string, rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(runID, rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish dataset rows: %w", err)
	}
	w.logger.Debug("dataset rows published", "run_id", runID, "rows", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one training row into a Kafka message.
func serializeToMessage(runID string, row domain.Row) (kafkago.Message, error) {
	payload := rowMessage{
		Year:            row.Week.Year,
		EWeek:           row.Week.Week,
		Date:            row.Date.Format(time.DateOnly),
		TempAnomaly:     row.TempAnomaly,
		DaysSinceSwitch: row.DaysSinceSwitch,
		NinoSSTA:        row.NinoSSTA,
		DaysNoRain:      row.DaysNoRain,
		Cases:           row.Cases,
		Population:      row.Population,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dataset row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Week.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(row.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

type rowMessage struct {
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
