// Package kafka moves deck lines in and verification records out through
// Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

// Writer produces verification records to a Kafka topic.
// It implements pipeline.RecordLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes records in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	w.logger.Debug("records published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record's payload into a Kafka message keyed
// by the record key.
func serializeToMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec.Payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s record: %w", rec.Kind, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_kind", Value: []byte(rec.Kind)},
			{Key: "run_id", Value: []byte(rec.RunID)},
			{Key: "processed_at", Value: []byte(rec.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
