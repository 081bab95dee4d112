package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-track-verify/internal/config"
	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

// DeckHeader names the message header carrying the deck a line belongs to.
const DeckHeader = "deck"

// defaultIdleRounds is how many empty flush windows end a run.
const defaultIdleRounds = 3

// Reader consumes deck lines from a Kafka topic, one line per message.
// It implements pipeline.LineExtractor. Offsets are committed through each
// line's Commit callback once the run has stored its records.
type Reader struct {
	reader *kafkago.Reader
	cfg    *config.Config
	logger *slog.Logger

	idleRounds int
	idle       int
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaSourceTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Reader{reader: r, cfg: cfg, logger: logger, idleRounds: defaultIdleRounds}
}

// ExtractBatch fetches up to batchSize messages, waiting at most one flush
// interval for the batch to fill. After several consecutive empty windows
// the topic is considered drained and io.EOF is returned.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.BatchFlushInterval)
	defer cancel()

	batch := make([]domain.RawLine, 0, batchSize)
	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(fetchCtx)
		if err != nil {
			if ctx.Err() != nil {
				return batch, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return batch, fmt.Errorf("fetch message: %w", err)
		}
		batch = append(batch, r.mapMessage(msg))
	}

	if len(batch) > 0 {
		r.idle = 0
		return batch, nil
	}
	r.idle++
	if r.idle >= r.idleRounds {
		r.logger.Info("source topic drained", "topic", r.cfg.KafkaSourceTopic, "idle_windows", r.idle)
		r.idle = 0
		return nil, io.EOF
	}
	return batch, nil
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawLine {
	raw := mapMessageToRawLine(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	if raw.Deck == "" {
		r.logger.Warn("message has no deck header", "topic", msg.Topic,
			"partition", msg.Partition, "offset", msg.Offset)
	}
	return raw
}

// Close closes the underlying consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawLine converts a Kafka message into a RawLine. The deck
// comes from the deck header, falling back to the message key.
func mapMessageToRawLine(msg kafkago.Message) domain.RawLine {
	var deck domain.Deck
	for _, h := range msg.Headers {
		if h.Key == DeckHeader {
			deck, _ = domain.ParseDeck(string(h.Value))
		}
	}
	if deck == "" && len(msg.Key) > 0 {
		deck, _ = domain.ParseDeck(string(msg.Key))
	}
	return domain.RawLine{
		Deck:      deck,
		Source:    msg.Topic,
		Text:      strings.TrimRight(string(msg.Value), "\r\n"),
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
