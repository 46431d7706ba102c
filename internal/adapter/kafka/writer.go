package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/safety-dashboard/internal/config"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
)

// messageWriter is the part of *kafkago.Writer the Writer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes region updates to the updates topic.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured updates topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaUpdatesTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and sends the updates in a single WriteMessages call.
// Updates are keyed by region code so each region stays on one partition.
func (w *Writer) Publish(ctx context.Context, updates []domain.RegionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(updates))
	for i := range updates {
		msg, err := serializeToMessage(updates[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish region updates: %w", err)
	}
	w.logger.Debug("region updates published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionUpdate into a Kafka message.
func serializeToMessage(u domain.RegionUpdate) (kafkago.Message, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(u.Code),
		Value: data,
		Time:  u.UpdatedAt,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(u.Code)},
			{Key: "updated_at", Value: []byte(u.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
