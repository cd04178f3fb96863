package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/config"
	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// defaultBatchSize caps the messages passed to one WriteMessages call.
const defaultBatchSize = 500

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes one message per sample row to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, batchSize: defaultBatchSize, logger: logger}
}

// Name identifies the sink in metrics and logs.
func (w *Writer) Name() string { return "kafka" }

// LoadSample serializes every row of s and publishes them in batches. Rows
// are keyed by county and year so reruns land on the same partition.
func (w *Writer) LoadSample(ctx context.Context, s *domain.SampleMatrix, generatedAt time.Time) error {
	batch := make([]kafkago.Message, 0, min(w.batchSize, s.Rows()))
	published := 0

	for i := 0; i < s.Rows(); i++ {
		msg, err := serializeToMessage(s.Record(i, generatedAt))
		if err != nil {
			return err
		}
		batch = append(batch, msg)

		if len(batch) == w.batchSize || i == s.Rows()-1 {
			if err := w.writer.WriteMessages(ctx, batch...); err != nil {
				return fmt.Errorf("publish rows %d-%d: %w", published, published+len(batch)-1, err)
			}
			published += len(batch)
			batch = batch[:0]
		}
	}

	w.logger.Info("sample published", "rows", published)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SampleRecord into a Kafka message.
func serializeToMessage(rec domain.SampleRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sample record %s: %w", rec.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "year", Value: []byte(strconv.Itoa(rec.Year))},
			{Key: "located", Value: []byte(strconv.FormatBool(rec.Located))},
			{Key: "generated_at", Value: []byte(rec.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
