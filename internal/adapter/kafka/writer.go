package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/meteor-ke-sweep/internal/config"
	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Publisher produces job events to a Kafka topic.
// It implements sweep.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured job-event topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one job event. Events of one worker share a partition so
// consumers see them in job order.
func (p *Publisher) Publish(ctx context.Context, event domain.JobEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// EventKey is <namespace>/<worker>/<yyyy-mm-dd>.
func EventKey(event domain.JobEvent) string {
	return event.Namespace + "/" + strconv.Itoa(event.Worker) + "/" + event.Job.Key()
}

// serializeToMessage marshals a JobEvent into a Kafka message.
func serializeToMessage(event domain.JobEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize job event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(EventKey(event)),
		Value: data,
		Time:  event.At,
		Headers: []kafkago.Header{
			{Key: "namespace", Value: []byte(event.Namespace)},
			{Key: "status", Value: []byte(event.Status)},
			{Key: "emitted_at", Value: []byte(event.At.Format(time.RFC3339))},
		},
	}, nil
}
