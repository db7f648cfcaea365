package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer emits assignment change events
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ChangeEvent is one assignment change published after the audit trail is
// committed. Keyed by client so consumers see each client's changes in order.
type ChangeEvent struct {
	EventType    string            `json:"event_type"` // assignment.new, assignment.changed, assignment.removed
	RunID        string            `json:"run_id"`
	ClientID     string            `json:"client_id"`
	ClientName   string            `json:"client_name"`
	OldTerritory *string           `json:"old_territory,omitempty"`
	NewTerritory *string           `json:"new_territory,omitempty"`
	Rule         *string           `json:"rule,omitempty"`
	ChangeType   models.ChangeType `json:"change_type"`
	Timestamp    time.Time         `json:"timestamp"`
}

func eventType(changeType models.ChangeType) string {
	switch changeType {
	case models.ChangeTypeNew:
		return "assignment.new"
	case models.ChangeTypeChanged:
		return "assignment.changed"
	case models.ChangeTypeRemoved:
		return "assignment.removed"
	}
	return "assignment.changed"
}

// PublishChanges publishes one event per change record in a single batch
func (p *Producer) PublishChanges(ctx context.Context, runID string, changes []models.ChangeRecord) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishChanges")
	defer span.End()

	if len(changes) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(changes))
	for i, change := range changes {
		event := ChangeEvent{
			EventType:    eventType(change.ChangeType),
			RunID:        runID,
			ClientID:     change.ClientID,
			ClientName:   change.ClientName,
			OldTerritory: change.OldTerritory,
			NewTerritory: change.NewTerritory,
			Rule:         change.Rule,
			ChangeType:   change.ChangeType,
			Timestamp:    change.Timestamp,
		}

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}

		messages[i] = kafka.Message{
			Topic: p.topic,
			Key:   []byte(change.ClientID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "run_id", Value: []byte(runID)},
				{Key: "schema_version", Value: []byte("1.0")},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"run_id":     runID,
			"batch_size": len(changes),
		}).Error("Failed to publish change events")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":     runID,
		"batch_size": len(changes),
	}).Debug("Published change events")

	return nil
}
