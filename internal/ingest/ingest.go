package ingest

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ClientWriter is the subset of the client repository the ingestor needs.
type ClientWriter interface {
	Upsert(ctx context.Context, client models.Client) error
	Deactivate(ctx context.Context, id string) error
}

// Ingestor applies client feed messages to the client dimension. It accepts
// both the flat feed format and Debezium CDC envelopes on the same topic.
type Ingestor struct {
	clients ClientWriter
	logger  ectologger.Logger
}

// NewIngestor creates a new client feed ingestor
func NewIngestor(clients ClientWriter, logger ectologger.Logger) *Ingestor {
	return &Ingestor{
		clients: clients,
		logger:  logger,
	}
}

// Handle processes one feed message. Returning an error leaves the message
// uncommitted so it is redelivered.
func (i *Ingestor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "ingest.Ingestor.Handle")
	defer span.End()

	log := i.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	if envelope, err := kafka.ParseDebeziumMessage(msg.Value); err == nil && envelope.Payload.Op != "" {
		return i.handleCDC(ctx, log, &envelope.Payload)
	}

	feed, err := msg.ParseClientMessage()
	if err != nil {
		// Malformed messages are logged and dropped; redelivery cannot fix them.
		log.WithError(err).Error("Dropping unparseable client message")
		return nil
	}

	if feed.IsDelete() {
		if feed.ClientID == "" {
			log.Error("Dropping delete message without client_id")
			return nil
		}
		if err := i.clients.Deactivate(ctx, feed.ClientID); err != nil {
			return err
		}
		log.WithFields(map[string]any{"client_id": feed.ClientID}).Info("Deactivated client from feed")
		return nil
	}

	client, ok := feed.ToClient()
	if !ok || client.ID == "" {
		log.Error("Dropping upsert message without client payload")
		return nil
	}

	if err := i.clients.Upsert(ctx, client); err != nil {
		return err
	}

	log.WithFields(map[string]any{"client_id": client.ID}).Debug("Upserted client from feed")
	return nil
}

func (i *Ingestor) handleCDC(ctx context.Context, log ectologger.Logger, payload *kafka.DebeziumPayload) error {
	if payload.IsDelete() {
		row, err := parseBefore(payload)
		if err != nil || row == nil || row.ClientID == "" {
			log.Error("Dropping CDC delete without identifiable row")
			return nil
		}
		return i.clients.Deactivate(ctx, row.ClientID)
	}

	row, err := payload.ParseClientRow()
	if err != nil {
		log.WithError(err).Error("Dropping unparseable CDC client row")
		return nil
	}
	if row == nil || row.ClientID == "" {
		return nil
	}

	client := row.ToClient()
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = payload.Timestamp()
	}

	return i.clients.Upsert(ctx, client)
}

func parseBefore(payload *kafka.DebeziumPayload) (*kafka.ClientRow, error) {
	// Deletes carry the row state in Before rather than After.
	shifted := kafka.DebeziumPayload{After: payload.Before}
	return shifted.ParseClientRow()
}
