package ingest

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeWriter struct {
	upserts     []models.Client
	deactivated []string
	err         error
}

func (f *fakeWriter) Upsert(_ context.Context, client models.Client) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, client)
	return nil
}

func (f *fakeWriter) Deactivate(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deactivated = append(f.deactivated, id)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func msg(value string) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{Value: []byte(value), Topic: "clients"}
}

func TestIngestor_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts client from flat feed message", func(t *testing.T) {
		writer := &fakeWriter{}
		ingestor := NewIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, msg(`{
			"action": "upsert",
			"client": {
				"client_id": "C1",
				"client_name": "Acme Corp",
				"region": "East",
				"segment": "Retail",
				"advisor_email": "rep@example.com"
			}
		}`))
		require.NoError(t, err)

		require.Len(t, writer.upserts, 1)
		assert.Equal(t, "C1", writer.upserts[0].ID)
		assert.Equal(t, "Acme Corp", writer.upserts[0].Name)
		assert.True(t, writer.upserts[0].IsActive)
	})

	t.Run("deactivates client on delete action", func(t *testing.T) {
		writer := &fakeWriter{}
		ingestor := NewIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, msg(`{"action": "delete", "client_id": "C9"}`))
		require.NoError(t, err)

		assert.Equal(t, []string{"C9"}, writer.deactivated)
		assert.Empty(t, writer.upserts)
	})

	t.Run("drops malformed message without error", func(t *testing.T) {
		writer := &fakeWriter{}
		ingestor := NewIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, msg(`not json`))
		require.NoError(t, err)
		assert.Empty(t, writer.upserts)
		assert.Empty(t, writer.deactivated)
	})

	t.Run("upserts client from debezium envelope", func(t *testing.T) {
		writer := &fakeWriter{}
		ingestor := NewIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, msg(`{
			"payload": {
				"op": "u",
				"ts_ms": 1700000000000,
				"after": {
					"client_id": "C2",
					"client_name": "Globex",
					"region": "West",
					"segment": "Enterprise",
					"is_active": true
				}
			}
		}`))
		require.NoError(t, err)

		require.Len(t, writer.upserts, 1)
		assert.Equal(t, "C2", writer.upserts[0].ID)
		assert.Equal(t, "Globex", writer.upserts[0].Name)
		assert.False(t, writer.upserts[0].UpdatedAt.IsZero())
	})

	t.Run("deactivates client from debezium delete", func(t *testing.T) {
		writer := &fakeWriter{}
		ingestor := NewIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, msg(`{
			"payload": {
				"op": "d",
				"before": {"client_id": "C3", "client_name": "Initech"},
				"after": null
			}
		}`))
		require.NoError(t, err)

		assert.Equal(t, []string{"C3"}, writer.deactivated)
	})

	t.Run("returns error when writer fails so the message is redelivered", func(t *testing.T) {
		writer := &fakeWriter{err: assert.AnError}
		ingestor := NewIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, msg(`{"action": "delete", "client_id": "C9"}`))
		require.Error(t, err)
	})
}
