package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// ClientMessage is the upstream CRM feed format for client upserts and
// deletes. Deletes carry only the client id.
type ClientMessage struct {
	Action    string         `json:"action"` // upsert, delete
	ClientID  string         `json:"client_id"`
	Client    *ClientPayload `json:"client,omitempty"`
	Source    string         `json:"source,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ClientPayload carries client fields from the upstream feed. Fields outside
// the fixed schema land in Extra.
type ClientPayload struct {
	ClientID     string         `json:"client_id"`
	ClientName   string         `json:"client_name"`
	Region       string         `json:"region"`
	Segment      string         `json:"segment"`
	ParentOrg    string         `json:"parent_org"`
	AdvisorEmail string         `json:"advisor_email"`
	IsActive     *bool          `json:"is_active,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// ParseClientMessage parses the message value as a client feed message
func (m *IncomingMessage) ParseClientMessage() (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return nil, err
	}
	if msg.ClientID == "" && msg.Client != nil {
		msg.ClientID = msg.Client.ClientID
	}
	return &msg, nil
}

// IsDelete returns true for delete actions
func (m *ClientMessage) IsDelete() bool {
	return m.Action == "delete"
}

// ToClient converts the payload to a client model. Returns false when the
// message carries no payload.
func (m *ClientMessage) ToClient() (models.Client, bool) {
	if m.Client == nil {
		return models.Client{}, false
	}

	client := models.Client{
		ID:           m.Client.ClientID,
		Name:         m.Client.ClientName,
		Region:       m.Client.Region,
		Segment:      m.Client.Segment,
		ParentOrg:    m.Client.ParentOrg,
		AdvisorEmail: m.Client.AdvisorEmail,
		IsActive:     true,
		UpdatedAt:    m.Timestamp,
	}
	if m.Client.IsActive != nil {
		client.IsActive = *m.Client.IsActive
	}
	if len(m.Client.Extra) > 0 {
		client.Attributes.Data = m.Client.Extra
	}
	if client.ID == "" {
		client.ID = m.ClientID
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = time.Now().UTC()
	}

	return client, true
}
