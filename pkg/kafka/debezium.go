package kafka

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// DebeziumEnvelope is the standard Debezium CDC message format. Used when
// the client feed comes straight off the CRM database via a connector
// instead of the flat ClientMessage format.
type DebeziumEnvelope struct {
	Schema  json.RawMessage `json:"schema,omitempty"`
	Payload DebeziumPayload `json:"payload"`
}

// DebeziumPayload contains the before/after state of a row
type DebeziumPayload struct {
	Before json.RawMessage `json:"before"`
	After  json.RawMessage `json:"after"`
	Source DebeziumSource  `json:"source"`
	Op     string          `json:"op"` // c=create, u=update, d=delete, r=read (snapshot)
	TsMs   int64           `json:"ts_ms"`
}

// DebeziumSource contains metadata about the source of the change
type DebeziumSource struct {
	Version   string `json:"version"`
	Connector string `json:"connector"`
	Name      string `json:"name"`
	TsMs      int64  `json:"ts_ms"`
	Snapshot  string `json:"snapshot,omitempty"`
	Db        string `json:"db"`
	Sequence  string `json:"sequence,omitempty"`
	Schema    string `json:"schema"`
	Table     string `json:"table"`
	TxId      int64  `json:"txId,omitempty"`
	Lsn       int64  `json:"lsn,omitempty"`
}

// IsCreate returns true if this is a create operation
func (p *DebeziumPayload) IsCreate() bool {
	return p.Op == "c" || p.Op == "r"
}

// IsUpdate returns true if this is an update operation
func (p *DebeziumPayload) IsUpdate() bool {
	return p.Op == "u"
}

// IsDelete returns true if this is a delete operation
func (p *DebeziumPayload) IsDelete() bool {
	return p.Op == "d"
}

// Timestamp returns the event timestamp
func (p *DebeziumPayload) Timestamp() time.Time {
	return time.UnixMilli(p.TsMs)
}

// ClientRow represents a row from the upstream CRM clients table
type ClientRow struct {
	ClientID     string          `json:"client_id"`
	ClientName   string          `json:"client_name"`
	Region       string          `json:"region"`
	Segment      string          `json:"segment"`
	ParentOrg    string          `json:"parent_org"`
	AdvisorEmail string          `json:"advisor_email"`
	IsActive     bool            `json:"is_active"`
	Attributes   json.RawMessage `json:"attributes"`
	UpdatedAt    string          `json:"updated_at"`
}

// ToClient converts the CDC row to a client model
func (r *ClientRow) ToClient() models.Client {
	client := models.Client{
		ID:           r.ClientID,
		Name:         r.ClientName,
		Region:       r.Region,
		Segment:      r.Segment,
		ParentOrg:    r.ParentOrg,
		AdvisorEmail: r.AdvisorEmail,
		IsActive:     r.IsActive,
		UpdatedAt:    parseDebeziumTimestamp(r.UpdatedAt),
	}

	if len(r.Attributes) > 0 && string(r.Attributes) != "null" {
		var attrs map[string]any
		if err := json.Unmarshal(r.Attributes, &attrs); err == nil {
			client.Attributes.Data = attrs
		}
	}

	return client
}

// parseDebeziumTimestamp parses a timestamp string from Debezium.
// Debezium can send timestamps in various formats depending on the connector config.
func parseDebeziumTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999Z",
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}

	return time.Time{}
}

// ParseDebeziumMessage parses a raw Kafka message as a Debezium envelope
func ParseDebeziumMessage(data []byte) (*DebeziumEnvelope, error) {
	var envelope DebeziumEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

func unwrapJSONStringJSON(raw json.RawMessage) (json.RawMessage, error) {
	raw = json.RawMessage(bytes.TrimSpace(raw))
	if len(raw) == 0 {
		return raw, nil
	}
	if raw[0] != '"' {
		return raw, nil // already object/array/etc.
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return json.RawMessage(s), nil
}

// ParseClientRow parses the After payload as a ClientRow
func (p *DebeziumPayload) ParseClientRow() (*ClientRow, error) {
	if len(p.After) == 0 || string(p.After) == "null" {
		return nil, nil
	}

	var row ClientRow
	if err := json.Unmarshal(p.After, &row); err != nil {
		return nil, err
	}

	unwrapped, err := unwrapJSONStringJSON(row.Attributes)
	if err != nil {
		return nil, err
	}
	row.Attributes = unwrapped

	return &row, nil
}
