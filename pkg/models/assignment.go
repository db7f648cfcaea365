package models

import "time"

// AssignmentTypePrimary is the only assignment type the updater writes today.
const AssignmentTypePrimary = "PRIMARY"

// Assignment is the current mapping of one client to one territory plus the
// responsible advisor. At most one row per client has IsCurrent=true in a
// correct dataset; the conflict detector reports violations of that
// invariant rather than assuming it.
type Assignment struct {
	ClientID       string    `json:"client_id" db:"client_id"`
	TerritoryID    *string   `json:"territory_id" db:"territory_id"`
	AdvisorEmail   string    `json:"advisor_email" db:"advisor_email"`
	AssignmentType string    `json:"assignment_type" db:"assignment_type"`
	IsCurrent      bool      `json:"is_current" db:"is_current"`
	AssignedByRule *string   `json:"assigned_by_rule" db:"assigned_by_rule"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ChangeType classifies an assignment diff entry.
type ChangeType string

const (
	ChangeTypeNew     ChangeType = "NEW"
	ChangeTypeChanged ChangeType = "CHANGED"
	ChangeTypeRemoved ChangeType = "REMOVED"
)

// ChangeRecord is one append-only audit entry. Records are never mutated or
// deleted once written.
type ChangeRecord struct {
	ID           string     `json:"id" db:"id"`
	ClientID     string     `json:"client_id" db:"client_id"`
	ClientName   string     `json:"client_name" db:"client_name"`
	ChangeType   ChangeType `json:"change_type" db:"change_type"`
	OldTerritory *string    `json:"old_territory" db:"old_territory"`
	NewTerritory *string    `json:"new_territory" db:"new_territory"`
	Rule         *string    `json:"rule" db:"rule"`
	Timestamp    time.Time  `json:"timestamp" db:"timestamp"`
}

// UpdateSummary reports the outcome of one assignment update run.
type UpdateSummary struct {
	ClientsProcessed int                `json:"clients_processed"`
	ClientsAssigned  int                `json:"clients_assigned"`
	TotalChanges     int                `json:"total_changes"`
	ChangesByType    map[ChangeType]int `json:"changes_by_type"`
	RuleUsage        map[string]int     `json:"rule_usage"`
	Timestamp        time.Time          `json:"timestamp"`
}
