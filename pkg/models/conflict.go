package models

import "time"

// ConflictType classifies a structural anomaly in committed assignment data.
type ConflictType string

const (
	ConflictTerritoryOverlap      ConflictType = "TERRITORY_OVERLAP"
	ConflictAdvisorMultiTerritory ConflictType = "ADVISOR_MULTI_TERRITORY"
	ConflictOrphanedClient        ConflictType = "ORPHANED_CLIENT"
	ConflictOrphanedTerritory     ConflictType = "ORPHANED_TERRITORY"
	ConflictNullClient            ConflictType = "NULL_CLIENT"
	ConflictNullTerritory         ConflictType = "NULL_TERRITORY"
)

// Severity ranks a conflict. ERROR-severity conflicts gate downstream trust
// in the assignment set.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Conflict is one detected anomaly. The full set is regenerated on every
// detection run; conflicts are never updated in place.
type Conflict struct {
	Type         ConflictType `json:"conflict_type" db:"conflict_type"`
	Severity     Severity     `json:"severity" db:"severity"`
	Message      string       `json:"message" db:"message"`
	ClientID     *string      `json:"client_id,omitempty" db:"client_id"`
	TerritoryID  *string      `json:"territory_id,omitempty" db:"territory_id"`
	AdvisorEmail *string      `json:"advisor_email,omitempty" db:"advisor_email"`
	Territories  []string     `json:"territories,omitempty" db:"-"`
	ClientCount  int          `json:"client_count,omitempty" db:"client_count"`
	DetectedAt   time.Time    `json:"detected_at" db:"detected_at"`
}

// ConflictReport aggregates one detection run.
type ConflictReport struct {
	Conflicts  []Conflict           `json:"conflicts"`
	ByType     map[ConflictType]int `json:"conflicts_by_type"`
	BySeverity map[Severity]int     `json:"conflicts_by_severity"`
	HasErrors  bool                 `json:"has_errors"`
}

// Total returns the number of conflicts in the report.
func (r ConflictReport) Total() int {
	return len(r.Conflicts)
}
