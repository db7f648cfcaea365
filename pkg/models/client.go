package models

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
)

// Client is one row of the client dimension. The authoritative set for a
// pipeline run; immutable within the run.
type Client struct {
	ID           string                         `json:"client_id" db:"client_id"`
	Name         string                         `json:"client_name" db:"client_name"`
	Region       string                         `json:"region" db:"region"`
	Segment      string                         `json:"segment" db:"segment"`
	ParentOrg    string                         `json:"parent_org" db:"parent_org"`
	AdvisorEmail string                         `json:"advisor_email" db:"advisor_email"`
	IsActive     bool                           `json:"is_active" db:"is_active"`
	Attributes   database.JSONB[map[string]any] `json:"attributes,omitempty" db:"attributes"`
	UpdatedAt    time.Time                      `json:"updated_at" db:"updated_at"`
}

// RequiredClientColumns are the columns extraction must provide. Missing any
// of these is a fatal validation error.
var RequiredClientColumns = []string{
	"client_id",
	"client_name",
	"region",
	"segment",
	"parent_org",
	"advisor_email",
}

// Field looks up a named field on the client, checking the fixed columns
// first and the extra attributes second. Used by tier criteria evaluation.
func (c Client) Field(name string) (any, bool) {
	switch name {
	case "client_id":
		return c.ID, true
	case "client_name", "name":
		return c.Name, true
	case "region":
		return c.Region, true
	case "segment":
		return c.Segment, true
	case "parent_org":
		return c.ParentOrg, true
	case "advisor_email":
		return c.AdvisorEmail, true
	case "is_active":
		return c.IsActive, true
	}
	if c.Attributes.Data == nil {
		return nil, false
	}
	v, ok := c.Attributes.Data[name]
	return v, ok
}

// NonEmptyFieldCount counts populated fields. The most_complete merge
// strategy keeps the record with the higher count.
func (c Client) NonEmptyFieldCount() int {
	count := 0
	for _, v := range []string{c.ID, c.Name, c.Region, c.Segment, c.ParentOrg, c.AdvisorEmail} {
		if v != "" {
			count++
		}
	}
	for _, v := range c.Attributes.Data {
		if v != nil {
			count++
		}
	}
	return count
}
