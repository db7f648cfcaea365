package models

import (
	"strings"
	"time"
)

// DefaultOwnerRole is assigned to territories derived from region/segment
// combinations.
const DefaultOwnerRole = "Sales Rep"

// Territory is a named partition of clients. Derived deterministically from
// the distinct (region, segment) pairs observed in the client set, or defined
// explicitly via segmentation tier configuration.
type Territory struct {
	ID        string    `json:"territory_id" db:"territory_id"`
	Region    string    `json:"region" db:"region"`
	Segment   string    `json:"segment" db:"segment"`
	OwnerRole string    `json:"owner_role" db:"owner_role"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GeneralTerritoryPrefix is used when a territory cannot be anchored to a
// region (segment-only and tier-only assignments).
const GeneralTerritoryPrefix = "GEN"

// DeriveTerritoryID builds the deterministic territory identifier from a
// region and segment: uppercase first three characters of each, joined with
// an underscore (e.g. "East"/"Retail" -> "EAS_RET").
func DeriveTerritoryID(region, segment string) string {
	return territoryPrefix(region) + "_" + territoryPrefix(segment)
}

// DeriveGeneralTerritoryID builds a territory identifier for clients without
// a usable region (e.g. "Retail" -> "GEN_RET").
func DeriveGeneralTerritoryID(segment string) string {
	return GeneralTerritoryPrefix + "_" + territoryPrefix(segment)
}

func territoryPrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 3 {
		s = s[:3]
	}
	return strings.ToUpper(s)
}
