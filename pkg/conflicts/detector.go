// Package conflicts scans committed client, territory, and assignment sets
// for structural anomalies. Detection is read-only and regenerates the full
// conflict set on every run.
package conflicts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Detector inspects assignment data. It never mutates the sets it reads.
type Detector struct {
	logger ectologger.Logger
}

// NewDetector creates a new Detector
func NewDetector(logger ectologger.Logger) *Detector {
	return &Detector{logger: logger}
}

// DetectAll runs every conflict check and aggregates the results. A clean
// dataset yields an empty conflict list and HasErrors=false.
func (d *Detector) DetectAll(ctx context.Context, clients []models.Client, territories []models.Territory, assignments []models.Assignment) models.ConflictReport {
	ctx, span := tracing.StartSpan(ctx, "conflicts.Detector.DetectAll")
	defer span.End()

	detectedAt := time.Now().UTC()

	var found []models.Conflict
	found = append(found, d.territoryOverlaps(clients, assignments, detectedAt)...)
	found = append(found, d.advisorMultiTerritory(assignments, detectedAt)...)
	found = append(found, d.orphanedAssignments(clients, territories, assignments, detectedAt)...)

	report := models.ConflictReport{
		Conflicts:  found,
		ByType:     make(map[models.ConflictType]int),
		BySeverity: make(map[models.Severity]int),
	}
	for _, c := range found {
		report.ByType[c.Type]++
		report.BySeverity[c.Severity]++
		if c.Severity == models.SeverityError {
			report.HasErrors = true
		}
	}

	logger := d.logger.WithContext(ctx).WithFields(map[string]any{
		"total":      report.Total(),
		"has_errors": report.HasErrors,
	})
	if report.HasErrors {
		logger.Error("conflict detection found errors")
	} else {
		logger.Info("conflict detection complete")
	}

	return report
}

// territoryOverlaps finds clients with more than one current assignment.
func (d *Detector) territoryOverlaps(clients []models.Client, assignments []models.Assignment, detectedAt time.Time) []models.Conflict {
	namesByID := make(map[string]string, len(clients))
	for _, c := range clients {
		namesByID[c.ID] = c.Name
	}

	currentByClient := make(map[string][]models.Assignment)
	for _, a := range assignments {
		if a.IsCurrent && a.ClientID != "" {
			currentByClient[a.ClientID] = append(currentByClient[a.ClientID], a)
		}
	}

	var found []models.Conflict
	for _, clientID := range sortedKeys(currentByClient) {
		rows := currentByClient[clientID]
		if len(rows) <= 1 {
			continue
		}

		territoryIDs := make([]string, 0, len(rows))
		for _, a := range rows {
			if a.TerritoryID != nil {
				territoryIDs = append(territoryIDs, *a.TerritoryID)
			}
		}
		sort.Strings(territoryIDs)

		name := namesByID[clientID]
		if name == "" {
			name = "Unknown"
		}

		id := clientID
		found = append(found, models.Conflict{
			Type:        models.ConflictTerritoryOverlap,
			Severity:    models.SeverityWarning,
			ClientID:    &id,
			Territories: territoryIDs,
			Message:     fmt.Sprintf("client %s has %d current assignments across territories %v", name, len(rows), territoryIDs),
			DetectedAt:  detectedAt,
		})
	}

	return found
}

// advisorMultiTerritory finds advisors whose current assignments span more
// than one territory. Informational only; multi-territory advisors are
// expected in some organizations.
func (d *Detector) advisorMultiTerritory(assignments []models.Assignment, detectedAt time.Time) []models.Conflict {
	type advisorStats struct {
		territories map[string]bool
		clients     int
	}

	byAdvisor := make(map[string]*advisorStats)
	for _, a := range assignments {
		if !a.IsCurrent || a.AdvisorEmail == "" {
			continue
		}
		stats, ok := byAdvisor[a.AdvisorEmail]
		if !ok {
			stats = &advisorStats{territories: make(map[string]bool)}
			byAdvisor[a.AdvisorEmail] = stats
		}
		stats.clients++
		if a.TerritoryID != nil {
			stats.territories[*a.TerritoryID] = true
		}
	}

	var found []models.Conflict
	for _, email := range sortedKeys(byAdvisor) {
		stats := byAdvisor[email]
		if len(stats.territories) <= 1 {
			continue
		}

		territoryIDs := make([]string, 0, len(stats.territories))
		for id := range stats.territories {
			territoryIDs = append(territoryIDs, id)
		}
		sort.Strings(territoryIDs)

		advisor := email
		found = append(found, models.Conflict{
			Type:         models.ConflictAdvisorMultiTerritory,
			Severity:     models.SeverityInfo,
			AdvisorEmail: &advisor,
			Territories:  territoryIDs,
			ClientCount:  stats.clients,
			Message:      fmt.Sprintf("advisor %s manages %d clients across %d territories", email, stats.clients, len(territoryIDs)),
			DetectedAt:   detectedAt,
		})
	}

	return found
}

// orphanedAssignments finds assignments with missing or dangling references.
// Null and dangling keys are reported separately so an empty client_id never
// also counts as orphaned.
func (d *Detector) orphanedAssignments(clients []models.Client, territories []models.Territory, assignments []models.Assignment, detectedAt time.Time) []models.Conflict {
	validClients := make(map[string]bool, len(clients))
	for _, c := range clients {
		validClients[c.ID] = true
	}
	validTerritories := make(map[string]bool, len(territories))
	for _, t := range territories {
		validTerritories[t.ID] = true
	}

	var found []models.Conflict
	for _, a := range assignments {
		a := a

		if a.ClientID == "" {
			found = append(found, models.Conflict{
				Type:        models.ConflictNullClient,
				Severity:    models.SeverityError,
				TerritoryID: a.TerritoryID,
				Message:     "assignment has null client_id",
				DetectedAt:  detectedAt,
			})
		} else if !validClients[a.ClientID] {
			found = append(found, models.Conflict{
				Type:        models.ConflictOrphanedClient,
				Severity:    models.SeverityError,
				ClientID:    &a.ClientID,
				TerritoryID: a.TerritoryID,
				Message:     fmt.Sprintf("assignment references non-existent client: %s", a.ClientID),
				DetectedAt:  detectedAt,
			})
		}

		if a.TerritoryID == nil {
			var clientID *string
			if a.ClientID != "" {
				clientID = &a.ClientID
			}
			found = append(found, models.Conflict{
				Type:       models.ConflictNullTerritory,
				Severity:   models.SeverityWarning,
				ClientID:   clientID,
				Message:    fmt.Sprintf("client %s has null territory assignment", a.ClientID),
				DetectedAt: detectedAt,
			})
		} else if !validTerritories[*a.TerritoryID] {
			var clientID *string
			if a.ClientID != "" {
				clientID = &a.ClientID
			}
			found = append(found, models.Conflict{
				Type:        models.ConflictOrphanedTerritory,
				Severity:    models.SeverityError,
				ClientID:    clientID,
				TerritoryID: a.TerritoryID,
				Message:     fmt.Sprintf("assignment references non-existent territory: %s", *a.TerritoryID),
				DetectedAt:  detectedAt,
			})
		}
	}

	return found
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
