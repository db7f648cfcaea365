package conflicts

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string {
	return &s
}

func current(clientID, territoryID, advisor string) models.Assignment {
	a := models.Assignment{
		ClientID:       clientID,
		AdvisorEmail:   advisor,
		AssignmentType: models.AssignmentTypePrimary,
		IsCurrent:      true,
		Confidence:     95,
	}
	if territoryID != "" {
		a.TerritoryID = strPtr(territoryID)
	}
	return a
}

func TestDetector_DetectAll(t *testing.T) {
	detector := NewDetector(testLogger())
	ctx := context.Background()

	clients := []models.Client{
		{ID: "C1", Name: "Acme Corp", Region: "East", Segment: "Retail"},
		{ID: "C2", Name: "Globex", Region: "West", Segment: "Retail"},
	}
	territories := []models.Territory{
		{ID: "EAS_RET", Region: "East", Segment: "Retail"},
		{ID: "WES_RET", Region: "West", Segment: "Retail"},
	}

	t.Run("clean dataset yields empty report", func(t *testing.T) {
		assignments := []models.Assignment{
			current("C1", "EAS_RET", "a@example.com"),
			current("C2", "WES_RET", "b@example.com"),
		}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		assert.Empty(t, report.Conflicts)
		assert.False(t, report.HasErrors)
		assert.Zero(t, report.Total())
	})

	t.Run("territory overlap is a warning", func(t *testing.T) {
		assignments := []models.Assignment{
			current("C1", "EAS_RET", "a@example.com"),
			current("C1", "WES_RET", "a@example.com"),
		}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		require.Equal(t, 1, report.ByType[models.ConflictTerritoryOverlap])
		overlap := findByType(t, report, models.ConflictTerritoryOverlap)
		assert.Equal(t, models.SeverityWarning, overlap.Severity)
		assert.Equal(t, "C1", *overlap.ClientID)
		assert.Equal(t, []string{"EAS_RET", "WES_RET"}, overlap.Territories)
		assert.False(t, report.HasErrors)
	})

	t.Run("multi territory advisor is informational", func(t *testing.T) {
		assignments := []models.Assignment{
			current("C1", "EAS_RET", "a@example.com"),
			current("C2", "WES_RET", "a@example.com"),
		}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		conflict := findByType(t, report, models.ConflictAdvisorMultiTerritory)
		assert.Equal(t, models.SeverityInfo, conflict.Severity)
		assert.Equal(t, "a@example.com", *conflict.AdvisorEmail)
		assert.Equal(t, 2, conflict.ClientCount)
		assert.Len(t, conflict.Territories, 2)
		assert.False(t, report.HasErrors)
	})

	t.Run("single territory advisor with many clients is not flagged", func(t *testing.T) {
		assignments := []models.Assignment{
			current("C1", "EAS_RET", "a@example.com"),
			current("C2", "EAS_RET", "a@example.com"),
		}

		report := detector.DetectAll(ctx, clients, territories, assignments)
		assert.Zero(t, report.ByType[models.ConflictAdvisorMultiTerritory])
	})

	t.Run("orphaned client is an error", func(t *testing.T) {
		assignments := []models.Assignment{current("C99", "EAS_RET", "a@example.com")}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		conflict := findByType(t, report, models.ConflictOrphanedClient)
		assert.Equal(t, models.SeverityError, conflict.Severity)
		assert.Equal(t, "C99", *conflict.ClientID)
		assert.True(t, report.HasErrors)
	})

	t.Run("orphaned territory is an error", func(t *testing.T) {
		assignments := []models.Assignment{current("C1", "NOP_NOP", "a@example.com")}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		conflict := findByType(t, report, models.ConflictOrphanedTerritory)
		assert.Equal(t, models.SeverityError, conflict.Severity)
		assert.Equal(t, "NOP_NOP", *conflict.TerritoryID)
		assert.True(t, report.HasErrors)
	})

	t.Run("null client is an error and not also orphaned", func(t *testing.T) {
		assignments := []models.Assignment{current("", "EAS_RET", "a@example.com")}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		assert.Equal(t, 1, report.ByType[models.ConflictNullClient])
		assert.Zero(t, report.ByType[models.ConflictOrphanedClient])
		assert.True(t, report.HasErrors)
	})

	t.Run("null territory is a warning", func(t *testing.T) {
		assignments := []models.Assignment{current("C1", "", "a@example.com")}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		conflict := findByType(t, report, models.ConflictNullTerritory)
		assert.Equal(t, models.SeverityWarning, conflict.Severity)
		assert.Equal(t, "C1", *conflict.ClientID)
		assert.False(t, report.HasErrors)
	})

	t.Run("aggregates count by type and severity", func(t *testing.T) {
		assignments := []models.Assignment{
			current("C99", "EAS_RET", "a@example.com"),
			current("C1", "", "b@example.com"),
		}

		report := detector.DetectAll(ctx, clients, territories, assignments)

		assert.Equal(t, 2, report.Total())
		assert.Equal(t, 1, report.BySeverity[models.SeverityError])
		assert.Equal(t, 1, report.BySeverity[models.SeverityWarning])
		assert.True(t, report.HasErrors)
	})

	t.Run("non current assignments are ignored for overlap", func(t *testing.T) {
		historical := current("C1", "WES_RET", "a@example.com")
		historical.IsCurrent = false
		assignments := []models.Assignment{
			current("C1", "EAS_RET", "a@example.com"),
			historical,
		}

		report := detector.DetectAll(ctx, clients, territories, assignments)
		assert.Zero(t, report.ByType[models.ConflictTerritoryOverlap])
	})
}

func findByType(t *testing.T, report models.ConflictReport, conflictType models.ConflictType) models.Conflict {
	t.Helper()
	for _, c := range report.Conflicts {
		if c.Type == conflictType {
			return c
		}
	}
	t.Fatalf("no conflict of type %s in report", conflictType)
	return models.Conflict{}
}
