package dimensional

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string {
	return &s
}

func TestBuilder_BuildClientDim(t *testing.T) {
	builder := NewBuilder(testLogger())
	ctx := context.Background()

	t.Run("marks clients active and stamps update time", func(t *testing.T) {
		raw := []models.Client{{ID: "C1", Name: "Acme Corp", IsActive: false}}

		dim := builder.BuildClientDim(ctx, raw)

		require.Len(t, dim, 1)
		assert.True(t, dim[0].IsActive)
		assert.False(t, dim[0].UpdatedAt.IsZero())
	})

	t.Run("last record wins for duplicate keys", func(t *testing.T) {
		raw := []models.Client{
			{ID: "C1", Name: "Acme Corp"},
			{ID: "C1", Name: "Acme Corporation"},
		}

		dim := builder.BuildClientDim(ctx, raw)

		require.Len(t, dim, 1)
		assert.Equal(t, "Acme Corporation", dim[0].Name)
	})
}

func TestBuilder_BuildTerritoryDim(t *testing.T) {
	builder := NewBuilder(testLogger())
	ctx := context.Background()

	t.Run("derives one territory per distinct region segment pair", func(t *testing.T) {
		clients := []models.Client{
			{ID: "C1", Name: "A", Region: "East", Segment: "Retail"},
			{ID: "C2", Name: "B", Region: "East", Segment: "Retail"},
			{ID: "C3", Name: "C", Region: "West", Segment: "Enterprise"},
		}

		territories := builder.BuildTerritoryDim(ctx, clients, nil)

		require.Len(t, territories, 2)
		assert.Equal(t, "EAS_RET", territories[0].ID)
		assert.Equal(t, "WES_ENT", territories[1].ID)
		assert.Equal(t, models.DefaultOwnerRole, territories[0].OwnerRole)
	})

	t.Run("skips clients without region or segment", func(t *testing.T) {
		clients := []models.Client{
			{ID: "C1", Name: "A", Region: "", Segment: "Retail"},
			{ID: "C2", Name: "B", Region: "East", Segment: ""},
		}

		territories := builder.BuildTerritoryDim(ctx, clients, nil)
		assert.Empty(t, territories)
	})

	t.Run("includes whitelist target territories", func(t *testing.T) {
		clients := []models.Client{
			{ID: "C1", Name: "A", Region: "East", Segment: "Retail"},
		}
		whitelist := rules.NewWhitelistRule(map[string]string{"C1": "WES_ENT"})

		territories := builder.BuildTerritoryDim(ctx, clients, []rules.Rule{whitelist})

		require.Len(t, territories, 2)
		assert.Equal(t, "EAS_RET", territories[0].ID)
		assert.Equal(t, "WES_ENT", territories[1].ID)
	})

	t.Run("includes general fallback territories", func(t *testing.T) {
		clients := []models.Client{
			{ID: "C1", Name: "A", Region: "", Segment: "Retail"},
		}

		territories := builder.BuildTerritoryDim(ctx, clients, []rules.Rule{rules.NewSegmentRule()})

		require.Len(t, territories, 1)
		assert.Equal(t, "GEN_RET", territories[0].ID)
	})

	t.Run("includes tier derived territories", func(t *testing.T) {
		clients := []models.Client{
			{ID: "C1", Name: "A", Region: "East", Segment: "Retail"},
		}
		segmentation := rules.NewSegmentationRule(rules.SegmentationConfig{
			Tiers: map[string]rules.Tier{
				"premium": {
					Criteria:        map[string]any{"segment": "Retail"},
					TerritorySuffix: "PRM",
					Priority:        1,
				},
			},
		})

		territories := builder.BuildTerritoryDim(ctx, clients, []rules.Rule{segmentation})

		ids := make([]string, len(territories))
		for i, tr := range territories {
			ids[i] = tr.ID
		}
		assert.Contains(t, ids, "EAS_RET")
		assert.Contains(t, ids, "EAS_RET_PRM")
	})
}

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator(testLogger())
	ctx := context.Background()

	clients := []models.Client{{ID: "C1", Name: "Acme Corp", Region: "East", Segment: "Retail"}}
	territories := []models.Territory{{ID: "EAS_RET", Region: "East", Segment: "Retail"}}
	assignments := []models.Assignment{{ClientID: "C1", TerritoryID: strPtr("EAS_RET"), IsCurrent: true}}

	t.Run("clean dataset passes", func(t *testing.T) {
		assert.NoError(t, validator.Validate(ctx, clients, territories, assignments))
	})

	t.Run("empty client dimension fails", func(t *testing.T) {
		err := validator.Validate(ctx, nil, territories, assignments)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("client without name fails", func(t *testing.T) {
		bad := []models.Client{{ID: "C1", Name: ""}}
		err := validator.Validate(ctx, bad, territories, assignments)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("orphaned client reference hard fails", func(t *testing.T) {
		orphaned := []models.Assignment{{ClientID: "C99", TerritoryID: strPtr("EAS_RET"), IsCurrent: true}}

		err := validator.Validate(ctx, clients, territories, orphaned)

		require.True(t, errors.IsReferentialIntegrityError(err))
		assert.Contains(t, err.Error(), "C99")
	})

	t.Run("orphaned territory reference hard fails", func(t *testing.T) {
		orphaned := []models.Assignment{{ClientID: "C1", TerritoryID: strPtr("NOP_NOP"), IsCurrent: true}}

		err := validator.Validate(ctx, clients, territories, orphaned)

		require.True(t, errors.IsReferentialIntegrityError(err))
		assert.Contains(t, err.Error(), "NOP_NOP")
	})

	t.Run("null territory is allowed by the gate", func(t *testing.T) {
		unassigned := []models.Assignment{{ClientID: "C1", IsCurrent: true}}
		assert.NoError(t, validator.Validate(ctx, clients, territories, unassigned))
	})
}
