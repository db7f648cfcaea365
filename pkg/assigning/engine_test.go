package assigning

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// stubRule lets tests control every aspect of rule behavior.
type stubRule struct {
	name       string
	priority   int
	enabled    bool
	applicable bool
	result     models.RuleResult
	err        error
}

func (r stubRule) Name() string                     { return r.name }
func (r stubRule) Priority() int                    { return r.priority }
func (r stubRule) Enabled() bool                    { return r.enabled }
func (r stubRule) CanEvaluate(_ models.Client) bool { return r.applicable }
func (r stubRule) Evaluate(_ models.Client) (models.RuleResult, error) {
	return r.result, r.err
}

func client(id, region, segment string) models.Client {
	return models.Client{ID: id, Name: "Client " + id, Region: region, Segment: segment}
}

func TestEngine_RuleOrdering(t *testing.T) {
	t.Run("sorts by priority regardless of registration order", func(t *testing.T) {
		engine := NewEngine(testLogger(),
			rules.NewRegionRule(),
			rules.NewWhitelistRule(map[string]string{"C1": "KEY"}),
			rules.NewBlacklistRule(map[string][]string{"C1": {"X"}}),
		)

		names := make([]string, 0, 3)
		for _, r := range engine.Rules() {
			names = append(names, r.Name())
		}
		assert.Equal(t, []string{"WhitelistRule", "BlacklistRule", "RegionRule"}, names)
	})

	t.Run("ties break by rule name", func(t *testing.T) {
		engine := NewEngine(testLogger(),
			stubRule{name: "Zeta", priority: 50, enabled: true},
			stubRule{name: "Alpha", priority: 50, enabled: true},
		)

		assert.Equal(t, "Alpha", engine.Rules()[0].Name())
	})

	t.Run("remove rule by name", func(t *testing.T) {
		engine := NewEngine(testLogger(), rules.NewRegionRule())

		assert.True(t, engine.RemoveRule("RegionRule"))
		assert.False(t, engine.RemoveRule("RegionRule"))
		assert.Empty(t, engine.Rules())
	})
}

func TestEngine_AssignTerritory(t *testing.T) {
	ctx := context.Background()

	t.Run("first confident rule wins", func(t *testing.T) {
		engine := NewEngine(testLogger(),
			rules.NewWhitelistRule(map[string]string{"C1": "KEY_ACCOUNTS"}),
			rules.NewRegionRule(),
		)

		result, ok := engine.AssignTerritory(ctx, client("C1", "West", "Retail"), 70)

		require.True(t, ok)
		assert.Equal(t, "KEY_ACCOUNTS", result.TerritoryID)
		assert.Equal(t, "WhitelistRule", result.RuleName)
	})

	t.Run("falls through rules below the confidence floor", func(t *testing.T) {
		engine := NewEngine(testLogger(),
			stubRule{name: "Weak", priority: 10, enabled: true, applicable: true,
				result: models.RuleResult{TerritoryID: "WEAK_T", Confidence: 40, RuleName: "Weak"}},
			rules.NewRegionRule(),
		)

		result, ok := engine.AssignTerritory(ctx, client("C1", "West", "Retail"), 70)

		require.True(t, ok)
		assert.Equal(t, "WES_RET", result.TerritoryID)
	})

	t.Run("disabled and inapplicable rules are skipped", func(t *testing.T) {
		engine := NewEngine(testLogger(),
			stubRule{name: "Disabled", priority: 1, enabled: false, applicable: true,
				result: models.RuleResult{TerritoryID: "D", Confidence: 100}},
			stubRule{name: "Inapplicable", priority: 2, enabled: true, applicable: false,
				result: models.RuleResult{TerritoryID: "I", Confidence: 100}},
			rules.NewRegionRule(),
		)

		result, ok := engine.AssignTerritory(ctx, client("C1", "West", "Retail"), 70)

		require.True(t, ok)
		assert.Equal(t, "WES_RET", result.TerritoryID)
	})

	t.Run("rule error is skipped not fatal", func(t *testing.T) {
		engine := NewEngine(testLogger(),
			stubRule{name: "Broken", priority: 1, enabled: true, applicable: true, err: errors.New("boom")},
			rules.NewRegionRule(),
		)

		result, ok := engine.AssignTerritory(ctx, client("C1", "West", "Retail"), 70)

		require.True(t, ok)
		assert.Equal(t, "WES_RET", result.TerritoryID)
	})

	t.Run("no match returns false", func(t *testing.T) {
		engine := NewEngine(testLogger(), rules.NewRegionRule())

		_, ok := engine.AssignTerritory(ctx, client("C1", "", ""), 70)
		assert.False(t, ok)
	})
}

func TestEngine_AssignBulk(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(testLogger(), rules.NewRegionRule())

	population := []models.Client{
		client("C1", "West", "Retail"),
		client("C2", "", ""),
		client("C3", "East", "Institutional"),
	}

	assigned := engine.AssignBulk(ctx, population, 70)

	require.Len(t, assigned, 3)
	assert.True(t, assigned[0].Assigned())
	assert.False(t, assigned[1].Assigned())
	assert.Equal(t, "C2", assigned[1].Client.ID)
	assert.Equal(t, "EAS_INS", assigned[2].TerritoryID)
}

func TestResolveCandidates(t *testing.T) {
	t.Run("highest confidence wins", func(t *testing.T) {
		winner := ResolveCandidates([]models.RuleResult{
			{TerritoryID: "A", Confidence: 80, RuleName: "RuleA"},
			{TerritoryID: "B", Confidence: 95, RuleName: "RuleB"},
		})

		require.NotNil(t, winner)
		assert.Equal(t, "B", winner.TerritoryID)
	})

	t.Run("confidence ties break by rule name", func(t *testing.T) {
		winner := ResolveCandidates([]models.RuleResult{
			{TerritoryID: "B", Confidence: 90, RuleName: "Zeta"},
			{TerritoryID: "A", Confidence: 90, RuleName: "Alpha"},
		})

		require.NotNil(t, winner)
		assert.Equal(t, "A", winner.TerritoryID)
	})

	t.Run("unassigned candidates never win", func(t *testing.T) {
		winner := ResolveCandidates([]models.RuleResult{
			{Confidence: 100, RuleName: "Advisory"},
		})
		assert.Nil(t, winner)
	})
}

func TestStatistics(t *testing.T) {
	assigned := []models.AssignedClient{
		{Client: client("C1", "West", "Retail"), TerritoryID: "WES_RET", Rule: "RegionRule"},
		{Client: client("C2", "East", "Retail"), TerritoryID: "EAS_RET", Rule: "RegionRule"},
		{Client: client("C3", "", "")},
		{Client: client("C4", "West", "Retail"), TerritoryID: "KEY", Rule: "WhitelistRule"},
	}

	stats := Statistics(assigned)

	assert.Equal(t, 4, stats.TotalClients)
	assert.Equal(t, 3, stats.TotalAssigned)
	assert.Equal(t, 1, stats.Unassigned)
	assert.Equal(t, 2, stats.RuleUsage["RegionRule"])
	assert.Equal(t, 1, stats.RuleUsage["WhitelistRule"])
	assert.Equal(t, 75.0, stats.AssignmentRate)
}
