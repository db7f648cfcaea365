package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testClient(attrs map[string]any) models.Client {
	return models.Client{
		ID:         "C1",
		Name:       "Acme Corp",
		Region:     "Northeast",
		Segment:    "Institutional",
		Attributes: database.JSONB[map[string]any]{Data: attrs},
	}
}

func TestParse(t *testing.T) {
	t.Run("simple equality", func(t *testing.T) {
		conditions := Parse(map[string]any{"segment": "Institutional"})

		require.Len(t, conditions, 1)
		assert.Equal(t, "segment", conditions[0].Field)
		assert.Equal(t, OpEquals, conditions[0].Operator)
	})

	t.Run("min prefix becomes gte", func(t *testing.T) {
		conditions := Parse(map[string]any{"min_revenue": float64(1000000)})

		require.Len(t, conditions, 1)
		assert.Equal(t, "revenue", conditions[0].Field)
		assert.Equal(t, OpGte, conditions[0].Operator)
	})

	t.Run("max prefix becomes lte", func(t *testing.T) {
		conditions := Parse(map[string]any{"max_headcount": float64(50)})

		require.Len(t, conditions, 1)
		assert.Equal(t, "headcount", conditions[0].Field)
		assert.Equal(t, OpLte, conditions[0].Operator)
	})

	t.Run("operator form", func(t *testing.T) {
		conditions := Parse(map[string]any{"revenue": map[string]any{"$gt": float64(500)}})

		require.Len(t, conditions, 1)
		assert.Equal(t, "revenue", conditions[0].Field)
		assert.Equal(t, OpGt, conditions[0].Operator)
	})
}

func TestMatchesClient(t *testing.T) {
	t.Run("equality on fixed column", func(t *testing.T) {
		client := testClient(nil)

		assert.True(t, MatchesClient(client, Parse(map[string]any{"segment": "Institutional"})))
		assert.False(t, MatchesClient(client, Parse(map[string]any{"segment": "Retail"})))
	})

	t.Run("range on attribute", func(t *testing.T) {
		client := testClient(map[string]any{"revenue": float64(2500000)})

		assert.True(t, MatchesClient(client, Parse(map[string]any{"min_revenue": float64(1000000)})))
		assert.False(t, MatchesClient(client, Parse(map[string]any{"min_revenue": float64(5000000)})))
		assert.True(t, MatchesClient(client, Parse(map[string]any{"max_revenue": float64(3000000)})))
	})

	t.Run("missing field fails range check", func(t *testing.T) {
		client := testClient(nil)

		assert.False(t, MatchesClient(client, Parse(map[string]any{"min_revenue": float64(1)})))
	})

	t.Run("all conditions must match", func(t *testing.T) {
		client := testClient(map[string]any{"revenue": float64(2000000)})

		criteria := map[string]any{
			"segment":     "Institutional",
			"min_revenue": float64(1000000),
		}
		assert.True(t, MatchesClient(client, Parse(criteria)))

		criteria["segment"] = "Retail"
		assert.False(t, MatchesClient(client, Parse(criteria)))
	})

	t.Run("in operator", func(t *testing.T) {
		client := testClient(nil)

		conditions := Parse(map[string]any{"region": map[string]any{"$in": []any{"Northeast", "West"}}})
		assert.True(t, MatchesClient(client, conditions))

		conditions = Parse(map[string]any{"region": map[string]any{"$in": []any{"South"}}})
		assert.False(t, MatchesClient(client, conditions))
	})

	t.Run("ne and exists", func(t *testing.T) {
		client := testClient(map[string]any{"custodian": "StateSafe"})

		assert.True(t, MatchesClient(client, Parse(map[string]any{"custodian": map[string]any{"$ne": "Vault"}})))
		assert.True(t, MatchesClient(client, Parse(map[string]any{"custodian": map[string]any{"$exists": true}})))
		assert.True(t, MatchesClient(client, Parse(map[string]any{"prime_broker": map[string]any{"$exists": false}})))
	})

	t.Run("contains is case insensitive", func(t *testing.T) {
		client := testClient(nil)

		assert.True(t, MatchesClient(client, Parse(map[string]any{"client_name": map[string]any{"$contains": "acme"}})))
		assert.False(t, MatchesClient(client, Parse(map[string]any{"client_name": map[string]any{"$contains": "globex"}})))
	})

	t.Run("numeric comparison coerces json numbers", func(t *testing.T) {
		client := testClient(map[string]any{"headcount": 120})

		assert.True(t, MatchesClient(client, Parse(map[string]any{"min_headcount": float64(100)})))
	})

	t.Run("empty criteria matches everything", func(t *testing.T) {
		assert.True(t, MatchesClient(testClient(nil), Parse(map[string]any{})))
	})

	t.Run("unknown operator never matches", func(t *testing.T) {
		conditions := Parse(map[string]any{"segment": map[string]any{"$regex": ".*"}})
		assert.False(t, MatchesClient(testClient(nil), conditions))
	})
}
