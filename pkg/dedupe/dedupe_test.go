package dedupe

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func client(id, name string) models.Client {
	return models.Client{ID: id, Name: name, Region: "North", Segment: "Enterprise"}
}

func TestDetector_FindDuplicates(t *testing.T) {
	detector := NewDetector(testLogger(), MethodTokenSort, 85)
	ctx := context.Background()

	t.Run("finds near duplicate pair", func(t *testing.T) {
		clients := []models.Client{
			client("C1", "Acme Corp"),
			client("C2", "Acme Corp."),
			client("C3", "Zenith Holdings"),
		}

		pairs := detector.FindDuplicates(ctx, clients)

		require.Len(t, pairs, 1)
		assert.Equal(t, "C1", pairs[0].ID1)
		assert.Equal(t, "C2", pairs[0].ID2)
		assert.GreaterOrEqual(t, pairs[0].Similarity, 85.0)
		assert.False(t, pairs[0].DetectedAt.IsZero())
	})

	t.Run("abbreviated name pairs band at least medium", func(t *testing.T) {
		clients := []models.Client{
			client("C1", "Acme Corp"),
			client("C2", "Acme Corporation"),
		}

		pairs := detector.FindDuplicates(ctx, clients)

		require.Len(t, pairs, 1)
		assert.Contains(t, []models.ConfidenceBand{models.BandMedium, models.BandHigh}, pairs[0].Confidence)
	})

	t.Run("bands reflect score", func(t *testing.T) {
		clients := []models.Client{
			client("C1", "Acme Corporation"),
			client("C2", "Acme Corporation"),
		}

		pairs := detector.FindDuplicates(ctx, clients)

		require.Len(t, pairs, 1)
		assert.Equal(t, models.BandHigh, pairs[0].Confidence)
	})

	t.Run("skips empty names", func(t *testing.T) {
		clients := []models.Client{
			client("C1", ""),
			client("C2", ""),
			client("C3", "Acme Corp"),
		}

		pairs := detector.FindDuplicates(ctx, clients)
		assert.Empty(t, pairs)
	})

	t.Run("no pairs below threshold", func(t *testing.T) {
		clients := []models.Client{
			client("C1", "Acme Corp"),
			client("C2", "Globex Industries"),
		}

		pairs := detector.FindDuplicates(ctx, clients)
		assert.Empty(t, pairs)
	})

	t.Run("one client can appear in multiple pairs", func(t *testing.T) {
		clients := []models.Client{
			client("C1", "Acme Corp"),
			client("C2", "Acme Corp"),
			client("C3", "Acme Corp"),
		}

		pairs := detector.FindDuplicates(ctx, clients)
		assert.Len(t, pairs, 3)
	})
}

func TestDetector_Merge(t *testing.T) {
	detector := NewDetector(testLogger(), MethodTokenSort, 85)
	ctx := context.Background()

	t.Run("first strategy keeps the first record", func(t *testing.T) {
		clients := []models.Client{client("C1", "Acme Corp"), client("C2", "Acme Corp.")}
		pairs := []models.DuplicatePair{{ID1: "C1", ID2: "C2"}}

		result, err := detector.Merge(ctx, clients, pairs, models.MergeFirst)

		require.NoError(t, err)
		require.Len(t, result.Survivors, 1)
		assert.Equal(t, "C1", result.Survivors[0].ID)
		assert.Equal(t, []string{"C2"}, result.RemovedIDs)
	})

	t.Run("most complete strategy keeps the richer record", func(t *testing.T) {
		sparse := models.Client{ID: "C1", Name: "Acme Corp"}
		rich := models.Client{
			ID: "C2", Name: "Acme Corp.", Region: "North", Segment: "Enterprise",
			ParentOrg:    "Acme Global",
			AdvisorEmail: "rep@example.com",
			Attributes:   database.JSONB[map[string]any]{Data: map[string]any{"industry": "manufacturing"}},
		}
		pairs := []models.DuplicatePair{{ID1: "C1", ID2: "C2"}}

		result, err := detector.Merge(ctx, []models.Client{sparse, rich}, pairs, models.MergeMostComplete)

		require.NoError(t, err)
		require.Len(t, result.Survivors, 1)
		assert.Equal(t, "C2", result.Survivors[0].ID)
		assert.Equal(t, []string{"C1"}, result.RemovedIDs)
	})

	t.Run("manual strategy removes nothing", func(t *testing.T) {
		clients := []models.Client{client("C1", "Acme Corp"), client("C2", "Acme Corp.")}
		pairs := []models.DuplicatePair{{ID1: "C1", ID2: "C2"}}

		result, err := detector.Merge(ctx, clients, pairs, models.MergeManual)

		require.NoError(t, err)
		assert.Len(t, result.Survivors, 2)
		assert.Empty(t, result.RemovedIDs)
	})

	t.Run("removed record never survives a later pair", func(t *testing.T) {
		clients := []models.Client{
			client("C1", "Acme Corp"),
			client("C2", "Acme Corp."),
			client("C3", "Acme Corporation"),
		}
		pairs := []models.DuplicatePair{
			{ID1: "C1", ID2: "C2"},
			{ID1: "C2", ID2: "C3"},
		}

		result, err := detector.Merge(ctx, clients, pairs, models.MergeFirst)

		require.NoError(t, err)
		require.Len(t, result.Survivors, 2)
		assert.Equal(t, []string{"C2"}, result.RemovedIDs)
	})

	t.Run("unknown strategy errors", func(t *testing.T) {
		_, err := detector.Merge(ctx, nil, nil, models.MergeStrategy("bogus"))
		assert.Error(t, err)
	})
}
