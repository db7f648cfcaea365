package updating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/assigning"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
)

type fakeStore struct {
	assignments []models.Assignment
	auditLog    []models.ChangeRecord
	commitErr   error
	listErr     error
}

func (s *fakeStore) ListCurrent(_ context.Context) ([]models.Assignment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.assignments, nil
}

func (s *fakeStore) Commit(_ context.Context, assignments []models.Assignment, changes []models.ChangeRecord) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.assignments = assignments
	s.auditLog = append(s.auditLog, changes...)
	return nil
}

type fakePublisher struct {
	published []models.ChangeRecord
	err       error
}

func (p *fakePublisher) PublishChanges(_ context.Context, _ string, changes []models.ChangeRecord) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, changes...)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testEngine() *assigning.Engine {
	return assigning.NewEngine(testLogger(), rules.NewRegionRule())
}

func client(id, name, region, segment string) models.Client {
	return models.Client{ID: id, Name: name, Region: region, Segment: segment, AdvisorEmail: "rep@example.com"}
}

func TestDiff(t *testing.T) {
	now := time.Now().UTC()

	assigned := func(id, name, territory string) models.AssignedClient {
		return models.AssignedClient{
			Client:      models.Client{ID: id, Name: name},
			TerritoryID: territory,
			Confidence:  95,
			Rule:        "RegionRule",
		}
	}
	prior := func(clientID, territory string) models.Assignment {
		return models.Assignment{ClientID: clientID, TerritoryID: &territory, IsCurrent: true}
	}

	t.Run("empty prior set classifies everything new", func(t *testing.T) {
		changes := Diff([]models.AssignedClient{assigned("C1", "Acme", "EAS_RET")}, nil, now)

		require.Len(t, changes, 1)
		assert.Equal(t, models.ChangeTypeNew, changes[0].ChangeType)
		assert.Nil(t, changes[0].OldTerritory)
		assert.Equal(t, "EAS_RET", *changes[0].NewTerritory)
		assert.Equal(t, now, changes[0].Timestamp)
	})

	t.Run("territory move is classified changed", func(t *testing.T) {
		changes := Diff(
			[]models.AssignedClient{assigned("C1", "Acme", "WES_RET")},
			[]models.Assignment{prior("C1", "EAS_RET")},
			now,
		)

		require.Len(t, changes, 1)
		assert.Equal(t, models.ChangeTypeChanged, changes[0].ChangeType)
		assert.Equal(t, "EAS_RET", *changes[0].OldTerritory)
		assert.Equal(t, "WES_RET", *changes[0].NewTerritory)
	})

	t.Run("lost assignment is classified removed", func(t *testing.T) {
		unassigned := models.AssignedClient{Client: models.Client{ID: "C1", Name: "Acme"}}
		changes := Diff(
			[]models.AssignedClient{unassigned},
			[]models.Assignment{prior("C1", "EAS_RET")},
			now,
		)

		require.Len(t, changes, 1)
		assert.Equal(t, models.ChangeTypeRemoved, changes[0].ChangeType)
		assert.Nil(t, changes[0].NewTerritory)
	})

	t.Run("unchanged assignment produces no record", func(t *testing.T) {
		changes := Diff(
			[]models.AssignedClient{assigned("C1", "Acme", "EAS_RET")},
			[]models.Assignment{prior("C1", "EAS_RET")},
			now,
		)
		assert.Empty(t, changes)
	})

	t.Run("unassigned client with no prior produces no record", func(t *testing.T) {
		unassigned := models.AssignedClient{Client: models.Client{ID: "C1", Name: "Acme"}}
		changes := Diff([]models.AssignedClient{unassigned}, nil, now)
		assert.Empty(t, changes)
	})
}

func TestUpdater_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("first run classifies all assignments new", func(t *testing.T) {
		store := &fakeStore{}
		updater := NewUpdater(testLogger(), testEngine(), store, nil)
		clients := []models.Client{
			client("C1", "Acme Corp", "East", "Retail"),
			client("C2", "Globex", "West", "Retail"),
		}

		summary, changes, err := updater.Run(ctx, "run-1", clients, 0)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.ClientsProcessed)
		assert.Equal(t, 2, summary.ClientsAssigned)
		assert.Equal(t, 2, summary.ChangesByType[models.ChangeTypeNew])
		assert.Equal(t, 2, summary.RuleUsage["RegionRule"])
		assert.Len(t, changes, 2)
		assert.Len(t, store.assignments, 2)
		assert.Len(t, store.auditLog, 2)
	})

	t.Run("second run with no data change is a no-op", func(t *testing.T) {
		store := &fakeStore{}
		updater := NewUpdater(testLogger(), testEngine(), store, nil)
		clients := []models.Client{client("C1", "Acme Corp", "East", "Retail")}

		_, _, err := updater.Run(ctx, "run-1", clients, 0)
		require.NoError(t, err)
		auditBefore := len(store.auditLog)

		summary, changes, err := updater.Run(ctx, "run-2", clients, 0)

		require.NoError(t, err)
		assert.Empty(t, changes)
		assert.Zero(t, summary.TotalChanges)
		assert.Len(t, store.auditLog, auditBefore)
	})

	t.Run("region move yields one changed record", func(t *testing.T) {
		store := &fakeStore{}
		updater := NewUpdater(testLogger(), testEngine(), store, nil)

		_, _, err := updater.Run(ctx, "run-1", []models.Client{client("C1", "Acme Corp", "East", "Retail")}, 0)
		require.NoError(t, err)

		_, changes, err := updater.Run(ctx, "run-2", []models.Client{client("C1", "Acme Corp", "West", "Retail")}, 0)

		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, models.ChangeTypeChanged, changes[0].ChangeType)
		assert.Equal(t, "EAS_RET", *changes[0].OldTerritory)
		assert.Equal(t, "WES_RET", *changes[0].NewTerritory)
	})

	t.Run("unmatched client keeps a null territory row", func(t *testing.T) {
		store := &fakeStore{}
		updater := NewUpdater(testLogger(), testEngine(), store, nil)

		summary, _, err := updater.Run(ctx, "run-1", []models.Client{client("C1", "Acme Corp", "", "")}, 0)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.ClientsProcessed)
		assert.Zero(t, summary.ClientsAssigned)
		require.Len(t, store.assignments, 1)
		assert.Nil(t, store.assignments[0].TerritoryID)
		assert.True(t, store.assignments[0].IsCurrent)
	})

	t.Run("commit failure aborts without publishing", func(t *testing.T) {
		store := &fakeStore{commitErr: errors.New("db down")}
		publisher := &fakePublisher{}
		updater := NewUpdater(testLogger(), testEngine(), store, publisher)

		_, _, err := updater.Run(ctx, "run-1", []models.Client{client("C1", "Acme Corp", "East", "Retail")}, 0)

		assert.Error(t, err)
		assert.Empty(t, publisher.published)
		assert.Empty(t, store.auditLog)
	})

	t.Run("load failure aborts the run", func(t *testing.T) {
		store := &fakeStore{listErr: errors.New("db down")}
		updater := NewUpdater(testLogger(), testEngine(), store, nil)

		_, _, err := updater.Run(ctx, "run-1", []models.Client{client("C1", "Acme Corp", "East", "Retail")}, 0)
		assert.Error(t, err)
	})

	t.Run("publishes change events after commit", func(t *testing.T) {
		store := &fakeStore{}
		publisher := &fakePublisher{}
		updater := NewUpdater(testLogger(), testEngine(), store, publisher)

		_, _, err := updater.Run(ctx, "run-1", []models.Client{client("C1", "Acme Corp", "East", "Retail")}, 0)

		require.NoError(t, err)
		assert.Len(t, publisher.published, 1)
	})

	t.Run("publish failure does not fail the run", func(t *testing.T) {
		store := &fakeStore{}
		publisher := &fakePublisher{err: errors.New("broker down")}
		updater := NewUpdater(testLogger(), testEngine(), store, publisher)

		_, _, err := updater.Run(ctx, "run-1", []models.Client{client("C1", "Acme Corp", "East", "Retail")}, 0)

		require.NoError(t, err)
		assert.Len(t, store.auditLog, 1)
	})
}
