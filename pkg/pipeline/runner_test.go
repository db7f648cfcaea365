package pipeline

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
)

type memoryStores struct {
	clients     []models.Client
	territories []models.Territory
	assignments []models.Assignment
	auditLog    []models.ChangeRecord
	conflicts   []models.Conflict
	duplicates  []models.DuplicatePair
}

func (m *memoryStores) ReplaceAllClients(_ context.Context, clients []models.Client) error {
	m.clients = clients
	return nil
}

func (m *memoryStores) ReplaceAllTerritories(_ context.Context, territories []models.Territory) error {
	m.territories = territories
	return nil
}

func (m *memoryStores) ReplaceAllConflicts(_ context.Context, conflicts []models.Conflict) error {
	m.conflicts = conflicts
	return nil
}

func (m *memoryStores) ReplaceAllDuplicates(_ context.Context, pairs []models.DuplicatePair) error {
	m.duplicates = pairs
	return nil
}

func (m *memoryStores) ListCurrent(_ context.Context) ([]models.Assignment, error) {
	return m.assignments, nil
}

func (m *memoryStores) Commit(_ context.Context, assignments []models.Assignment, changes []models.ChangeRecord) error {
	m.assignments = assignments
	m.auditLog = append(m.auditLog, changes...)
	return nil
}

type clientStoreFunc func(context.Context, []models.Client) error

func (f clientStoreFunc) ReplaceAll(ctx context.Context, c []models.Client) error { return f(ctx, c) }

type territoryStoreFunc func(context.Context, []models.Territory) error

func (f territoryStoreFunc) ReplaceAll(ctx context.Context, t []models.Territory) error {
	return f(ctx, t)
}

type conflictStoreFunc func(context.Context, []models.Conflict) error

func (f conflictStoreFunc) ReplaceAll(ctx context.Context, c []models.Conflict) error {
	return f(ctx, c)
}

type duplicateStoreFunc func(context.Context, []models.DuplicatePair) error

func (f duplicateStoreFunc) ReplaceAll(ctx context.Context, p []models.DuplicatePair) error {
	return f(ctx, p)
}

type staticSource struct {
	clients []models.Client
}

func (s *staticSource) LoadClients(_ context.Context) ([]models.Client, error) {
	return s.clients, nil
}

type staticRules struct {
	rules []rules.Rule
}

func (s *staticRules) Rules(_ context.Context) ([]rules.Rule, error) {
	return s.rules, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestRunner(source *staticSource, mem *memoryStores, ruleSet ...rules.Rule) *Runner {
	logger := testLogger()
	return NewRunner(
		logger,
		source,
		&staticRules{rules: ruleSet},
		dedupe.NewDetector(logger, dedupe.MethodTokenSort, 85),
		Stores{
			Clients:     clientStoreFunc(mem.ReplaceAllClients),
			Territories: territoryStoreFunc(mem.ReplaceAllTerritories),
			Assignments: mem,
			Conflicts:   conflictStoreFunc(mem.ReplaceAllConflicts),
			Duplicates:  duplicateStoreFunc(mem.ReplaceAllDuplicates),
		},
		nil,
		Config{MergeStrategy: models.MergeManual},
	)
}

func client(id, name, region, segment string) models.Client {
	return models.Client{ID: id, Name: name, Region: region, Segment: segment, AdvisorEmail: "rep@example.com"}
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("full run persists every artifact", func(t *testing.T) {
		mem := &memoryStores{}
		second := client("C2", "Globex", "West", "Enterprise")
		second.AdvisorEmail = "other@example.com"
		source := &staticSource{clients: []models.Client{
			client("C1", "Acme Corp", "East", "Retail"),
			second,
		}}
		runner := newTestRunner(source, mem, rules.NewRegionRule())

		summary, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.ClientsLoaded)
		assert.Equal(t, 2, summary.Territories)
		assert.Equal(t, 2, summary.Update.ClientsAssigned)
		assert.False(t, summary.ConflictErrors)
		assert.NotEmpty(t, summary.RunID)

		assert.Len(t, mem.clients, 2)
		assert.Len(t, mem.territories, 2)
		assert.Len(t, mem.assignments, 2)
		assert.Len(t, mem.auditLog, 2)
		assert.Empty(t, mem.conflicts)
	})

	t.Run("second unchanged run appends no audit rows", func(t *testing.T) {
		mem := &memoryStores{}
		source := &staticSource{clients: []models.Client{client("C1", "Acme Corp", "East", "Retail")}}
		runner := newTestRunner(source, mem, rules.NewRegionRule())

		_, err := runner.Run(ctx)
		require.NoError(t, err)
		auditBefore := len(mem.auditLog)

		summary, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Zero(t, summary.Update.TotalChanges)
		assert.Len(t, mem.auditLog, auditBefore)
	})

	t.Run("whitelist beats region rule", func(t *testing.T) {
		mem := &memoryStores{}
		source := &staticSource{clients: []models.Client{client("C1", "Acme Corp", "East", "Retail")}}
		whitelist := rules.NewWhitelistRule(map[string]string{"C1": "WES_ENT"})
		runner := newTestRunner(source, mem, rules.NewRegionRule(), whitelist)

		_, err := runner.Run(ctx)

		require.NoError(t, err)
		require.Len(t, mem.assignments, 1)
		assert.Equal(t, "WES_ENT", *mem.assignments[0].TerritoryID)
		assert.Equal(t, 100.0, mem.assignments[0].Confidence)
	})

	t.Run("quality gate failure writes nothing", func(t *testing.T) {
		mem := &memoryStores{}
		source := &staticSource{clients: nil}
		runner := newTestRunner(source, mem, rules.NewRegionRule())

		_, err := runner.Run(ctx)

		require.Error(t, err)
		assert.Empty(t, mem.clients)
		assert.Empty(t, mem.territories)
		assert.Empty(t, mem.assignments)
		assert.Empty(t, mem.auditLog)
		assert.Empty(t, mem.duplicates)
	})

	t.Run("whitelist territory gets a dimension row", func(t *testing.T) {
		mem := &memoryStores{}
		source := &staticSource{clients: []models.Client{client("C1", "Acme Corp", "East", "Retail")}}
		whitelist := rules.NewWhitelistRule(map[string]string{"C1": "NOP_NOP"})
		runner := newTestRunner(source, mem, whitelist, rules.NewRegionRule())

		_, err := runner.Run(ctx)

		require.NoError(t, err)
		ids := make([]string, len(mem.territories))
		for i, tr := range mem.territories {
			ids[i] = tr.ID
		}
		assert.Contains(t, ids, "NOP_NOP")
	})

	t.Run("duplicate report is persisted", func(t *testing.T) {
		mem := &memoryStores{}
		source := &staticSource{clients: []models.Client{
			client("C1", "Acme Corp", "East", "Retail"),
			client("C2", "Acme Corporation", "East", "Retail"),
		}}
		runner := newTestRunner(source, mem, rules.NewRegionRule())

		summary, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.DuplicatePairs)
		require.Len(t, mem.duplicates, 1)
		assert.Equal(t, "C1", mem.duplicates[0].ID1)
	})
}
