// Package updating drives the assignment engine across the full client
// population, diffs the outcome against the prior persisted state, and
// commits the new assignment set together with its audit trail.
package updating

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/assigning"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AssignmentStore persists the assignment set and its audit trail. Commit
// must full-replace the current assignments and append the change records in
// a single transaction so a crash can never separate the two.
type AssignmentStore interface {
	ListCurrent(ctx context.Context) ([]models.Assignment, error)
	Commit(ctx context.Context, assignments []models.Assignment, changes []models.ChangeRecord) error
}

// ChangePublisher emits change records to downstream consumers after a
// successful commit.
type ChangePublisher interface {
	PublishChanges(ctx context.Context, runID string, changes []models.ChangeRecord) error
}

// Updater runs the LOAD, EVALUATE, DIFF, COMMIT, AUDIT sequence for one
// pipeline run. A failure in any stage aborts the run with the prior
// persisted state untouched.
type Updater struct {
	logger    ectologger.Logger
	engine    *assigning.Engine
	store     AssignmentStore
	publisher ChangePublisher
}

// NewUpdater creates an updater. The publisher is optional; pass nil to skip
// change event emission.
func NewUpdater(logger ectologger.Logger, engine *assigning.Engine, store AssignmentStore, publisher ChangePublisher) *Updater {
	return &Updater{
		logger:    logger,
		engine:    engine,
		store:     store,
		publisher: publisher,
	}
}

// Run re-evaluates the full client population and persists the result.
// Returns the run summary and the change records it committed.
func (u *Updater) Run(ctx context.Context, runID string, clients []models.Client, minConfidence float64) (models.UpdateSummary, []models.ChangeRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "updating.Updater.Run")
	defer span.End()

	logger := u.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})
	now := time.Now().UTC()

	prior, err := u.store.ListCurrent(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to load current assignments")
		return models.UpdateSummary{}, nil, err
	}

	evaluated := u.engine.AssignBulk(ctx, clients, minConfidence)
	changes := Diff(evaluated, prior, now)
	assignments := BuildAssignments(evaluated, now)

	if err := u.store.Commit(ctx, assignments, changes); err != nil {
		logger.WithError(err).Error("failed to commit assignments")
		return models.UpdateSummary{}, nil, err
	}

	if u.publisher != nil && len(changes) > 0 {
		// Best effort. The run already committed; emission failure is
		// logged and never rolls it back.
		if err := u.publisher.PublishChanges(ctx, runID, changes); err != nil {
			logger.WithError(err).Error("failed to publish change events")
		}
	}

	summary := buildSummary(evaluated, changes, now)
	logger.WithFields(map[string]any{
		"clients_processed": summary.ClientsProcessed,
		"clients_assigned":  summary.ClientsAssigned,
		"total_changes":     summary.TotalChanges,
		"changes_by_type":   summary.ChangesByType,
	}).Info("assignment update complete")

	return summary, changes, nil
}

// BuildAssignments converts bulk evaluation output into the persisted
// assignment set. Unmatched clients keep a row with a null territory.
func BuildAssignments(evaluated []models.AssignedClient, now time.Time) []models.Assignment {
	assignments := make([]models.Assignment, 0, len(evaluated))
	for _, ac := range evaluated {
		a := models.Assignment{
			ClientID:       ac.Client.ID,
			AdvisorEmail:   ac.Client.AdvisorEmail,
			AssignmentType: models.AssignmentTypePrimary,
			IsCurrent:      true,
			Confidence:     ac.Confidence,
			UpdatedAt:      now,
		}
		if ac.Assigned() {
			territoryID := ac.TerritoryID
			a.TerritoryID = &territoryID
		}
		if ac.Rule != "" {
			rule := ac.Rule
			a.AssignedByRule = &rule
		}
		assignments = append(assignments, a)
	}
	return assignments
}

func buildSummary(evaluated []models.AssignedClient, changes []models.ChangeRecord, now time.Time) models.UpdateSummary {
	summary := models.UpdateSummary{
		ClientsProcessed: len(evaluated),
		TotalChanges:     len(changes),
		ChangesByType:    make(map[models.ChangeType]int),
		RuleUsage:        make(map[string]int),
		Timestamp:        now,
	}
	for _, ac := range evaluated {
		if ac.Assigned() {
			summary.ClientsAssigned++
			summary.RuleUsage[ac.Rule]++
		}
	}
	for _, c := range changes {
		summary.ChangesByType[c.ChangeType]++
	}
	return summary
}
