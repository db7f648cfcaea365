// Package pipeline orchestrates one complete assignment run: duplicate
// scan, dimensional build, strict validation, assignment update, and
// conflict detection. Runs are non-reentrant; a failed run leaves the
// previously persisted state untouched.
package pipeline

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/assigning"
	"github.com/Ramsey-B/clover/pkg/conflicts"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/dimensional"
	"github.com/Ramsey-B/clover/pkg/extract"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/updating"
)

// RuleProvider assembles the rule set for a run. Called once per run so
// configuration changes between runs always take effect.
type RuleProvider interface {
	Rules(ctx context.Context) ([]rules.Rule, error)
}

// ClientStore persists the client dimension.
type ClientStore interface {
	ReplaceAll(ctx context.Context, clients []models.Client) error
}

// TerritoryStore persists the territory dimension.
type TerritoryStore interface {
	ReplaceAll(ctx context.Context, territories []models.Territory) error
}

// ConflictStore persists the conflict report (full replace).
type ConflictStore interface {
	ReplaceAll(ctx context.Context, conflicts []models.Conflict) error
}

// DuplicateStore persists the duplicate report (full replace).
type DuplicateStore interface {
	ReplaceAll(ctx context.Context, pairs []models.DuplicatePair) error
}

// Stores groups the persistence surfaces one run writes to.
type Stores struct {
	Clients     ClientStore
	Territories TerritoryStore
	Assignments updating.AssignmentStore
	Conflicts   ConflictStore
	Duplicates  DuplicateStore
}

// Config tunes one runner instance.
type Config struct {
	MinConfidence float64
	MergeStrategy models.MergeStrategy
}

// Runner executes the full pipeline.
type Runner struct {
	logger    ectologger.Logger
	source    extract.ClientSource
	provider  RuleProvider
	detector  *dedupe.Detector
	builder   *dimensional.Builder
	validator *dimensional.Validator
	conflicts *conflicts.Detector
	publisher updating.ChangePublisher
	stores    Stores
	config    Config
}

// NewRunner creates a new Runner
func NewRunner(
	logger ectologger.Logger,
	source extract.ClientSource,
	provider RuleProvider,
	detector *dedupe.Detector,
	stores Stores,
	publisher updating.ChangePublisher,
	config Config,
) *Runner {
	return &Runner{
		logger:    logger,
		source:    source,
		provider:  provider,
		detector:  detector,
		builder:   dimensional.NewBuilder(logger),
		validator: dimensional.NewValidator(logger),
		conflicts: conflicts.NewDetector(logger),
		publisher: publisher,
		stores:    stores,
		config:    config,
	}
}

// Run executes one complete pipeline pass. The strict quality gate runs
// against a pre-commit preview, so a failing run writes nothing.
func (r *Runner) Run(ctx context.Context) (models.PipelineSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Runner.Run")
	defer span.End()

	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	logger := r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})
	logger.Info("pipeline run started")

	raw, err := r.source.LoadClients(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to load clients")
		return models.PipelineSummary{}, err
	}

	pairs := r.detector.FindDuplicates(ctx, raw)

	clientDim := r.builder.BuildClientDim(ctx, raw)
	if r.config.MergeStrategy != "" && r.config.MergeStrategy != models.MergeManual {
		merged, err := r.detector.Merge(ctx, clientDim, pairs, r.config.MergeStrategy)
		if err != nil {
			return models.PipelineSummary{}, err
		}
		clientDim = merged.Survivors
	}

	ruleSet, err := r.provider.Rules(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to assemble rule set")
		return models.PipelineSummary{}, err
	}
	engine := assigning.NewEngine(r.logger, ruleSet...)
	territories := r.builder.BuildTerritoryDim(ctx, clientDim, ruleSet)

	// Strict gate over a pre-commit preview. Nothing is persisted until it
	// passes.
	preview := updating.BuildAssignments(engine.AssignBulk(ctx, clientDim, r.config.MinConfidence), startedAt)
	if err := r.validator.Validate(ctx, clientDim, territories, preview); err != nil {
		logger.WithError(err).Error("quality gate failed")
		return models.PipelineSummary{}, err
	}

	if err := r.stores.Duplicates.ReplaceAll(ctx, pairs); err != nil {
		logger.WithError(err).Error("failed to persist duplicate report")
		return models.PipelineSummary{}, err
	}
	if err := r.stores.Clients.ReplaceAll(ctx, clientDim); err != nil {
		logger.WithError(err).Error("failed to persist client dimension")
		return models.PipelineSummary{}, err
	}
	if err := r.stores.Territories.ReplaceAll(ctx, territories); err != nil {
		logger.WithError(err).Error("failed to persist territory dimension")
		return models.PipelineSummary{}, err
	}

	updater := updating.NewUpdater(r.logger, engine, r.stores.Assignments, r.publisher)
	updateSummary, _, err := updater.Run(ctx, runID, clientDim, r.config.MinConfidence)
	if err != nil {
		return models.PipelineSummary{}, err
	}

	committed, err := r.stores.Assignments.ListCurrent(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to reload committed assignments")
		return models.PipelineSummary{}, err
	}
	report := r.conflicts.DetectAll(ctx, clientDim, territories, committed)
	if err := r.stores.Conflicts.ReplaceAll(ctx, report.Conflicts); err != nil {
		logger.WithError(err).Error("failed to persist conflict report")
		return models.PipelineSummary{}, err
	}

	completedAt := time.Now().UTC()
	summary := models.PipelineSummary{
		RunID:           runID,
		ClientsLoaded:   len(clientDim),
		Territories:     len(territories),
		DuplicatePairs:  len(pairs),
		Update:          updateSummary,
		TotalConflicts:  report.Total(),
		ConflictErrors:  report.HasErrors,
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
		DurationSeconds: completedAt.Sub(startedAt).Seconds(),
	}

	logger.WithFields(map[string]any{
		"clients":         summary.ClientsLoaded,
		"territories":     summary.Territories,
		"duplicate_pairs": summary.DuplicatePairs,
		"total_changes":   summary.Update.TotalChanges,
		"conflicts":       summary.TotalConflicts,
		"conflict_errors": summary.ConflictErrors,
	}).Info("pipeline run complete")

	return summary, nil
}
