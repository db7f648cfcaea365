package ruleconfig

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, kind, document, enabled, created_at, updated_at"

// Repository manages stored rule configurations and builds the active rule
// set from them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new rule config repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new rule configuration
func (r *Repository) Create(ctx context.Context, req models.CreateRuleConfigRequest) (models.RuleConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "ruleconfig.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	config := models.RuleConfig{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Document:  req.Document,
		Enabled:   req.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Reject documents that cannot produce a rule before they are stored.
	if _, err := rules.FromConfigs([]models.RuleConfig{config}); err != nil {
		return models.RuleConfig{}, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("rule_configs")
	sb.Cols("id", "kind", "document", "enabled", "created_at", "updated_at")
	sb.Values(config.ID, config.Kind, []byte(config.Document), config.Enabled, config.CreatedAt, config.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create rule config")
		return models.RuleConfig{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create rule config")
	}

	return config, nil
}

// Get retrieves a rule configuration by id
func (r *Repository) Get(ctx context.Context, id string) (models.RuleConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "ruleconfig.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("rule_configs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var config models.RuleConfig
	if err := r.db.GetContext(ctx, &config, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return models.RuleConfig{}, httperror.NewHTTPError(http.StatusNotFound, "rule config not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get rule config")
		return models.RuleConfig{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get rule config")
	}

	return config, nil
}

// List retrieves rule configurations, optionally filtered by kind and
// enabled status
func (r *Repository) List(ctx context.Context, kind *models.RuleConfigKind, enabled *bool) ([]models.RuleConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "ruleconfig.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("rule_configs")
	where := []string{}
	if kind != nil {
		where = append(where, sb.Equal("kind", string(*kind)))
	}
	if enabled != nil {
		where = append(where, sb.Equal("enabled", *enabled))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("created_at", "id")

	query, args := sb.Build()
	var configs []models.RuleConfig
	if err := r.db.SelectContext(ctx, &configs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list rule configs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list rule configs")
	}

	return configs, nil
}

// Update replaces a rule configuration document
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateRuleConfigRequest) (models.RuleConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "ruleconfig.Repository.Update")
	defer span.End()

	config, err := r.Get(ctx, id)
	if err != nil {
		return models.RuleConfig{}, err
	}

	config.Document = req.Document
	config.Enabled = req.Enabled
	config.UpdatedAt = time.Now().UTC()

	if _, err := rules.FromConfigs([]models.RuleConfig{config}); err != nil {
		return models.RuleConfig{}, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("rule_configs")
	sb.Set(
		sb.Assign("document", []byte(config.Document)),
		sb.Assign("enabled", config.Enabled),
		sb.Assign("updated_at", config.UpdatedAt),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update rule config")
		return models.RuleConfig{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update rule config")
	}

	return config, nil
}

// Delete removes a rule configuration
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "ruleconfig.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("rule_configs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete rule config")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete rule config")
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "rule config not found")
	}

	return nil
}

// Rules builds the active rule set from enabled configurations. The region
// rule is always appended as the lowest priority fallback.
func (r *Repository) Rules(ctx context.Context) ([]rules.Rule, error) {
	ctx, span := tracing.StartSpan(ctx, "ruleconfig.Repository.Rules")
	defer span.End()

	enabled := true
	configs, err := r.List(ctx, nil, &enabled)
	if err != nil {
		return nil, err
	}

	set, err := rules.FromConfigs(configs)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to build rule set from configs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to build rule set")
	}

	return append(set, rules.NewRegionRule()), nil
}
