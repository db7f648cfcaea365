package assignment

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "client_id, territory_id, advisor_email, assignment_type, is_current, assigned_by_rule, confidence, updated_at"

// Repository handles assignment persistence. The assignment set is
// full-replaced per run; the audit log only ever grows.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new assignment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListCurrent retrieves the current assignment set
func (r *Repository) ListCurrent(ctx context.Context) ([]models.Assignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.ListCurrent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("assignments")
	sb.Where(sb.Equal("is_current", true))
	sb.OrderBy("client_id")

	query, args := sb.Build()
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list current assignments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list assignments")
	}

	return assignments, nil
}

// Commit replaces the assignment set and appends the audit records in a
// single transaction, so a crash can never persist one without the other.
func (r *Repository) Commit(ctx context.Context, assignments []models.Assignment, changes []models.ChangeRecord) error {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.Commit")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "Commit",
		"assignments": len(assignments),
		"changes":     len(changes),
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments"); err != nil {
		log.WithError(err).Error("Failed to clear assignments")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit assignments")
	}

	for _, a := range assignments {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("assignments")
		sb.Cols("client_id", "territory_id", "advisor_email", "assignment_type", "is_current", "assigned_by_rule", "confidence", "updated_at")
		sb.Values(a.ClientID, a.TerritoryID, a.AdvisorEmail, a.AssignmentType, a.IsCurrent, a.AssignedByRule, a.Confidence, a.UpdatedAt)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).WithFields(map[string]any{"client_id": a.ClientID}).Error("Failed to insert assignment")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit assignments")
		}
	}

	for _, c := range changes {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("audit_log")
		sb.Cols("id", "client_id", "client_name", "change_type", "old_territory", "new_territory", "rule", "timestamp")
		sb.Values(c.ID, c.ClientID, c.ClientName, c.ChangeType, c.OldTerritory, c.NewTerritory, c.Rule, c.Timestamp)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).WithFields(map[string]any{"client_id": c.ClientID}).Error("Failed to append audit record")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit assignments")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit assignment transaction")
	}

	log.Info("Committed assignment set")
	return nil
}

// List retrieves a page of assignments with optional filters
func (r *Repository) List(ctx context.Context, territoryID, advisorEmail *string, page, pageSize int) ([]models.Assignment, int, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("assignments")
	countWhere := []string{countSb.Equal("is_current", true)}
	if territoryID != nil {
		countWhere = append(countWhere, countSb.Equal("territory_id", *territoryID))
	}
	if advisorEmail != nil {
		countWhere = append(countWhere, countSb.Equal("advisor_email", *advisorEmail))
	}
	countSb.Where(countWhere...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count assignments")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count assignments")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("assignments")
	where := []string{sb.Equal("is_current", true)}
	if territoryID != nil {
		where = append(where, sb.Equal("territory_id", *territoryID))
	}
	if advisorEmail != nil {
		where = append(where, sb.Equal("advisor_email", *advisorEmail))
	}
	sb.Where(where...)
	sb.OrderBy("client_id")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list assignments")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list assignments")
	}

	return assignments, totalCount, nil
}

// GetByClient retrieves the current assignment for one client
func (r *Repository) GetByClient(ctx context.Context, clientID string) (*models.Assignment, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Repository.GetByClient")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("assignments")
	sb.Where(
		sb.Equal("client_id", clientID),
		sb.Equal("is_current", true),
	)

	query, args := sb.Build()
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no current assignment for client "+clientID)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get assignment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get assignment")
	}

	return &assignment, nil
}
