package conflict

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// row mirrors the conflicts table; territories are stored as a text array.
type row struct {
	models.Conflict
	TerritoryList pq.StringArray `db:"territories"`
}

// Repository persists conflict reports. Each detection run fully replaces
// the previous report.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new conflict repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the persisted conflict report in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, conflicts []models.Conflict) error {
	ctx, span := tracing.StartSpan(ctx, "conflict.Repository.ReplaceAll")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":    "ReplaceAll",
		"conflicts": len(conflicts),
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, "DELETE FROM conflicts"); err != nil {
		log.WithError(err).Error("Failed to clear conflicts")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace conflicts")
	}

	for _, c := range conflicts {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("conflicts")
		sb.Cols("conflict_type", "severity", "message", "client_id", "territory_id", "advisor_email", "territories", "client_count", "detected_at")
		sb.Values(c.Type, c.Severity, c.Message, c.ClientID, c.TerritoryID, c.AdvisorEmail, pq.StringArray(c.Territories), c.ClientCount, c.DetectedAt)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to insert conflict")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace conflicts")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit conflict replace")
	}

	log.Info("Replaced conflict report")
	return nil
}

// List retrieves the persisted conflict report with optional type and
// severity filters
func (r *Repository) List(ctx context.Context, conflictType *models.ConflictType, severity *models.Severity) ([]models.Conflict, error) {
	ctx, span := tracing.StartSpan(ctx, "conflict.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("conflict_type", "severity", "message", "client_id", "territory_id", "advisor_email", "territories", "client_count", "detected_at")
	sb.From("conflicts")
	where := []string{}
	if conflictType != nil {
		where = append(where, sb.Equal("conflict_type", string(*conflictType)))
	}
	if severity != nil {
		where = append(where, sb.Equal("severity", string(*severity)))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("severity", "conflict_type")

	query, args := sb.Build()
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list conflicts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list conflicts")
	}

	conflicts := make([]models.Conflict, 0, len(rows))
	for _, row := range rows {
		c := row.Conflict
		c.Territories = []string(row.TerritoryList)
		conflicts = append(conflicts, c)
	}

	return conflicts, nil
}

// Report rebuilds the aggregate conflict report from the persisted rows
func (r *Repository) Report(ctx context.Context) (models.ConflictReport, error) {
	conflicts, err := r.List(ctx, nil, nil)
	if err != nil {
		return models.ConflictReport{}, err
	}

	report := models.ConflictReport{
		Conflicts:  conflicts,
		ByType:     make(map[models.ConflictType]int),
		BySeverity: make(map[models.Severity]int),
	}
	for _, c := range conflicts {
		report.ByType[c.Type]++
		report.BySeverity[c.Severity]++
		if c.Severity == models.SeverityError {
			report.HasErrors = true
		}
	}

	return report, nil
}
