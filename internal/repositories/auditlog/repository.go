package auditlog

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

const columns = "id, client_id, client_name, change_type, old_territory, new_territory, rule, timestamp"

// Repository provides read access to the append-only audit log. Writes go
// through the assignment repository's commit so they share its transaction.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit log repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List retrieves a page of audit records, newest first, with optional
// client and change-type filters
func (r *Repository) List(ctx context.Context, clientID *string, changeType *models.ChangeType, page, pageSize int) ([]models.ChangeRecord, int, error) {
	ctx, span := tracing.StartSpan(ctx, "auditlog.Repository.List")
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
	countSb.From("audit_log")
	countWhere := []string{}
	if clientID != nil {
		countWhere = append(countWhere, countSb.Equal("client_id", *clientID))
	}
	if changeType != nil {
		countWhere = append(countWhere, countSb.Equal("change_type", string(*changeType)))
	}
	if len(countWhere) > 0 {
		countSb.Where(countWhere...)
	}

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count audit records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count audit records")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("audit_log")
	where := []string{}
	if clientID != nil {
		where = append(where, sb.Equal("client_id", *clientID))
	}
	if changeType != nil {
		where = append(where, sb.Equal("change_type", string(*changeType)))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("timestamp DESC", "id")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var records []models.ChangeRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list audit records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit records")
	}

	return records, totalCount, nil
}
