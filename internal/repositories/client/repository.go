package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "client_id, client_name, region, segment, parent_org, advisor_email, is_active, attributes, updated_at"

// Repository handles client dimension persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new client repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the entire client dimension in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, clients []models.Client) error {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.ReplaceAll")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":  "ReplaceAll",
		"clients": len(clients),
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, "DELETE FROM clients"); err != nil {
		log.WithError(err).Error("Failed to clear clients")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace clients")
	}

	for _, c := range clients {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("clients")
		sb.Cols("client_id", "client_name", "region", "segment", "parent_org", "advisor_email", "is_active", "attributes", "updated_at")
		sb.Values(c.ID, c.Name, c.Region, c.Segment, c.ParentOrg, c.AdvisorEmail, c.IsActive, c.Attributes, c.UpdatedAt)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).WithFields(map[string]any{"client_id": c.ID}).Error("Failed to insert client")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace clients")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit client replace")
	}

	log.Info("Replaced client dimension")
	return nil
}

// Upsert inserts or updates a single client, for the Kafka ingestion path.
func (r *Repository) Upsert(ctx context.Context, c models.Client) error {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Upsert")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("clients")
	sb.Cols("client_id", "client_name", "region", "segment", "parent_org", "advisor_email", "is_active", "attributes", "updated_at")
	sb.Values(c.ID, c.Name, c.Region, c.Segment, c.ParentOrg, c.AdvisorEmail, c.IsActive, c.Attributes, c.UpdatedAt)
	sb.SQL(`ON CONFLICT (client_id) DO UPDATE SET
		client_name = EXCLUDED.client_name,
		region = EXCLUDED.region,
		segment = EXCLUDED.segment,
		parent_org = EXCLUDED.parent_org,
		advisor_email = EXCLUDED.advisor_email,
		is_active = EXCLUDED.is_active,
		attributes = EXCLUDED.attributes,
		updated_at = EXCLUDED.updated_at`)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": c.ID}).Error("Failed to upsert client")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert client")
	}

	return nil
}

// Deactivate marks a client inactive. Upstream deletes keep the row so the
// audit trail still resolves client names.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Deactivate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("clients")
	sb.Set(
		sb.Assign("is_active", false),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("client_id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"client_id": id}).Error("Failed to deactivate client")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to deactivate client")
	}

	return nil
}

// Get retrieves a client by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("clients")
	sb.Where(sb.Equal("client_id", id))

	query, args := sb.Build()
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("client %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get client")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get client")
	}

	return &client, nil
}

// ListActive retrieves every active client, for repository-sourced pipeline
// runs.
func (r *Repository) ListActive(ctx context.Context) ([]models.Client, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("clients")
	sb.Where(sb.Equal("is_active", true))
	sb.OrderBy("client_id")

	query, args := sb.Build()
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list active clients")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list clients")
	}

	return clients, nil
}

// List retrieves a page of clients with optional region/segment filters
func (r *Repository) List(ctx context.Context, region, segment *string, page, pageSize int) ([]models.Client, int, error) {
	ctx, span := tracing.StartSpan(ctx, "client.Repository.List")
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
	countSb.From("clients")
	countWhere := []string{}
	if region != nil {
		countWhere = append(countWhere, countSb.Equal("region", *region))
	}
	if segment != nil {
		countWhere = append(countWhere, countSb.Equal("segment", *segment))
	}
	if len(countWhere) > 0 {
		countSb.Where(countWhere...)
	}

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count clients")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count clients")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("clients")
	where := []string{}
	if region != nil {
		where = append(where, sb.Equal("region", *region))
	}
	if segment != nil {
		where = append(where, sb.Equal("segment", *segment))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("client_name", "client_id")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list clients")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list clients")
	}

	return clients, totalCount, nil
}
