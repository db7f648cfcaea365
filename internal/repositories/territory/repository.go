package territory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "territory_id, region, segment, owner_role, updated_at"

// Repository handles territory dimension persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new territory repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the entire territory dimension in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, territories []models.Territory) error {
	ctx, span := tracing.StartSpan(ctx, "territory.Repository.ReplaceAll")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "ReplaceAll",
		"territories": len(territories),
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, "DELETE FROM territories"); err != nil {
		log.WithError(err).Error("Failed to clear territories")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace territories")
	}

	for _, t := range territories {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("territories")
		sb.Cols("territory_id", "region", "segment", "owner_role", "updated_at")
		sb.Values(t.ID, t.Region, t.Segment, t.OwnerRole, t.UpdatedAt)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).WithFields(map[string]any{"territory_id": t.ID}).Error("Failed to insert territory")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace territories")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit territory replace")
	}

	log.Info("Replaced territory dimension")
	return nil
}

// Get retrieves a territory by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Territory, error) {
	ctx, span := tracing.StartSpan(ctx, "territory.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("territories")
	sb.Where(sb.Equal("territory_id", id))

	query, args := sb.Build()
	var territory models.Territory
	if err := r.db.GetContext(ctx, &territory, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("territory %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get territory")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get territory")
	}

	return &territory, nil
}

// List retrieves all territories, optionally filtered by region
func (r *Repository) List(ctx context.Context, region *string) ([]models.Territory, error) {
	ctx, span := tracing.StartSpan(ctx, "territory.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("territories")
	if region != nil {
		sb.Where(sb.Equal("region", *region))
	}
	sb.OrderBy("territory_id")

	query, args := sb.Build()
	var territories []models.Territory
	if err := r.db.SelectContext(ctx, &territories, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list territories")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list territories")
	}

	return territories, nil
}
