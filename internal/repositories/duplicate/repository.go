package duplicate

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

const columns = "id1, id2, name1, name2, similarity, confidence, detected_at"

// Repository persists duplicate pair reports. Each detection run fully
// replaces the previous report.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new duplicate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the persisted duplicate report in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, pairs []models.DuplicatePair) error {
	ctx, span := tracing.StartSpan(ctx, "duplicate.Repository.ReplaceAll")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method": "ReplaceAll",
		"pairs":  len(pairs),
	})

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, "DELETE FROM duplicate_pairs"); err != nil {
		log.WithError(err).Error("Failed to clear duplicate pairs")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace duplicate pairs")
	}

	for _, p := range pairs {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("duplicate_pairs")
		sb.Cols("id1", "id2", "name1", "name2", "similarity", "confidence", "detected_at")
		sb.Values(p.ID1, p.ID2, p.Name1, p.Name2, p.Similarity, p.Confidence, p.DetectedAt)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to insert duplicate pair")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace duplicate pairs")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit duplicate replace")
	}

	log.Info("Replaced duplicate report")
	return nil
}

// List retrieves persisted duplicate pairs with an optional confidence band
// filter, highest similarity first
func (r *Repository) List(ctx context.Context, confidence *models.ConfidenceBand) ([]models.DuplicatePair, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicate.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("duplicate_pairs")
	if confidence != nil {
		sb.Where(sb.Equal("confidence", string(*confidence)))
	}
	sb.OrderBy("similarity DESC", "id1", "id2")

	query, args := sb.Build()
	var pairs []models.DuplicatePair
	if err := r.db.SelectContext(ctx, &pairs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate pairs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate pairs")
	}

	return pairs, nil
}
