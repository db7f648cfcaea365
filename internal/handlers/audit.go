package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/auditlog"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AuditHandler serves the append-only assignment audit trail
type AuditHandler struct {
	repo   *auditlog.Repository
	logger ectologger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(repo *auditlog.Repository, logger ectologger.Logger) *AuditHandler {
	return &AuditHandler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers audit routes
func (h *AuditHandler) Register(g *echo.Group) {
	g.GET("", h.List)
}

// List returns a page of audit entries, newest first, with optional
// client_id and change_type filters
func (h *AuditHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AuditHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	clientID := OptionalParam(c, "client_id")
	var changeType *models.ChangeType
	if v := c.QueryParam("change_type"); v != "" {
		ct := models.ChangeType(v)
		switch ct {
		case models.ChangeTypeNew, models.ChangeTypeChanged, models.ChangeTypeRemoved:
			changeType = &ct
		default:
			return BadRequest("change_type must be NEW, CHANGED, or REMOVED")
		}
	}
	page, pageSize := ParsePagination(c)

	entries, totalCount, err := h.repo.List(ctx, clientID, changeType, page, pageSize)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list audit entries")
		return err
	}

	return SuccessResponse(c, ListResponse[models.ChangeRecord]{
		Items:      entries,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}
