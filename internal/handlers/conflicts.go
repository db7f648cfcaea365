package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/conflict"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ConflictHandler serves the latest conflict report
type ConflictHandler struct {
	repo   *conflict.Repository
	logger ectologger.Logger
}

// NewConflictHandler creates a new conflict handler
func NewConflictHandler(repo *conflict.Repository, logger ectologger.Logger) *ConflictHandler {
	return &ConflictHandler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers conflict routes
func (h *ConflictHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/report", h.Report)
}

// List returns conflicts with optional type and severity filters
func (h *ConflictHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ConflictHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var conflictType *models.ConflictType
	if v := c.QueryParam("conflict_type"); v != "" {
		ct := models.ConflictType(v)
		conflictType = &ct
	}

	var severity *models.Severity
	if v := c.QueryParam("severity"); v != "" {
		s := models.Severity(v)
		switch s {
		case models.SeverityError, models.SeverityWarning, models.SeverityInfo:
			severity = &s
		default:
			return BadRequest("severity must be ERROR, WARNING, or INFO")
		}
	}

	conflicts, err := h.repo.List(ctx, conflictType, severity)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list conflicts")
		return err
	}

	return SuccessResponse(c, conflicts)
}

// Report returns the aggregated conflict report
func (h *ConflictHandler) Report(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ConflictHandler.Report")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	report, err := h.repo.Report(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to build conflict report")
		return err
	}

	return SuccessResponse(c, report)
}
