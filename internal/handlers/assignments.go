package handlers

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/assignment"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AssignmentHandler serves current assignments
type AssignmentHandler struct {
	repo   *assignment.Repository
	cache  *redis.Cache
	logger ectologger.Logger
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(repo *assignment.Repository, cache *redis.Cache, logger ectologger.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Register registers assignment routes
func (h *AssignmentHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:client_id", h.GetByClient)
}

// List returns a page of assignments with optional territory/advisor filters
func (h *AssignmentHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AssignmentHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	territoryID := OptionalParam(c, "territory_id")
	advisorEmail := OptionalParam(c, "advisor_email")
	page, pageSize := ParsePagination(c)

	cacheKey := fmt.Sprintf("assignments:%s:%s:%d:%d", c.QueryParam("territory_id"), c.QueryParam("advisor_email"), page, pageSize)
	if h.cache != nil {
		var cached ListResponse[models.Assignment]
		if h.cache.Get(ctx, cacheKey, &cached) {
			return SuccessResponse(c, cached)
		}
	}

	assignments, totalCount, err := h.repo.List(ctx, territoryID, advisorEmail, page, pageSize)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list assignments")
		return err
	}

	resp := ListResponse[models.Assignment]{
		Items:      assignments,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}
	if h.cache != nil {
		h.cache.Set(ctx, cacheKey, resp)
	}

	return SuccessResponse(c, resp)
}

// GetByClient returns the current assignment for a client
func (h *AssignmentHandler) GetByClient(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AssignmentHandler.GetByClient")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	clientID := c.Param("client_id")
	if clientID == "" {
		return BadRequest("client_id is required")
	}

	result, err := h.repo.GetByClient(ctx, clientID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}
