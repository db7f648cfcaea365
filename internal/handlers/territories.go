package handlers

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/territory"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// TerritoryHandler serves the territory dimension
type TerritoryHandler struct {
	repo   *territory.Repository
	cache  *redis.Cache
	logger ectologger.Logger
}

// NewTerritoryHandler creates a new territory handler
func NewTerritoryHandler(repo *territory.Repository, cache *redis.Cache, logger ectologger.Logger) *TerritoryHandler {
	return &TerritoryHandler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Register registers territory routes
func (h *TerritoryHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// List returns territories with an optional region filter
func (h *TerritoryHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "TerritoryHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	region := OptionalParam(c, "region")

	cacheKey := fmt.Sprintf("territories:%s", c.QueryParam("region"))
	if h.cache != nil {
		var cached []models.Territory
		if h.cache.Get(ctx, cacheKey, &cached) {
			return SuccessResponse(c, cached)
		}
	}

	territories, err := h.repo.List(ctx, region)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list territories")
		return err
	}

	if h.cache != nil {
		h.cache.Set(ctx, cacheKey, territories)
	}

	return SuccessResponse(c, territories)
}

// Get returns a territory by ID
func (h *TerritoryHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "TerritoryHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id := c.Param("id")
	if id == "" {
		return BadRequest("id is required")
	}

	result, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}
