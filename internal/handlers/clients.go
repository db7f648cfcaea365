package handlers

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/client"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ClientHandler serves the client dimension
type ClientHandler struct {
	repo   *client.Repository
	cache  *redis.Cache
	logger ectologger.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(repo *client.Repository, cache *redis.Cache, logger ectologger.Logger) *ClientHandler {
	return &ClientHandler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Register registers client routes
func (h *ClientHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// List returns a page of clients with optional region/segment filters
func (h *ClientHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ClientHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	region := OptionalParam(c, "region")
	segment := OptionalParam(c, "segment")
	page, pageSize := ParsePagination(c)

	cacheKey := fmt.Sprintf("clients:%s:%s:%d:%d", c.QueryParam("region"), c.QueryParam("segment"), page, pageSize)
	if h.cache != nil {
		var cached ListResponse[models.Client]
		if h.cache.Get(ctx, cacheKey, &cached) {
			return SuccessResponse(c, cached)
		}
	}

	clients, totalCount, err := h.repo.List(ctx, region, segment, page, pageSize)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list clients")
		return err
	}

	resp := ListResponse[models.Client]{
		Items:      clients,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}
	if h.cache != nil {
		h.cache.Set(ctx, cacheKey, resp)
	}

	return SuccessResponse(c, resp)
}

// Get returns a client by ID
func (h *ClientHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ClientHandler.Get")
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
