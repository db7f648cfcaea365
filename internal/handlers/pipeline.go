package handlers

import (
	"net/http"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// PipelineHandler triggers assignment pipeline runs
type PipelineHandler struct {
	runner *pipeline.Runner
	cache  *redis.Cache
	logger ectologger.Logger
	mu     sync.Mutex
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner *pipeline.Runner, cache *redis.Cache, logger ectologger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		cache:  cache,
		logger: logger,
	}
}

// Register registers pipeline routes
func (h *PipelineHandler) Register(g *echo.Group) {
	g.POST("/run", h.Run)
	g.POST("/cache/refresh", h.RefreshCache)
}

// Run executes one full pipeline run. Only one run may be in flight at a
// time; concurrent triggers get a 409.
func (h *PipelineHandler) Run(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PipelineHandler.Run")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	if !h.mu.TryLock() {
		return httperror.NewHTTPError(http.StatusConflict, "a pipeline run is already in progress")
	}
	defer h.mu.Unlock()

	summary, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Pipeline run failed")
		return err
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate read cache after pipeline run")
		}
	}

	return SuccessResponse(c, summary)
}

// RefreshCache drops every cached read so the next requests hit the database
func (h *PipelineHandler) RefreshCache(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PipelineHandler.RefreshCache")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	if h.cache == nil {
		return SuccessResponse(c, map[string]string{"status": "cache disabled"})
	}

	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to invalidate read cache")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to refresh cache")
	}

	return SuccessResponse(c, map[string]string{"status": "refreshed"})
}
