package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/ruleconfig"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// RuleConfigHandler manages stored rule configurations
type RuleConfigHandler struct {
	repo   *ruleconfig.Repository
	logger ectologger.Logger
}

// NewRuleConfigHandler creates a new rule config handler
func NewRuleConfigHandler(repo *ruleconfig.Repository, logger ectologger.Logger) *RuleConfigHandler {
	return &RuleConfigHandler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers rule config routes
func (h *RuleConfigHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List returns rule configurations with optional kind/enabled filters
func (h *RuleConfigHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RuleConfigHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var kind *models.RuleConfigKind
	if v := c.QueryParam("kind"); v != "" {
		k := models.RuleConfigKind(v)
		kind = &k
	}

	var enabled *bool
	switch c.QueryParam("enabled") {
	case "true":
		v := true
		enabled = &v
	case "false":
		v := false
		enabled = &v
	}

	configs, err := h.repo.List(ctx, kind, enabled)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list rule configs")
		return err
	}

	return SuccessResponse(c, configs)
}

// Create stores a new rule configuration
func (h *RuleConfigHandler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RuleConfigHandler.Create")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.CreateRuleConfigRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return BadRequest(err.Error())
	}

	config, err := h.repo.Create(ctx, req)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).Infof("Created %s rule config %s", config.Kind, config.ID)
	return CreatedResponse(c, config)
}

// Get returns a rule configuration by id
func (h *RuleConfigHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RuleConfigHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id := c.Param("id")
	if id == "" {
		return BadRequest("id is required")
	}

	config, err := h.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, config)
}

// Update replaces a rule configuration document
func (h *RuleConfigHandler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RuleConfigHandler.Update")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id := c.Param("id")
	if id == "" {
		return BadRequest("id is required")
	}

	var req models.UpdateRuleConfigRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return BadRequest(err.Error())
	}

	config, err := h.repo.Update(ctx, id, req)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).Infof("Updated rule config %s", id)
	return SuccessResponse(c, config)
}

// Delete removes a rule configuration
func (h *RuleConfigHandler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RuleConfigHandler.Delete")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id := c.Param("id")
	if id == "" {
		return BadRequest("id is required")
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	h.logger.WithContext(ctx).Infof("Deleted rule config %s", id)
	return NoContentResponse(c)
}
