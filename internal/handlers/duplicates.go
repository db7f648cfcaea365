package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/duplicate"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/extract"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DuplicateHandler serves the latest near-duplicate report
type DuplicateHandler struct {
	repo    *duplicate.Repository
	clients extract.ClientLister
	logger  ectologger.Logger
}

// NewDuplicateHandler creates a new duplicate handler
func NewDuplicateHandler(repo *duplicate.Repository, clients extract.ClientLister, logger ectologger.Logger) *DuplicateHandler {
	return &DuplicateHandler{
		repo:    repo,
		clients: clients,
		logger:  logger,
	}
}

// Register registers duplicate routes
func (h *DuplicateHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/preview", h.Preview)
}

// List returns duplicate pairs with an optional confidence band filter
func (h *DuplicateHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "DuplicateHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var confidence *models.ConfidenceBand
	if v := c.QueryParam("confidence"); v != "" {
		band := models.ConfidenceBand(v)
		switch band {
		case models.BandHigh, models.BandMedium, models.BandLow:
			confidence = &band
		default:
			return BadRequest("confidence must be HIGH, MEDIUM, or LOW")
		}
	}

	pairs, err := h.repo.List(ctx, confidence)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate pairs")
		return err
	}

	return SuccessResponse(c, pairs)
}

// PreviewRequest tunes a one-off duplicate scan without persisting results
type PreviewRequest struct {
	Method    string  `json:"method"`
	Threshold float64 `json:"threshold" validate:"omitempty,gte=0,lte=100"`
}

// Preview runs duplicate detection over the active client set with the
// requested method and threshold. Nothing is persisted.
func (h *DuplicateHandler) Preview(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "DuplicateHandler.Preview")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	req := PreviewRequest{Method: string(dedupe.MethodTokenSort), Threshold: 85}
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return BadRequest(err.Error())
	}

	clients, err := h.clients.ListActive(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load clients for duplicate preview")
		return err
	}

	detector := dedupe.NewDetector(h.logger, dedupe.Method(req.Method), req.Threshold)
	pairs := detector.FindDuplicates(ctx, clients)

	return SuccessResponse(c, map[string]any{
		"method":    req.Method,
		"threshold": req.Threshold,
		"scanned":   len(clients),
		"pairs":     pairs,
	})
}
