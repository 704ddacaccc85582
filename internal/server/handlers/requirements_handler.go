package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/requirements"
)

// RequirementsService edits the per-size material configuration of a product.
type RequirementsService interface {
	Configuration(ctx context.Context, productID int64) (requirements.Configuration, error)
	Open(ctx context.Context, productID, materialID int64) (requirements.Draft, error)
	Configure(ctx context.Context, productID, materialID int64, in requirements.DraftInput) (requirements.Configuration, error)
	Remove(ctx context.Context, productID, materialID int64) (requirements.Configuration, error)
	Retry(ctx context.Context, productID int64) (requirements.Configuration, error)
	Breakdown(ctx context.Context, productID, materialID int64) (requirements.MaterialBreakdown, error)
}

// RequirementsHandler serves the product materials editor.
type RequirementsHandler struct {
	svc    RequirementsService
	logger *zap.Logger
}

// NewRequirementsHandler constructs the HTTP handler adapter.
func NewRequirementsHandler(svc RequirementsService, logger *zap.Logger) *RequirementsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementsHandler{svc: svc, logger: logger}
}

func (h *RequirementsHandler) ids(c *gin.Context) (int64, int64, bool) {
	productID, ok := idParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	materialID, ok := idParam(c, "materialId")
	if !ok {
		return 0, 0, false
	}
	return productID, materialID, true
}

// Configuration answers the sizes and saved rows of a product.
func (h *RequirementsHandler) Configuration(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cfg, err := h.svc.Configuration(c.Request.Context(), productID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Draft answers the editable per-size quantities of one material.
func (h *RequirementsHandler) Draft(c *gin.Context) {
	productID, materialID, ok := h.ids(c)
	if !ok {
		return
	}
	draft, err := h.svc.Open(c.Request.Context(), productID, materialID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// Configure saves the quantities of one material and persists the whole set.
func (h *RequirementsHandler) Configure(c *gin.Context) {
	productID, materialID, ok := h.ids(c)
	if !ok {
		return
	}
	var in requirements.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.answer(c, func(ctx context.Context) (requirements.Configuration, error) {
		return h.svc.Configure(ctx, productID, materialID, in)
	})
}

// Remove drops a material from the product.
func (h *RequirementsHandler) Remove(c *gin.Context) {
	productID, materialID, ok := h.ids(c)
	if !ok {
		return
	}
	h.answer(c, func(ctx context.Context) (requirements.Configuration, error) {
		return h.svc.Remove(ctx, productID, materialID)
	})
}

// Retry re-sends the last failed save.
func (h *RequirementsHandler) Retry(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.answer(c, func(ctx context.Context) (requirements.Configuration, error) {
		return h.svc.Retry(ctx, productID)
	})
}

// Breakdown answers the per-size quantities of one material.
func (h *RequirementsHandler) Breakdown(c *gin.Context) {
	productID, materialID, ok := h.ids(c)
	if !ok {
		return
	}
	breakdown, err := h.svc.Breakdown(c.Request.Context(), productID, materialID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// answer writes the configuration after a save. A failed save still answers
// the local rows along with the failure so the editor can offer a retry.
func (h *RequirementsHandler) answer(c *gin.Context, save func(context.Context) (requirements.Configuration, error)) {
	cfg, err := save(c.Request.Context())
	if err != nil && cfg.LastFailure != nil && !errors.Is(err, models.ErrValidation) && !errors.Is(err, requirements.ErrNothingToRetry) {
		h.logger.Warn("product materials saved locally only", zap.Int64("product_id", cfg.ProductID), zap.Error(err))
		c.JSON(http.StatusAccepted, cfg)
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
