package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/planning"
)

// PlanningService plans production runs.
type PlanningService interface {
	Load(ctx context.Context, productID int64, kind models.ProductKind) (models.PlanningContext, error)
	Estimate(ctx context.Context, productID int64, planned map[string]int) (planning.Estimate, error)
	Validate(ctx context.Context, req models.PlanningRequest) (models.ValidationResult, error)
	Start(ctx context.Context, user models.CurrentUser, req models.PlanningRequest) (models.StartProductionResult, error)
}

// PlanningHandler serves the production planning page.
type PlanningHandler struct {
	svc    PlanningService
	logger *zap.Logger
}

// NewPlanningHandler constructs the HTTP handler adapter.
func NewPlanningHandler(svc PlanningService, logger *zap.Logger) *PlanningHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningHandler{svc: svc, logger: logger}
}

// Load answers the product and its plannable sizes. `?type=soustraitance` selects subcontracted products.
func (h *PlanningHandler) Load(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	pc, err := h.svc.Load(c.Request.Context(), productID, models.ProductKind(c.Query("type")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

type estimateRequest struct {
	PlannedQuantities map[string]int `json:"planned_quantities"`
}

// Estimate previews material consumption against current stock.
func (h *PlanningHandler) Estimate(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	estimate, err := h.svc.Estimate(c.Request.Context(), productID, req.PlannedQuantities)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

// Validate asks the server whether the plan can be produced.
func (h *PlanningHandler) Validate(c *gin.Context) {
	var req models.PlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	result, err := h.svc.Validate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Start creates the batch of a validated plan. When the batch exists but the
// stock deduction failed, the batch is still answered with the error.
func (h *PlanningHandler) Start(c *gin.Context) {
	var req models.PlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	result, err := h.svc.Start(c.Request.Context(), CurrentUser(c), req)
	if err != nil && result.BatchID != 0 {
		c.JSON(http.StatusAccepted, gin.H{"batch": result, "error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": result})
}
