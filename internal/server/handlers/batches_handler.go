package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/batches"
)

// BatchService follows production batches.
type BatchService interface {
	List(ctx context.Context) ([]models.ProductionBatch, error)
	UpdateStatus(ctx context.Context, user models.CurrentUser, batchID int64, update batches.StatusUpdate) (models.ProductionBatch, error)
	History(ctx context.Context, batchID int64) ([]models.StatusChange, error)
}

// BatchHandler serves the batch list and status changes.
type BatchHandler struct {
	svc    BatchService
	logger *zap.Logger
}

// NewBatchHandler constructs the HTTP handler adapter.
func NewBatchHandler(svc BatchService, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{svc: svc, logger: logger}
}

func (h *BatchHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": list})
}

// UpdateStatus moves a batch to the requested status.
func (h *BatchHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var update batches.StatusUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	batch, err := h.svc.UpdateStatus(c.Request.Context(), CurrentUser(c), id, update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) History(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	history, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
