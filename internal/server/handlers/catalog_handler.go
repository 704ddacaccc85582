package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/stock"
)

// CatalogService synchronizes boutiques and manages subcontracted products.
type CatalogService interface {
	Sync(ctx context.Context, user models.CurrentUser, target string) (models.SyncResult, error)
	Clients(ctx context.Context) ([]models.SoustraitanceClient, error)
	Products(ctx context.Context, filter stock.ProductFilter) ([]models.SoustraitanceProduct, error)
	Product(ctx context.Context, id int64) (models.SoustraitanceProduct, error)
	CreateProduct(ctx context.Context, user models.CurrentUser, in models.SoustraitanceProductInput) (int64, error)
	UpdateProduct(ctx context.Context, user models.CurrentUser, id int64, in models.SoustraitanceProductInput) error
	DeleteProduct(ctx context.Context, user models.CurrentUser, id int64) error
}

// CatalogHandler serves catalog synchronization and the subcontracting pages.
type CatalogHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

// NewCatalogHandler constructs the HTTP handler adapter.
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

// Sync imports the catalog of the boutique named by :target.
func (h *CatalogHandler) Sync(c *gin.Context) {
	result, err := h.svc.Sync(c.Request.Context(), CurrentUser(c), c.Param("target"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) Clients(c *gin.Context) {
	clients, err := h.svc.Clients(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (h *CatalogHandler) Products(c *gin.Context) {
	var filter stock.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	products, err := h.svc.Products(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *CatalogHandler) Product(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.svc.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var in models.SoustraitanceProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	id, err := h.svc.CreateProduct(c.Request.Context(), CurrentUser(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in models.SoustraitanceProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	if err := h.svc.UpdateProduct(c.Request.Context(), CurrentUser(c), id, in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
