package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/stock"
	"github.com/luccibyey/atelier/pkg/clients/erpapi"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StockService is what the stock pages need from the stock service.
type StockService interface {
	Overview(ctx context.Context, filter stock.MaterialFilter, key stock.SortKey) ([]stock.Level, stock.Summary, error)
	Details(ctx context.Context, id int64) (stock.MaterialDetails, error)
	CreateMaterial(ctx context.Context, user models.CurrentUser, in models.MaterialInput, image *erpapi.Attachment) (int64, error)
	UpdateMaterial(ctx context.Context, user models.CurrentUser, id int64, in models.MaterialInput, image *erpapi.Attachment) error
	DeleteMaterial(ctx context.Context, user models.CurrentUser, id int64) error
	Transactions(ctx context.Context, filter stock.TransactionFilter) ([]models.StockTransaction, error)
	CancelTransaction(ctx context.Context, user models.CurrentUser, transactionID int64) error
	Divergences(ctx context.Context) ([]stock.Divergence, error)
}

// Lookups lists the reference data of the material form.
type Lookups interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	ListQuantityTypes(ctx context.Context) ([]models.QuantityType, error)
}

// StockHandler serves materials, the xlsx export and the stock ledger.
type StockHandler struct {
	svc     StockService
	lookups Lookups
	logger  *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(svc StockService, lookups Lookups, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{svc: svc, lookups: lookups, logger: logger}
}

func (h *StockHandler) overview(c *gin.Context) ([]stock.Level, stock.Summary, bool) {
	var filter stock.MaterialFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, h.logger, err)
		return nil, stock.Summary{}, false
	}
	key, ok := stock.ParseSortKey(c.Query("sort"))
	if !ok {
		respondError(c, h.logger, models.ValidationErrors{"sort": "Tri inconnu : " + c.Query("sort")})
		return nil, stock.Summary{}, false
	}

	levels, summary, err := h.svc.Overview(c.Request.Context(), filter, key)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, stock.Summary{}, false
	}
	return levels, summary, true
}

// ListMaterials answers the filtered, sorted stock list with its status counts.
func (h *StockHandler) ListMaterials(c *gin.Context) {
	levels, summary, ok := h.overview(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": levels, "summary": summary})
}

// ExportMaterials downloads the current list as an Excel workbook.
func (h *StockHandler) ExportMaterials(c *gin.Context) {
	levels, _, ok := h.overview(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := stock.ExportXLSX(&buf, levels); err != nil {
		respondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("stock-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetMaterial answers one material with its replacement title.
func (h *StockHandler) GetMaterial(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	details, err := h.svc.Details(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// CreateMaterial accepts a JSON body or a multipart form with an optional "image" file.
func (h *StockHandler) CreateMaterial(c *gin.Context) {
	in, image, closeImage, err := bindMaterial(c)
	if err != nil {
		badRequest(c, h.logger, err)
		return
	}
	defer closeImage()

	id, err := h.svc.CreateMaterial(c.Request.Context(), CurrentUser(c), in, image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateMaterial accepts the same bodies as CreateMaterial.
func (h *StockHandler) UpdateMaterial(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, image, closeImage, err := bindMaterial(c)
	if err != nil {
		badRequest(c, h.logger, err)
		return
	}
	defer closeImage()

	if err := h.svc.UpdateMaterial(c.Request.Context(), CurrentUser(c), id, in, image); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMaterial removes a material.
func (h *StockHandler) DeleteMaterial(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMaterial(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTransactions answers the filtered stock ledger.
func (h *StockHandler) ListTransactions(c *gin.Context) {
	var filter stock.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	txs, err := h.svc.Transactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// CancelTransaction cancels a ledger entry on behalf of the current user.
func (h *StockHandler) CancelTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelTransaction(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Divergences answers the materials whose server status disagrees with the local one.
func (h *StockHandler) Divergences(c *gin.Context) {
	out, err := h.svc.Divergences(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"divergences": out})
}

// Categories answers the material categories, `?active_only=true` to hide archived ones.
func (h *StockHandler) Categories(c *gin.Context) {
	categories, err := h.lookups.ListCategories(c.Request.Context(), c.Query("active_only") == "true")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *StockHandler) QuantityTypes(c *gin.Context) {
	types, err := h.lookups.ListQuantityTypes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quantity_types": types})
}

func bindMaterial(c *gin.Context) (models.MaterialInput, *erpapi.Attachment, func(), error) {
	var in models.MaterialInput
	noop := func() {}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&in); err != nil {
			return in, nil, noop, err
		}
		return in, nil, noop, nil
	}

	if err := c.ShouldBind(&in); err != nil {
		return in, nil, noop, err
	}
	header, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return in, nil, noop, nil
		}
		return in, nil, noop, err
	}
	file, err := header.Open()
	if err != nil {
		return in, nil, noop, err
	}
	return in, &erpapi.Attachment{Field: "image", Filename: header.Filename, Reader: file}, closer(file), nil
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
