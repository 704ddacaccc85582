package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/server/handlers"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Stock        *handlers.StockHandler
	Requirements *handlers.RequirementsHandler
	Planning     *handlers.PlanningHandler
	Batches      *handlers.BatchHandler
	Reports      *handlers.ReportsHandler
	Catalog      *handlers.CatalogHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(currentUserMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/materials", h.Stock.ListMaterials)
	r.GET("/materials/export.xlsx", h.Stock.ExportMaterials)
	r.GET("/materials/:id", h.Stock.GetMaterial)
	r.POST("/materials", h.Stock.CreateMaterial)
	r.PUT("/materials/:id", h.Stock.UpdateMaterial)
	r.DELETE("/materials/:id", h.Stock.DeleteMaterial)
	r.GET("/stock/divergences", h.Stock.Divergences)
	r.GET("/categories", h.Stock.Categories)
	r.GET("/quantity-types", h.Stock.QuantityTypes)
	r.GET("/transactions", h.Stock.ListTransactions)
	r.POST("/transactions/:id/cancel", h.Stock.CancelTransaction)

	products := r.Group("/products/:id/materials")
	products.GET("", h.Requirements.Configuration)
	products.POST("/retry", h.Requirements.Retry)
	products.GET("/:materialId", h.Requirements.Draft)
	products.PUT("/:materialId", h.Requirements.Configure)
	products.DELETE("/:materialId", h.Requirements.Remove)
	products.GET("/:materialId/breakdown", h.Requirements.Breakdown)

	r.GET("/planning/:productId", h.Planning.Load)
	r.POST("/planning/:productId/estimate", h.Planning.Estimate)
	r.POST("/planning/validate", h.Planning.Validate)
	r.POST("/planning/start", h.Planning.Start)

	r.GET("/batches", h.Batches.List)
	r.POST("/batches/:id/status", h.Batches.UpdateStatus)
	r.GET("/batches/:id/history", h.Batches.History)

	r.GET("/statistics", h.Reports.Statistics)
	r.GET("/statistics/trend", h.Reports.Trend)
	r.GET("/snapshots", h.Reports.ListSnapshots)
	r.GET("/snapshots/latest", h.Reports.LatestSnapshot)
	r.POST("/snapshots/scan", h.Reports.Scan)

	r.POST("/sync/:target", h.Catalog.Sync)
	r.GET("/soustraitance/clients", h.Catalog.Clients)
	r.GET("/soustraitance/products", h.Catalog.Products)
	r.POST("/soustraitance/products", h.Catalog.CreateProduct)
	r.GET("/soustraitance/products/:id", h.Catalog.Product)
	r.PUT("/soustraitance/products/:id", h.Catalog.UpdateProduct)
	r.DELETE("/soustraitance/products/:id", h.Catalog.DeleteProduct)

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// currentUserMiddleware reads the operator forwarded by the front end.
// Requests without a user id act as models.Anonymous.
func currentUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader("X-User-Id")), 10, 64)
		if err == nil && id > 0 {
			handlers.SetCurrentUser(c, models.CurrentUser{
				ID:   id,
				Name: c.GetHeader("X-User-Name"),
				Role: models.ParseRole(c.GetHeader("X-User-Role")),
			})
		}
		c.Next()
	}
}
