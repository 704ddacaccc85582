package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/statistics"
)

const (
	queryDateLayout   = "2006-01-02"
	defaultTrendDays  = 30
	defaultSnapshots  = 20
	maxSnapshotsLimit = 200
)

// StatisticsService computes production statistics and scan trends.
type StatisticsService interface {
	Dashboard(ctx context.Context) (statistics.Summary, error)
	Trend(ctx context.Context, start, end time.Time) (statistics.ScanTrend, error)
}

// SnapshotReader reads stored stock scans.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (models.StockSnapshot, error)
	ListSnapshots(ctx context.Context, limit int64) ([]models.StockSnapshot, error)
}

// Scanner runs a stock scan on demand.
type Scanner interface {
	Scan(ctx context.Context) (models.StockSnapshot, error)
}

// ReportsHandler serves statistics and stock scan history. snapshots may be
// nil when no snapshot store is configured.
type ReportsHandler struct {
	stats     StatisticsService
	snapshots SnapshotReader
	scanner   Scanner
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportsHandler constructs the HTTP handler adapter.
func NewReportsHandler(stats StatisticsService, snapshots SnapshotReader, scanner Scanner, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportsHandler{stats: stats, snapshots: snapshots, scanner: scanner, logger: logger, now: time.Now}
}

// Statistics answers the production dashboard.
func (h *ReportsHandler) Statistics(c *gin.Context) {
	summary, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Trend aggregates the critical counts of the scans between ?start and ?end (inclusive days).
func (h *ReportsHandler) Trend(c *gin.Context) {
	end := h.now()
	start := end.AddDate(0, 0, -defaultTrendDays)

	errs := models.ValidationErrors{}
	if v := c.Query("start"); v != "" {
		parsed, err := time.ParseInLocation(queryDateLayout, v, end.Location())
		if err != nil {
			errs.Add("start", "Date invalide, format attendu AAAA-MM-JJ")
		}
		start = parsed
	}
	if v := c.Query("end"); v != "" {
		parsed, err := time.ParseInLocation(queryDateLayout, v, end.Location())
		if err != nil {
			errs.Add("end", "Date invalide, format attendu AAAA-MM-JJ")
		}
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if len(errs) == 0 && end.Before(start) {
		errs.Add("end", "La date de fin doit suivre la date de début")
	}
	if err := errs.OrNil(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	trend, err := h.stats.Trend(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

// LatestSnapshot answers the most recent stored scan.
func (h *ReportsHandler) LatestSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot history is not configured"})
		return
	}
	snapshot, err := h.snapshots.LatestSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ListSnapshots answers the newest stored scans, `?limit` at most.
func (h *ReportsHandler) ListSnapshots(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot history is not configured"})
		return
	}
	limit := int64(defaultSnapshots)
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(c, h.logger, models.ValidationErrors{"limit": "La limite doit être un entier positif"})
			return
		}
		limit = min(parsed, maxSnapshotsLimit)
	}
	snapshots, err := h.snapshots.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// Scan runs a stock scan now and answers the snapshot. Sink failures are
// reported alongside the snapshot.
func (h *ReportsHandler) Scan(c *gin.Context) {
	if !CurrentUser(c).CanManageStock() {
		respondError(c, h.logger, models.ErrForbidden)
		return
	}
	snapshot, err := h.scanner.Scan(c.Request.Context())
	if err != nil && snapshot.ID != "" {
		h.logger.Warn("stock scan delivered partially", zap.String("snapshot_id", snapshot.ID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"snapshot": snapshot, "error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}
