package statistics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	repo "github.com/luccibyey/atelier/internal/repository/sheets"
)

const dateLayout = "2006-01-02"

// ErrTrendUnavailable is returned when no scan history sheet is configured.
var ErrTrendUnavailable = errors.New("stock scan history is not configured")

// BatchSource is the part of the ERP API the dashboard reads.
type BatchSource interface {
	ListBatches(ctx context.Context) ([]models.ProductionBatch, error)
	BatchStatusHistory(ctx context.Context, batchID int64) ([]models.StatusChange, error)
}

// Service computes production statistics and stock scan trends.
type Service struct {
	batches BatchSource
	repo    repo.Repository
	logger  *zap.Logger
}

// NewService wires a new statistics service instance. repository may be nil
// when the scan history sheet is not configured.
func NewService(batches BatchSource, repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{batches: batches, repo: repository, logger: logger}
}

// Dashboard loads every batch, completing missing status histories, and summarizes them.
func (s *Service) Dashboard(ctx context.Context) (Summary, error) {
	batches, err := s.batches.ListBatches(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load batches: %w", err)
	}

	for i := range batches {
		if len(batches[i].StatusHistory) > 0 {
			continue
		}
		history, err := s.batches.BatchStatusHistory(ctx, batches[i].ID)
		if err != nil {
			s.logger.Warn("skip status history of batch", zap.Int64("batch_id", batches[i].ID), zap.Error(err))
			continue
		}
		batches[i].StatusHistory = history
	}

	return Summarize(batches), nil
}

// ScanTrend summarizes the stock scans logged between start and end.
type ScanTrend struct {
	Scans           int     `json:"scans"`
	AverageCritical float64 `json:"average_critical"`
	PeakCritical    int     `json:"peak_critical"`
	PeakDate        string  `json:"peak_date,omitempty"`
	LatestCritical  int     `json:"latest_critical"`
	Message         string  `json:"message"`
}

// Trend reads the scan history sheet and aggregates the critical counts of a period.
func (s *Service) Trend(ctx context.Context, start, end time.Time) (ScanTrend, error) {
	if s.repo == nil {
		return ScanTrend{}, ErrTrendUnavailable
	}

	rows, err := s.repo.ReadRange(ctx, repo.ScansRange)
	if err != nil {
		return ScanTrend{}, fmt.Errorf("load scans range: %w", err)
	}

	var trend ScanTrend
	var totalCritical int
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}

		dateValue, err := parseDate(row[0])
		if err != nil {
			s.logger.Debug("skip scan row with invalid date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if dateValue.Before(start) || dateValue.After(end) {
			continue
		}

		critical, err := parseInt(row[2])
		if err != nil {
			s.logger.Debug("skip scan row with invalid critical count", zap.Any("value", row[2]), zap.Error(err))
			continue
		}

		trend.Scans++
		totalCritical += critical
		trend.LatestCritical = critical
		if critical > trend.PeakCritical || trend.PeakDate == "" {
			trend.PeakCritical = critical
			trend.PeakDate = dateValue.Format(dateLayout)
		}
	}

	period := fmt.Sprintf("%s - %s", start.Format(dateLayout), end.Format(dateLayout))
	if trend.Scans == 0 {
		trend.Message = fmt.Sprintf("Stock (%s) : aucun relevé.", period)
		return trend, nil
	}

	trend.AverageCritical = float64(totalCritical) / float64(trend.Scans)
	trend.Message = fmt.Sprintf("Stock (%s) : %d relevés, %.1f matières critiques en moyenne, pic de %d le %s.",
		period, trend.Scans, trend.AverageCritical, trend.PeakCritical, trend.PeakDate)
	return trend, nil
}

func parseDate(value interface{}) (time.Time, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}

func parseInt(value interface{}) (int, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.Atoi(str)
}
