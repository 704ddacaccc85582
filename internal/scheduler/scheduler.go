package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/config"
	"github.com/luccibyey/atelier/internal/domain/models"
)

// StockScanner runs a stock scan and can push free-form alerts.
type StockScanner interface {
	Scan(ctx context.Context) (models.StockSnapshot, error)
	Notify(ctx context.Context, message string) error
}

// CatalogSyncer imports products from a sales channel.
type CatalogSyncer interface {
	SyncTarget(ctx context.Context, target string) (models.SyncResult, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	scanner StockScanner
	catalog CatalogSyncer
	cfg     config.SchedulerConfig
	logger  *zap.Logger

	scanTimeout  time.Duration
	syncTimeout  time.Duration
	alertTimeout time.Duration
}

// NewScheduler creates a new scheduler instance. Cron expressions are
// evaluated in the configured time zone. catalog may be nil.
func NewScheduler(cfg config.SchedulerConfig, scanner StockScanner, catalog CatalogSyncer, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("scheduler timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		scanner: scanner,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,

		scanTimeout:  2 * time.Minute,
		syncTimeout:  5 * time.Minute,
		alertTimeout: time.Minute,
	}, nil
}

// Start registers the jobs and starts the scheduler. An invalid cron
// expression is reported before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.cfg.StockScanCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.StockScanCron, s.scanStock); err != nil {
			return fmt.Errorf("schedule stock scan %q: %w", s.cfg.StockScanCron, err)
		}
	}

	if s.cfg.CatalogSyncCron != "" && s.catalog != nil {
		if _, err := s.cron.AddFunc(s.cfg.CatalogSyncCron, s.syncCatalog); err != nil {
			return fmt.Errorf("schedule catalog sync %q: %w", s.cfg.CatalogSyncCron, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) scanStock() {
	s.logger.Info("running stock scan")
	ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
	defer cancel()

	snapshot, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Error("stock scan incomplete", zap.String("snapshot_id", snapshot.ID), zap.Error(err))
		return
	}
	s.logger.Info("stock scan completed", zap.String("snapshot_id", snapshot.ID))
}

func (s *Scheduler) syncCatalog() {
	s.logger.Info("running catalog sync", zap.String("target", s.cfg.CatalogTarget))
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	result, err := s.catalog.SyncTarget(ctx, s.cfg.CatalogTarget)
	if err != nil {
		s.logger.Error("catalog sync failed", zap.Error(err))
		// The sync context may already be past its deadline.
		alertCtx, alertCancel := context.WithTimeout(context.Background(), s.alertTimeout)
		defer alertCancel()
		msg := fmt.Sprintf("*Synchronisation catalogue* (%s) en échec : %v", s.cfg.CatalogTarget, err)
		if err := s.scanner.Notify(alertCtx, msg); err != nil {
			s.logger.Error("failed to send sync alert", zap.Error(err))
		}
		return
	}
	s.logger.Info("catalog sync completed", zap.Int("added", result.Added), zap.Int("updated", result.Updated))
}
