package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/config"
	"github.com/luccibyey/atelier/internal/repository/mongodb"
	"github.com/luccibyey/atelier/internal/repository/sheets"
	"github.com/luccibyey/atelier/internal/scheduler"
	"github.com/luccibyey/atelier/internal/server/handlers"
	"github.com/luccibyey/atelier/internal/server/router"
	alertsvc "github.com/luccibyey/atelier/internal/service/alerts"
	batchsvc "github.com/luccibyey/atelier/internal/service/batches"
	catalogsvc "github.com/luccibyey/atelier/internal/service/catalog"
	planningsvc "github.com/luccibyey/atelier/internal/service/planning"
	requirementsvc "github.com/luccibyey/atelier/internal/service/requirements"
	statisticssvc "github.com/luccibyey/atelier/internal/service/statistics"
	stocksvc "github.com/luccibyey/atelier/internal/service/stock"
	"github.com/luccibyey/atelier/pkg/clients/erpapi"
	whatsappclient "github.com/luccibyey/atelier/pkg/clients/whatsapp"
	"github.com/luccibyey/atelier/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	erp := erpapi.NewClient(cfg.ERPAPI, baseLogger.Named("client.erpapi"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Warn("google sheets not configured, scan history and trends disabled")
	}

	var snapshotRepo mongodb.Repository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		snapshotRepo = mongoRepo
	} else {
		baseLogger.Warn("mongodb not configured, stock snapshots are not stored")
	}

	stockSvc := stocksvc.NewService(erp, baseLogger.Named("svc.stock"))
	requirementSvc := requirementsvc.NewService(erp, baseLogger.Named("svc.requirements"))
	planningSvc := planningsvc.NewService(erp, requirementSvc, baseLogger.Named("svc.planning"))
	batchSvc := batchsvc.NewService(erp, baseLogger.Named("svc.batches"))
	statisticsSvc := statisticssvc.NewService(erp, sheetsRepo, baseLogger.Named("svc.statistics"))
	catalogSvc := catalogsvc.NewService(erp, requirementSvc, baseLogger.Named("svc.catalog"))

	alertOpts := []alertsvc.Option{alertsvc.WithLocation(location)}
	if snapshotRepo != nil {
		alertOpts = append(alertOpts, alertsvc.WithStore(snapshotRepo))
	}
	if sheetsRepo != nil {
		alertOpts = append(alertOpts, alertsvc.WithSheet(sheetsRepo))
	}
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		alertOpts = append(alertOpts, alertsvc.WithMessenger(whatsClient, cfg.WhatsApp.Recipients))
		baseLogger.Info("whatsapp alerts enabled", zap.Int("recipients", len(cfg.WhatsApp.Recipients)))
	} else {
		baseLogger.Warn("whatsapp token missing, stock alerts are logged only")
	}
	alertSvc := alertsvc.NewService(stockSvc, baseLogger.Named("svc.alerts"), alertOpts...)

	engine := router.New(router.Handlers{
		Stock:        handlers.NewStockHandler(stockSvc, erp, baseLogger.Named("handlers.stock")),
		Requirements: handlers.NewRequirementsHandler(requirementSvc, baseLogger.Named("handlers.requirements")),
		Planning:     handlers.NewPlanningHandler(planningSvc, baseLogger.Named("handlers.planning")),
		Batches:      handlers.NewBatchHandler(batchSvc, baseLogger.Named("handlers.batches")),
		Reports:      handlers.NewReportsHandler(statisticsSvc, snapshotRepo, alertSvc, baseLogger.Named("handlers.reports")),
		Catalog:      handlers.NewCatalogHandler(catalogSvc, baseLogger.Named("handlers.catalog")),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Scheduler, alertSvc, catalogSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ERPAPI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("erp_api", cfg.ERPAPI.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
