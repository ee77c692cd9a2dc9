package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jaswa1/arbitrary-rage/internal/alert"
	"github.com/jaswa1/arbitrary-rage/internal/analysis"
	"github.com/jaswa1/arbitrary-rage/internal/catalog"
	"github.com/jaswa1/arbitrary-rage/internal/confidence"
	"github.com/jaswa1/arbitrary-rage/internal/config"
	cronrunner "github.com/jaswa1/arbitrary-rage/internal/cron"
	"github.com/jaswa1/arbitrary-rage/internal/db"
	"github.com/jaswa1/arbitrary-rage/internal/handler"
	"github.com/jaswa1/arbitrary-rage/internal/ingest"
	"github.com/jaswa1/arbitrary-rage/internal/logger"
	"github.com/jaswa1/arbitrary-rage/internal/opportunity"
	gormrepository "github.com/jaswa1/arbitrary-rage/internal/repository/gorm"
	"github.com/jaswa1/arbitrary-rage/internal/risk"
	"github.com/jaswa1/arbitrary-rage/internal/service"
	"github.com/jaswa1/arbitrary-rage/internal/valuation"
)

func main() {
	cfgPath := os.Getenv("ARB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ARB_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := dbConn.SetTimezone(cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := dbConn.AutoMigrate(); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := service.NewSystemSettings(store, logger)
	if err := settingsSvc.EnsureDefaults(context.Background()); err != nil {
		logger.Warn("seeding system settings failed", zap.Error(err))
	}

	notifier := alert.NewNotifier(store, cfg.Alert, settingsSvc, logger)
	resolver := catalog.NewResolver(store, cfg.Valuation.ProbabilityTolerance, logger)
	valuer := valuation.NewEngine(store, cfg.Valuation.RecencyWindow, cfg.Valuation.FeeRate, logger)
	scorer := confidence.NewScorer(cfg.Confidence)
	classifier := risk.NewClassifier(cfg.Risk)
	manager := opportunity.NewManager(store, cfg.Opportunity, notifier, logger)
	analyzer := analysis.New(store, resolver, valuer, scorer, classifier, manager, cfg.Scan, logger)
	ingestSvc := ingest.NewService(store, nil, cfg.Ingest.MaxBatch, logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)
	productHandler := &handler.ProductHandler{Repo: store}
	productHandler.Register(router)
	priceHandler := &handler.PriceHandler{Ingest: ingestSvc}
	priceHandler.Register(router)
	oppHandler := &handler.OpportunityHandler{Repo: store, Manager: manager}
	oppHandler.Register(router)
	analysisHandler := &handler.AnalysisHandler{Analyzer: analyzer}
	analysisHandler.Register(router)
	settingsHandler := &handler.SettingsHandler{Settings: settingsSvc}
	settingsHandler.Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.PriceRefresh, func(ctx context.Context) {
			if !settingsSvc.Bool(ctx, service.KeyPriceRefreshEnabled, true) {
				return
			}
			if _, err := ingestSvc.RefreshAll(ctx); err != nil {
				logger.Warn("cron price refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register price refresh failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.Analysis, func(ctx context.Context) {
			if !settingsSvc.Bool(ctx, service.KeyScanEnabled, true) {
				return
			}
			report, err := analyzer.AnalyzeAll(ctx, nil)
			if err != nil {
				logger.Warn("cron analysis failed", zap.Error(err))
				return
			}
			logger.Info("cron analysis ok",
				zap.Int("scanned", report.Scanned),
				zap.Int("opportunities", report.Opportunities),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed),
			)
		})
		if err != nil {
			logger.Warn("cron register analysis failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.ExpirySweep, func(ctx context.Context) {
			if _, err := manager.ExpireDue(ctx); err != nil {
				logger.Warn("cron expiry sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register expiry sweep failed", zap.Error(err))
		}

		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
