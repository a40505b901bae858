package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/gridtrain/eval-api/api/swagger"
	"github.com/gridtrain/eval-api/internal/handler"
	"github.com/gridtrain/eval-api/internal/middleware"
	"github.com/gridtrain/eval-api/internal/realtime"
	"github.com/gridtrain/eval-api/internal/repository"
	"github.com/gridtrain/eval-api/internal/routes"
	"github.com/gridtrain/eval-api/internal/scoring"
	"github.com/gridtrain/eval-api/internal/service"
	"github.com/gridtrain/eval-api/pkg/cache"
	"github.com/gridtrain/eval-api/pkg/config"
	"github.com/gridtrain/eval-api/pkg/database"
	"github.com/gridtrain/eval-api/pkg/export"
	"github.com/gridtrain/eval-api/pkg/jobs"
	"github.com/gridtrain/eval-api/pkg/logger"
	corsmiddleware "github.com/gridtrain/eval-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gridtrain/eval-api/pkg/middleware/requestid"
	"github.com/gridtrain/eval-api/pkg/storage"
)

// @title Grid Training Evaluation API
// @version 1.0.0
// @description Multi-tenant evaluation of grid operator training cycles and simulator sessions
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	validate := validator.New()
	policy := scoring.PolicyFromConfig(cfg.Scoring)
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	scenarioRepo := repository.NewScenarioRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "gridtrain")

	var hub *realtime.Hub
	if cfg.Realtime.LiveSessionsEnabled {
		hub = realtime.NewHub(logr, metricsSvc)
		go hub.Run(ctx)
	}

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:      dashboardRepo,
		Companies: companyRepo,
		Cache:     cacheSvc,
		Policy:    policy,
		Logger:    logr,
		Config:    service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	authSvc := service.NewAuthService(userRepo, companyRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, companyRepo, auditRepo, validate, logr)
	companySvc := service.NewCompanyService(companyRepo, auditRepo, dashboardSvc, validate, logr)
	cycleSvc := service.NewCycleService(service.CycleServiceParams{
		Repo:       cycleRepo,
		Events:     eventRepo,
		Users:      userRepo,
		Companies:  companyRepo,
		Dashboards: dashboardSvc,
		Audit:      auditRepo,
		Policy:     policy,
		Validator:  validate,
		Logger:     logr,
	})
	eventSvc := service.NewEventService(service.EventServiceParams{
		Repo:       eventRepo,
		Cycles:     cycleRepo,
		Companies:  companyRepo,
		Dashboards: dashboardSvc,
		Audit:      auditRepo,
		Metrics:    metricsSvc,
		Policy:     policy,
		Validator:  validate,
		Logger:     logr,
	})
	scenarioSvc := service.NewScenarioService(scenarioRepo, companyRepo, auditRepo, policy, validate, logr)
	sessionSvc := service.NewSessionService(service.SessionServiceParams{
		Repo:       sessionRepo,
		Scenarios:  scenarioRepo,
		Users:      userRepo,
		Companies:  companyRepo,
		Dashboards: dashboardSvc,
		Audit:      auditRepo,
		Metrics:    metricsSvc,
		Live:       hub,
		Policy:     policy,
		Validator:  validate,
		Logger:     logr,
	})

	var reportHandler *handler.ReportHandler
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare report storage", zap.Error(err))
		}
		exporter := service.NewExportService(service.ExportServiceParams{
			Cycles:    cycleRepo,
			Events:    eventRepo,
			Sessions:  sessionRepo,
			Scenarios: scenarioRepo,
			Users:     userRepo,
			Storage:   files,
			Signer:    storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
			CSV:       export.NewCSVExporter(),
			PDF:       export.NewPDFExporter(),
			Policy:    policy,
			Logger:    logr,
			Config: service.ExportConfig{
				APIPrefix: cfg.APIPrefix,
				ResultTTL: cfg.Reports.SignedURLTTL,
			},
		})
		worker := service.NewReportWorker(reportRepo, exporter, metricsSvc, logr)

		var reportSvc *service.ReportService
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			JobTimeout: 2 * time.Minute,
			Logger:     logr,
			OnGiveUp: func(job jobs.Job, err error) {
				reportSvc.HandleGiveUp(job, err)
			},
		})
		reportSvc = service.NewReportService(service.ReportServiceParams{
			Repo:      reportRepo,
			Cycles:    cycleRepo,
			Sessions:  sessionRepo,
			Companies: companyRepo,
			Queue:     reportQueue,
			Files:     exporter,
			Metrics:   metricsSvc,
			Validator: validate,
			Logger:    logr,
			Config: service.ReportServiceConfig{
				APIPrefix:       cfg.APIPrefix,
				ResultTTL:       cfg.Reports.SignedURLTTL,
				CleanupInterval: cfg.Reports.CleanupInterval,
			},
		})

		reportQueue.Start(ctx)
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		reportHandler = handler.NewReportHandler(reportSvc, logr)
	}

	sessionHandler := handler.NewSessionHandler(sessionSvc, nil, logr)
	if hub != nil {
		sessionHandler = handler.NewSessionHandler(sessionSvc, hub, logr)
	}

	pingRedis := handler.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    pingRedis,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	routes.Register(r, cfg.APIPrefix, routes.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Users:     handler.NewUserHandler(userSvc),
		Companies: handler.NewCompanyHandler(companySvc),
		Cycles:    handler.NewCycleHandler(cycleSvc),
		Events:    handler.NewEventHandler(eventSvc),
		Scenarios: handler.NewScenarioHandler(scenarioSvc),
		Sessions:  sessionHandler,
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Reports:   reportHandler,
		Metrics:   metricsHandler,
	}, routes.Deps{
		Tokens: authSvc,
		Audit:  auditRepo,
		Logger: logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
