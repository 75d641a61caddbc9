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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/scholarise-assessment-api/api/swagger"
	"github.com/noah-isme/scholarise-assessment-api/internal/handler"
	"github.com/noah-isme/scholarise-assessment-api/internal/middleware"
	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/internal/repository"
	"github.com/noah-isme/scholarise-assessment-api/internal/service"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	"github.com/noah-isme/scholarise-assessment-api/pkg/cache"
	"github.com/noah-isme/scholarise-assessment-api/pkg/config"
	"github.com/noah-isme/scholarise-assessment-api/pkg/database"
	"github.com/noah-isme/scholarise-assessment-api/pkg/jobs"
	"github.com/noah-isme/scholarise-assessment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/scholarise-assessment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/scholarise-assessment-api/pkg/middleware/requestid"
)

// @title ScholaRise Assessment API
// @version 1.0.0
// @description Scoring engine, grade resolution and class summaries for ScholaRise assessments
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, class summary cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	schemaRepo := repository.NewAssessmentSchemaRepository(db)
	scoreRepo := repository.NewAssessmentScoreRepository(db)
	scaleRepo := repository.NewGradeScaleRepository(db)
	resultRepo := repository.NewAssessmentResultRepository(db)

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Assessment.CacheTTL, logr, redisClient != nil)
	calculator := assessment.NewCalculator(assessment.WithLogger(logr.Named("engine")))
	reports := service.NewClassReportBuilder(schemaRepo, scoreRepo, scaleRepo, calculator, metrics, logr, service.ClassReportConfig{
		Workers:           cfg.Assessment.SummaryWorkers,
		StrictGradeScales: cfg.Assessment.StrictGradeScales,
	})

	worker := service.NewRecalculationWorker(reports, resultRepo, cacheSvc, metrics, logr)
	queue := jobs.NewQueue("assessment-recalculation", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Recalculation.WorkerConcurrency,
		MaxRetries: cfg.Recalculation.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	assessmentSvc := service.NewAssessmentService(reports, schemaRepo, cacheSvc, queue, nil, logr, service.AssessmentServiceConfig{
		CacheTTL: cfg.Assessment.CacheTTL,
	})
	exportSvc := service.NewExportService(logr, nil, nil)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, exportSvc, logr)
	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), tokenSvc, assessmentHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func registerRoutes(api *gin.RouterGroup, tokens *service.TokenService, h *handler.AssessmentHandler) {
	readers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	writers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	resultReaders := middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleTeacher), "SELF")

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.POST("/assessments/calculate", readers, h.Calculate)
	secured.POST("/assessments/validate", readers, h.Validate)
	secured.POST("/assessments/summary", readers, h.Summarize)
	secured.POST("/formulas/test", readers, h.TestFormula)

	secured.GET("/assessments/:id/validation", readers, h.ValidateStored)
	secured.POST("/assessments/:id/publish", writers, h.Publish)
	secured.GET("/assessments/:id/students/:studentId/result", resultReaders, h.StudentResult)
	secured.GET("/assessments/:id/summary", readers, h.ClassSummary)
	secured.GET("/assessments/:id/summary/export", readers, h.ExportSummary)
	secured.POST("/assessments/:id/recalculate", writers, h.Recalculate)
}
