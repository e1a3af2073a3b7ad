package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/smart-student/assignment-engine/api/swagger"
	"github.com/smart-student/assignment-engine/internal/handler"
	"github.com/smart-student/assignment-engine/internal/repository"
	"github.com/smart-student/assignment-engine/internal/service"
	"github.com/smart-student/assignment-engine/pkg/cache"
	"github.com/smart-student/assignment-engine/pkg/config"
	"github.com/smart-student/assignment-engine/pkg/database"
	"github.com/smart-student/assignment-engine/pkg/logger"
	corsmiddleware "github.com/smart-student/assignment-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/smart-student/assignment-engine/pkg/middleware/requestid"
)

// @title Assignment Engine API
// @version 0.1.0
// @description Assignment resolution and consistency engine
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	syncRepo := repository.NewSyncRepository(db)

	metrics := service.NewMetricsService()

	cacheSvc := service.NewCacheService(nil, metrics, cfg.Engine.AudienceCacheTTL, logr)
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, audience cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Engine.AudienceCacheTTL, logr)
	}

	validate := validator.New()

	snapshotSvc := service.NewSnapshotService(courseRepo, sectionRepo, assignmentRepo, userRepo, profileRepo, cacheSvc, metrics, logr)
	reconcileSvc := service.NewReconcileService(profileRepo, snapshotSvc, metrics, logr)
	audienceSvc := service.NewAudienceService(taskRepo, snapshotSvc, cacheSvc, metrics, cfg.Engine, logr)
	syncSvc := service.NewSyncService(syncRepo, metrics, cfg.Sync, logr)
	importSvc := service.NewImportService(snapshotSvc, syncSvc, reconcileSvc, cfg.Imports, logr)
	exportSvc := service.NewExportService(snapshotSvc, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, sectionRepo, userRepo, reconcileSvc, validate, logr)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := snapshotSvc.Refresh(ctx); err != nil {
			logr.Sugar().Warnw("initial snapshot build failed, will retry on demand", "error", err)
		}
		cancel()
	}

	watermarkCron := cron.New()
	interval := cfg.Engine.WatermarkInterval
	if interval <= 0 {
		interval = time.Minute
	}
	if _, err := watermarkCron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		changed, err := snapshotSvc.CheckWatermark(ctx)
		if err != nil {
			logr.Warn("watermark check failed", zap.Error(err))
			return
		}
		if changed {
			logr.Info("snapshot rebuilt after watermark change")
		}
	}); err != nil {
		logr.Sugar().Fatalw("failed to schedule watermark check", "error", err)
	}
	watermarkCron.Start()
	defer watermarkCron.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Audience:    handler.NewAudienceHandler(audienceSvc, snapshotSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Reconcile:   handler.NewReconcileHandler(reconcileSvc),
		Imports:     handler.NewImportHandler(importSvc, exportSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		Engine:      handler.NewEngineHandler(snapshotSvc),
	}
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, authSvc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
