package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edcetra/backoffice-api/api/swagger"
	"github.com/edcetra/backoffice-api/internal/handler"
	"github.com/edcetra/backoffice-api/internal/middleware"
	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/internal/repository"
	"github.com/edcetra/backoffice-api/internal/service"
	"github.com/edcetra/backoffice-api/pkg/cache"
	"github.com/edcetra/backoffice-api/pkg/config"
	"github.com/edcetra/backoffice-api/pkg/database"
	"github.com/edcetra/backoffice-api/pkg/jobs"
	"github.com/edcetra/backoffice-api/pkg/logger"
	corsmiddleware "github.com/edcetra/backoffice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edcetra/backoffice-api/pkg/middleware/requestid"
	"github.com/edcetra/backoffice-api/pkg/storage"
)

// @title Edcetra Backoffice API
// @version 0.1.0
// @description Learning platform back office with live class scheduling and revision fan-out
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ScheduleTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	lvcRepo := repository.NewScheduleRepository(db, models.ScheduleTypeLVC)
	lvrcRepo := repository.NewScheduleRepository(db, models.ScheduleTypeLVRC)
	feedbackRepo := repository.NewFeedbackRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	exportRepo := repository.NewExportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	derivationSvc := service.NewDerivationService(subjectRepo, lvrcRepo, metricsSvc, logr, cfg.Derivation)
	scheduleSvc := service.NewScheduleService(lvcRepo, lvrcRepo, subjectRepo, derivationSvc, cacheSvc, validate, logr)
	feedbackSvc := service.NewFeedbackService(lvcRepo, lvrcRepo, feedbackRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, lvcRepo, lvrcRepo, cacheSvc, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportRepo, lvcRepo, lvrcRepo, exportStore, signer, validate, logr)

		queue := jobs.NewQueue("exports", exportSvc.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.AttachQueue(queue)

		if err := exportSvc.RecoverQueuedJobs(ctx); err != nil {
			logr.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		}
		exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, feedbackSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	subjects := authed.Group("/subjects")
	subjects.GET("", subjectHandler.List)
	subjects.GET("/:id", subjectHandler.Get)
	subjects.POST("", adminOnly, subjectHandler.Create)
	subjects.PUT("/:id", adminOnly, subjectHandler.Update)
	subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)
	subjects.GET("/:id/schedules/:type", scheduleHandler.BySubject)

	schedules := authed.Group("/schedules/:type")
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/sessions", scheduleHandler.Sessions)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.POST("", adminOnly, scheduleHandler.Create)
	schedules.PUT("/:id", adminOnly, scheduleHandler.Update)
	schedules.DELETE("/:id", adminOnly, scheduleHandler.Delete)

	feedback := authed.Group("/feedback")
	feedback.POST("", feedbackHandler.Submit)
	feedback.GET("", adminOnly, feedbackHandler.List)

	announcements := authed.Group("/announcements")
	announcements.GET("", announcementHandler.List)
	announcements.GET("/:id", announcementHandler.Get)
	announcements.POST("", adminOnly, announcementHandler.Create)
	announcements.PUT("/:id", adminOnly, announcementHandler.Update)
	announcements.DELETE("/:id", adminOnly, announcementHandler.Delete)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		api.GET("/exports/download/:token", exportHandler.Download)
		exports := authed.Group("/exports")
		exports.POST("", adminOnly, exportHandler.Create)
		exports.GET("/:id", adminOnly, exportHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		logr.Sugar().Infow("shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			logr.Sugar().Errorw("server shutdown failed", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
