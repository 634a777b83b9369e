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

	_ "github.com/noah-isme/academic-planner-api/api/swagger"
	"github.com/noah-isme/academic-planner-api/internal/handler"
	"github.com/noah-isme/academic-planner-api/internal/middleware"
	"github.com/noah-isme/academic-planner-api/internal/realtime"
	"github.com/noah-isme/academic-planner-api/internal/repository"
	"github.com/noah-isme/academic-planner-api/internal/service"
	"github.com/noah-isme/academic-planner-api/pkg/cache"
	"github.com/noah-isme/academic-planner-api/pkg/config"
	"github.com/noah-isme/academic-planner-api/pkg/database"
	"github.com/noah-isme/academic-planner-api/pkg/jobs"
	"github.com/noah-isme/academic-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/academic-planner-api/pkg/storage"
)

const uploadRetention = 24 * time.Hour

// @title Academic Planner API
// @version 1.0
// @description Weekly timetable scheduling with room and teacher recommendations.
// @BasePath /api/v1
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

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.ReadinessCheck{}

	seed, err := service.LoadCatalogSeed(cfg.Catalog.SeedFile)
	if err != nil {
		logr.Fatal("failed to load catalog seed", zap.Error(err))
	}
	if cfg.Registry.Enabled {
		db, err := database.NewRegistry(ctx, cfg.Registry)
		if err != nil {
			logr.Fatal("failed to connect to roster registry", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck

		registry := repository.NewRegistryRepository(db, metrics)
		seed, err = service.LoadRegistrySeed(ctx, registry, seed)
		if err != nil {
			logr.Fatal("failed to read roster registry", zap.Error(err))
		}
		checks["registry"] = registry.Ping
	}
	catalog := service.NewCatalogService(seed, logr)
	logr.Info("catalog loaded",
		zap.Int("rooms", len(seed.Rooms)),
		zap.Int("teachers", len(seed.Teachers)),
		zap.Int("programs", len(seed.Curriculum)),
		zap.Bool("registry", cfg.Registry.Enabled),
	)

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, recommendation cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, "planner:")
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
			checks["cache"] = cacheRepo.Ping
		}
	}

	var hub *realtime.Hub
	var publisher service.EventPublisher
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(cfg.CORS.AllowedOrigins, metrics, logr)
		publisher = hub
	}

	store := service.NewTimetableStore(catalog, logr)
	schedulingSvc := service.NewSchedulingService(catalog, store, cacheSvc, metrics, publisher, validate, cfg.Scheduler.SessionHours, logr)
	recommendationSvc := service.NewRecommendationService(catalog, cacheSvc, metrics, validate, cfg.Scheduler.RecommendationLimit, logr)
	studentSvc := service.NewStudentService(0)

	uploads, err := storage.NewLocalStorage(cfg.Imports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare import storage", zap.Error(err))
	}
	importSvc := service.NewImportService(catalog, studentSvc, uploads, metrics, publisher, logr)
	importQueue := jobs.NewQueue("imports", importSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Imports.Workers,
		MaxRetries: cfg.Imports.Retries,
		OnGiveUp:   importSvc.GiveUp,
		Logger:     logr,
	})
	importQueue.Start(ctx)
	defer importQueue.Stop()
	importSvc.AttachQueue(importQueue)

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(store, exportFiles, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)
	go runJanitor(ctx, cfg.Exports.SignedURLTTL, exportSvc, uploads, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var guard []gin.HandlerFunc
	if cfg.JWT.Enabled {
		auth := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
		guard = append(guard, middleware.JWT(auth), middleware.Planners())
	}
	protected := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), h)
	}

	catalogHandler := handler.NewCatalogHandler(catalog)
	recommendationHandler := handler.NewRecommendationHandler(recommendationSvc)
	timetableHandler := handler.NewTimetableHandler(schedulingSvc, exportSvc)
	importHandler := handler.NewImportHandler(importSvc, cfg.Imports.MaxFileSizeBytes)
	dashboardHandler := handler.NewDashboardHandler(studentSvc, service.Predict)

	api := r.Group(cfg.APIPrefix)
	api.GET("/catalog/rooms", catalogHandler.Rooms)
	api.GET("/catalog/teachers", catalogHandler.Teachers)
	api.GET("/catalog/programs", catalogHandler.Programs)
	api.GET("/catalog/programs/:program/levels/:level/subjects", catalogHandler.Subjects)

	api.POST("/recommendations", recommendationHandler.Recommend)

	api.GET("/timetable", timetableHandler.Timetable)
	api.POST("/timetable/entries", protected(timetableHandler.Schedule)...)
	api.POST("/timetable/exports", protected(timetableHandler.Export)...)
	api.GET("/exports/:token", timetableHandler.Download)

	api.POST("/imports/teachers", protected(importHandler.ImportTeachers)...)
	api.POST("/imports/students", protected(importHandler.ImportStudents)...)
	api.GET("/imports/:id", importHandler.Job)

	api.GET("/dashboard", dashboardHandler.Dashboard)
	api.POST("/predictions", dashboardHandler.Predict)

	if hub != nil {
		api.GET("/ws", hub.ServeWS)
	}

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
	if hub != nil {
		hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type exportJanitor interface {
	Cleanup()
}

type uploadJanitor interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// runJanitor prunes expired exports and processed uploads until ctx ends.
func runJanitor(ctx context.Context, every time.Duration, exports exportJanitor, uploads uploadJanitor, logr *zap.Logger) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exports.Cleanup()
			if removed, err := uploads.CleanupOlderThan(uploadRetention); err != nil {
				logr.Warn("upload cleanup failed", zap.Error(err))
			} else if len(removed) > 0 {
				logr.Info("uploads cleaned up", zap.Int("files", len(removed)))
			}
		}
	}
}
