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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/schedule-builder-api/api/swagger"
	"github.com/noah-isme/schedule-builder-api/internal/handler"
	"github.com/noah-isme/schedule-builder-api/internal/middleware"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	"github.com/noah-isme/schedule-builder-api/internal/repository"
	"github.com/noah-isme/schedule-builder-api/internal/service"
	"github.com/noah-isme/schedule-builder-api/pkg/cache"
	"github.com/noah-isme/schedule-builder-api/pkg/config"
	"github.com/noah-isme/schedule-builder-api/pkg/database"
	"github.com/noah-isme/schedule-builder-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/schedule-builder-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/schedule-builder-api/pkg/middleware/requestid"
)

// @title Schedule Builder API
// @version 1.0.0
// @description Course catalog and student schedule planning service
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Catalog.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "schedule-builder:", logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)

	sessionSvc := service.NewSessionService(service.SessionConfig{
		Secret:   cfg.Session.Secret,
		Expiry:   cfg.Session.Expiration,
		AdminKey: cfg.Session.AdminKey,
	}, logr)
	catalogSvc := service.NewCatalogService(repository.NewCourseRepository(db), cacheSvc, validate, logr, service.CatalogConfig{
		GridStartHour: cfg.Grid.StartHour,
		GridEndHour:   cfg.Grid.EndHour,
		CacheTTL:      cfg.Catalog.CacheTTL,
	})
	workspaceSvc := service.NewWorkspaceService(repository.NewWorkspaceRepository(db), catalogSvc, cacheSvc, metricsSvc, validate, logr, service.WorkspaceConfig{
		SnapshotTTL: cfg.Catalog.CacheTTL,
	})
	exportSvc := service.NewExportService(workspaceSvc, metricsSvc, logr, service.ExportConfig{
		SemesterStart: cfg.Export.SemesterStart,
		Weeks:         cfg.Export.Weeks,
	}, nil, nil, nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeHandlers{
		session:   handler.NewSessionHandler(sessionSvc),
		catalog:   handler.NewCatalogHandler(catalogSvc),
		workspace: handler.NewWorkspaceHandler(workspaceSvc),
		export:    handler.NewExportHandler(exportSvc),
		metrics:   metricsHandler,
	}, middleware.JWT(sessionSvc))

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeHandlers struct {
	session   *handler.SessionHandler
	catalog   *handler.CatalogHandler
	workspace *handler.WorkspaceHandler
	export    *handler.ExportHandler
	metrics   *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers, auth gin.HandlerFunc) {
	admin := middleware.RequireRoles(models.RoleAdmin)

	api.POST("/sessions", h.session.Create)

	api.GET("/courses", h.catalog.List)
	api.GET("/courses/:code", h.catalog.Get)
	api.POST("/courses", auth, admin, h.catalog.Import)
	api.DELETE("/courses/:code", auth, admin, h.catalog.Delete)

	api.GET("/admin/metrics", auth, admin, h.metrics.Summary)

	secured := api.Group("")
	secured.Use(auth)
	secured.GET("/workspace", h.workspace.Get)
	secured.PUT("/workspace/courses", h.workspace.SetCourses)

	schedules := secured.Group("/schedules")
	schedules.POST("", h.workspace.CreateSchedule)
	schedules.GET("/compare", h.workspace.Compare)
	schedules.PUT("/active", h.workspace.ActivateSchedule)
	schedules.PUT("/active/selection", h.workspace.SetSelection)
	schedules.POST("/active/reset", h.workspace.ResetSelection)
	schedules.POST("/active/toggle", h.workspace.ToggleSection)
	schedules.GET("/active/snapshot", h.workspace.Snapshot)
	schedules.POST("/active/recommendations/apply", h.workspace.ApplyRecommendation)
	schedules.GET("/active/lectures/:code/adjacent", h.workspace.AdjacentLectures)
	schedules.DELETE("/:id", h.workspace.DeleteSchedule)
	schedules.POST("/:id/duplicate", h.workspace.DuplicateSchedule)
	schedules.GET("/:id/export", h.export.Export)
}
