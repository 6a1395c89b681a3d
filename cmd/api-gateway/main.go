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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 0.1.0
// @description Room scheduling and teacher substitution service
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

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheSvc = service.NewCacheService(redisClient, cfg.Cache.TTL, metricsSvc, logr)
		}
	}

	sessionRepo := repository.NewSessionRepository(db)
	substituteRepo := repository.NewSubstituteRepository(db)

	validate := validator.New()
	checker := service.NewConflictChecker()
	sessionSvc := service.NewSessionService(sessionRepo, checker, cacheSvc, validate, logr)
	substituteSvc := service.NewSubstituteService(substituteRepo, sessionRepo, checker, cacheSvc, service.SystemClock(), validate, logr)
	exportSvc := service.NewExportService(sessionRepo, logr)

	sessionHandler := handler.NewSessionHandler(sessionSvc, metricsSvc)
	substituteHandler := handler.NewSubstituteHandler(substituteSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	api.GET("/sessions", sessionHandler.List)
	api.GET("/sessions/:id", sessionHandler.Get)
	api.GET("/rooms/:id/sessions", sessionHandler.ListByRoom)
	api.GET("/teachers/:id/sessions", sessionHandler.ListByTeacher)
	api.GET("/days/:day/sessions", sessionHandler.ListByWeekday)
	api.GET("/subjects/:id/sessions", sessionHandler.ListBySubject)
	api.GET("/substitutes", substituteHandler.List)
	api.GET("/substitutes/active", substituteHandler.ListActive)
	api.GET("/substitutes/:id", substituteHandler.Get)
	api.GET("/teachers/:id/substitute", substituteHandler.GetActiveForTeacher)
	api.GET("/teachers/:id/substitutes", substituteHandler.ListForTeacher)
	if cfg.Exports.Enabled {
		api.GET("/rooms/:id/timetable/export", exportHandler.ExportRoomTimetable)
	}

	scheduling := api.Group("")
	scheduling.Use(middleware.RequireRole(models.RoleAdmin, models.RoleScheduler))
	scheduling.POST("/sessions", sessionHandler.Create)
	scheduling.PUT("/sessions/:id", sessionHandler.Update)
	scheduling.DELETE("/sessions/:id", sessionHandler.Delete)
	scheduling.POST("/substitutes", substituteHandler.Create)
	scheduling.POST("/substitutes/:id/end", substituteHandler.End)
	scheduling.POST("/substitutes/process-expired", substituteHandler.ProcessExpired)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Substitutes.SweepEnabled {
		sweeper := jobs.NewRunner("substitute-expiry", func(ctx context.Context) error {
			expired, err := substituteSvc.ProcessExpiredSubstitutes(ctx)
			if err != nil {
				return err
			}
			metricsSvc.RecordExpiredSubstitutes(len(expired))
			return nil
		}, jobs.RunnerConfig{Interval: cfg.Substitutes.SweepInterval, RunAtStart: true, Logger: logr})
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
