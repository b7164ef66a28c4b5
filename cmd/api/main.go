package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cshaw-hub/hub-api/api/swagger"
	"github.com/cshaw-hub/hub-api/internal/handler"
	"github.com/cshaw-hub/hub-api/internal/middleware"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/internal/repository"
	"github.com/cshaw-hub/hub-api/internal/service"
	"github.com/cshaw-hub/hub-api/pkg/cache"
	"github.com/cshaw-hub/hub-api/pkg/config"
	"github.com/cshaw-hub/hub-api/pkg/database"
	"github.com/cshaw-hub/hub-api/pkg/logger"
	corsmiddleware "github.com/cshaw-hub/hub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cshaw-hub/hub-api/pkg/middleware/requestid"
)

// @title C-SHAW Hub API
// @version 1.0.0
// @description Volunteer hours and attendance platform for the C-SHAW programme
// @BasePath /api
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, roster caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	signupRepo := repository.NewSignupRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, cfg.Auth.AdminCode, logr)
	activitySvc := service.NewActivityService(activityRepo, signupRepo, logr)
	attendanceSvc := service.NewAttendanceService(signupRepo, activityRepo, cacheRepo, logr)
	statsSvc := service.NewStatsService(signupRepo, cacheRepo, cfg.Milestones, cfg.Roster.CacheTTL, logr)
	reportSvc := service.NewReportService(reportRepo, activityRepo, signupRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login/", authHandler.Login)
	auth.POST("/register/", authHandler.Register)
	auth.GET("/me/", middleware.JWT(authSvc), authHandler.Me)

	activities := api.Group("/activities")
	activities.GET("/", activityHandler.List)
	activities.GET("/:id/", activityHandler.Get)

	authed := activities.Group("", middleware.JWT(authSvc))
	authed.POST("/:id/signup/", activityHandler.Signup)
	authed.DELETE("/:id/signup/", activityHandler.CancelSignup)

	staff := activities.Group("", middleware.JWT(authSvc),
		middleware.RequireRoles(models.RoleCoordinator, models.RoleExecutive))
	staff.POST("/", activityHandler.Create)
	staff.PATCH("/:id/", activityHandler.Update)
	staff.DELETE("/:id/", activityHandler.Delete)
	staff.GET("/:id/rsvps/", attendanceHandler.ListRecords)
	staff.POST("/:id/bulk_signout/", attendanceHandler.BulkSignout)

	attendance := api.Group("/attendance", middleware.JWT(authSvc),
		middleware.RequireRoles(models.RoleCoordinator, models.RoleExecutive))
	attendance.POST("/:id/", attendanceHandler.Transition)

	stats := api.Group("/stats", middleware.JWT(authSvc))
	stats.GET("/me/", statsHandler.MyStats)

	staffStats := stats.Group("", middleware.RequireRoles(models.RoleCoordinator, models.RoleExecutive))
	staffStats.GET("/students/:id/", statsHandler.StudentStats)
	staffStats.GET("/roster/", statsHandler.Roster)
	staffStats.GET("/milestones/", statsHandler.Milestones)

	if cfg.Reports.Enabled {
		reports := api.Group("/reports", middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleCoordinator, models.RoleExecutive))
		reports.GET("/events/:id/", reportHandler.EventReport)
		reports.GET("/events/:id/export/", reportHandler.Export)
		reports.GET("/quarterly/", reportHandler.Quarterly)
		reports.GET("/quarterly/export/", reportHandler.ExportQuarterly)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
