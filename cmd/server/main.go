// cmd/server/main.go - Free State Service Delivery Backend Server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freestate-servicedelivery/internal/config"
	"freestate-servicedelivery/internal/database"
	"freestate-servicedelivery/internal/handlers"
	"freestate-servicedelivery/internal/middleware"
	"freestate-servicedelivery/internal/models"
	"freestate-servicedelivery/internal/reference"
	"freestate-servicedelivery/internal/services"
	"freestate-servicedelivery/pkg/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var appVersion = "1.0.0"

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	logrus.WithFields(logrus.Fields{
		"version":  appVersion,
		"env":      cfg.Env,
		"database": cfg.DatabaseName,
	}).Info("Free State Service Delivery backend starting")

	// MongoDB
	db, err := database.NewMongoDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Error disconnecting from MongoDB")
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		logrus.WithError(err).Warn("Failed to create some indexes")
	}
	cancelIndex()

	// Redis is optional; without it the per-resident submission limit
	// is simply not enforced.
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis, issue submission limiter disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ref := reference.Defaults()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiration)*time.Hour)

	// Services
	userService := services.NewUserService(db.Database)
	issueService := services.NewIssueService(db.Database.Collection("issues"), ref)
	announcementService := services.NewAnnouncementService(db.Database)
	jobseekerService := services.NewJobseekerService(db.Database)
	notificationService := services.NewNotificationService(db.Database)
	narrator := services.NewNarrator(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel)

	if cfg.SeedOnStartup {
		seedCtx, cancelSeed := context.WithTimeout(context.Background(), 60*time.Second)
		if err := services.NewSeeder(db.Database, ref).Run(seedCtx); err != nil {
			logrus.WithError(err).Warn("Seeding failed")
		}
		cancelSeed()
	}

	// Handlers
	wsHandler := handlers.NewWebSocketHandler(jwtManager)
	wsHandler.StartHub()

	authHandler := handlers.NewAuthHandler(userService, jwtManager, ref)
	issueHandler := handlers.NewIssueHandler(issueService, userService, notificationService, wsHandler)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService, notificationService)
	jobseekerHandler := handlers.NewJobseekerHandler(jobseekerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	statsHandler := handlers.NewStatsHandler(issueService, userService, ref)
	narrationHandler := handlers.NewNarrationHandler(narrator, issueService, ref)

	router := setupRouter(cfg, routerDeps{
		jwtManager:    jwtManager,
		redis:         redisClient,
		auth:          authHandler,
		issues:        issueHandler,
		announcements: announcementHandler,
		jobseekers:    jobseekerHandler,
		notifications: notificationHandler,
		stats:         statsHandler,
		narration:     narrationHandler,
		ws:            wsHandler,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("Server forced to shutdown")
	} else {
		logrus.Info("Server stopped")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	}
}

type routerDeps struct {
	jwtManager    *auth.JWTManager
	redis         *redis.Client
	auth          *handlers.AuthHandler
	issues        *handlers.IssueHandler
	announcements *handlers.AnnouncementHandler
	jobseekers    *handlers.JobseekerHandler
	notifications *handlers.NotificationHandler
	stats         *handlers.StatsHandler
	narration     *handlers.NarrationHandler
	ws            *handlers.WebSocketHandler
}

func setupRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindow)*time.Second)
		router.Use(limiter.RateLimit())
	}

	router.GET("/ws", deps.ws.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": appVersion})
	})

	api := router.Group("/api/v1")
	{
		// Public
		api.POST("/auth/login", deps.auth.Login)
		api.POST("/auth/register", deps.auth.Register)
		api.GET("/reference", deps.auth.Reference)
		api.GET("/transparency", deps.stats.Transparency)
		api.GET("/transparency/narration", deps.narration.TransparencyReport)

		// Authenticated
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.jwtManager))
		{
			protected.GET("/auth/me", deps.auth.Me)

			issues := protected.Group("/issues")
			{
				create := issues.Group("")
				create.Use(middleware.RequirePermission(models.PermissionReportIssue))
				if deps.redis != nil {
					create.Use(middleware.IssueSubmitLimiter(deps.redis, cfg.IssueSubmitLimit))
				}
				create.POST("", deps.issues.Create)

				issues.GET("", deps.issues.List)
				issues.GET("/:id", deps.issues.Get)
				issues.PATCH("/:id/status", middleware.RequirePermission(models.PermissionUpdateStatus), deps.issues.UpdateStatus)
				issues.POST("/:id/assign", deps.issues.Assign)
				issues.POST("/:id/photos", middleware.RequirePermission(models.PermissionAddWorkPhoto), deps.issues.AddWorkPhoto)
				issues.POST("/:id/comments", deps.issues.AddComment)
				issues.POST("/:id/rating", middleware.RequirePermission(models.PermissionRateIssue), deps.issues.Rate)
			}

			announcements := protected.Group("/announcements")
			{
				announcements.GET("", deps.announcements.List)
				announcements.POST("", middleware.RequirePermission(models.PermissionCreateAnnouncement), deps.announcements.Create)
				announcements.DELETE("/:id", deps.announcements.Delete)
			}

			jobseekers := protected.Group("/jobseekers")
			{
				jobseekers.PUT("/me", deps.jobseekers.Register)
				jobseekers.DELETE("/me", deps.jobseekers.Deregister)
				jobseekers.GET("/me", deps.jobseekers.Status)
				jobseekers.GET("", middleware.RequirePermission(models.PermissionViewJobseekers), deps.jobseekers.List)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", deps.notifications.List)
				notifications.POST("/:id/read", deps.notifications.MarkRead)
				notifications.POST("/read-all", deps.notifications.MarkAllRead)
			}

			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/resident", middleware.RequireAnyRole(models.RoleResident), deps.stats.ResidentDashboard)
				dashboard.GET("/councillor", middleware.RequireAnyRole(models.RoleWardCouncillor), deps.stats.CouncillorDashboard)
				dashboard.GET("/official", middleware.RequireAnyRole(models.RoleMunicipalOfficial), deps.stats.OfficialDashboard)
				dashboard.GET("/worker", middleware.RequireAnyRole(models.RoleMunicipalWorker), deps.stats.WorkerDashboard)
				dashboard.GET("/executive", middleware.RequireAnyRole(models.RoleExecutive, models.RoleAdmin), deps.stats.ExecutiveDashboard)
				dashboard.GET("/admin", middleware.RequireAnyRole(models.RoleAdmin), deps.stats.AdminDashboard)
			}

			ai := protected.Group("/ai")
			{
				ai.POST("/suggest-category", deps.narration.SuggestCategory)
				ai.GET("/councillor-briefing", middleware.RequireAnyRole(models.RoleWardCouncillor), deps.narration.CouncillorBriefing)
				ai.GET("/executive-summary", middleware.RequireAnyRole(models.RoleExecutive, models.RoleAdmin), deps.narration.ExecutiveSummary)
				ai.GET("/ward-health", middleware.RequireStaff(), deps.narration.WardHealth)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "path": c.Request.URL.Path})
	})

	return router
}
