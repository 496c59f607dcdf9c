package routes

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/api/handlers"
	"github.com/fairwayhq/fairway/backend/internal/api/middleware"
	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/config"
	"github.com/fairwayhq/fairway/backend/internal/metrics"
	"github.com/fairwayhq/fairway/backend/internal/models"
	"github.com/fairwayhq/fairway/backend/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventRegistration{},
		&models.Announcement{},
		&models.Transaction{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics.Register(registry)

	router.GET("/api/v1/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Audit plumbing shared by every service that mutates club data.
	writer := audit.NewWriter(db, audit.DefaultPolicy(), audit.NewDatabaseSink(db))
	writer.Strict = cfg.AuditStrict

	notificationService := services.NewNotificationService(db, externalNotifyURLs()...)
	authService := services.NewAuthService(db, cfg)
	eventService := services.NewEventService(db, writer, notificationService)
	announcementService := services.NewAnnouncementService(db, writer, notificationService)
	financeService := services.NewFinanceService(db, writer)
	memberService := services.NewMemberService(db, writer)

	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(db, eventService)
	announcementHandler := handlers.NewAnnouncementHandler(db, announcementService)
	financeHandler := handlers.NewFinanceHandler(db, financeService)
	memberHandler := handlers.NewMemberHandler(db, memberService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	auditHandler := handlers.NewAuditHandler(db)

	api := router.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	admin := string(models.RoleAdmin)
	editor := string(models.RoleEditor)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// Events
		protected.GET("/events", eventHandler.List)
		protected.GET("/events/:id", eventHandler.Get)
		protected.POST("/events", middleware.RequireRole(admin, editor), eventHandler.Create)
		protected.PUT("/events/:id", middleware.RequireRole(admin, editor), eventHandler.Update)
		protected.POST("/events/:id/cancel", middleware.RequireRole(admin, editor), eventHandler.Cancel)
		protected.DELETE("/events/:id", middleware.RequireRole(admin), eventHandler.Delete)

		// Registrations
		protected.POST("/events/:id/register", eventHandler.Register)
		protected.DELETE("/events/:id/register", eventHandler.Unregister)
		protected.GET("/events/:id/registrations", middleware.RequireRole(admin, editor), eventHandler.Registrations)
		protected.PUT("/registrations/:id", eventHandler.UpdateRegistration)
		protected.POST("/registrations/batch", middleware.RequireRole(admin), eventHandler.BatchUpdateRegistrations)

		// Announcements
		protected.GET("/announcements", announcementHandler.List)
		protected.GET("/announcements/:id", announcementHandler.Get)
		protected.POST("/announcements", middleware.RequireRole(admin, editor), announcementHandler.Create)
		protected.PUT("/announcements/:id", middleware.RequireRole(admin, editor), announcementHandler.Update)
		protected.DELETE("/announcements/:id", middleware.RequireRole(admin), announcementHandler.Delete)

		// Finance
		protected.GET("/finance", middleware.RequireRole(admin), financeHandler.List)
		protected.POST("/finance", middleware.RequireRole(admin), financeHandler.Create)
		protected.PUT("/finance/:id", middleware.RequireRole(admin), financeHandler.Update)
		protected.DELETE("/finance/:id", middleware.RequireRole(admin), financeHandler.Delete)
		protected.GET("/finance/summary", middleware.RequireRole(admin), financeHandler.Summary)

		// Members
		protected.GET("/members", middleware.RequireRole(admin), memberHandler.List)
		protected.PUT("/members/:id", memberHandler.Update)
		protected.DELETE("/members/:id", middleware.RequireRole(admin), memberHandler.Delete)

		// Notifications
		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

		// Audit trail
		protected.GET("/audit", middleware.RequireRole(admin), auditHandler.List)
	}

	return nil
}

// externalNotifyURLs reads shoutrrr service URLs from the environment.
func externalNotifyURLs() []string {
	raw := os.Getenv("FAIRWAY_NOTIFY_URLS")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
