package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/config"
	"github.com/fairwayhq/fairway/backend/internal/database"
	"github.com/fairwayhq/fairway/backend/internal/logger"
	"github.com/fairwayhq/fairway/backend/internal/models"
	"github.com/fairwayhq/fairway/backend/internal/server"
	"github.com/fairwayhq/fairway/backend/internal/services"
	"github.com/fairwayhq/fairway/backend/internal/version"
)

func main() {
	// Setup logging with rotation
	logDir := "/app/data/logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback to local directory if /app/data fails (e.g. local dev)
		logDir = "data/logs"
		_ = os.MkdirAll(logDir, 0755)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "fairway.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	// Log to both stdout and file
	mw := io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(mw)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(cfg.Environment == "development", mw)

	// Handle CLI commands
	if len(os.Args) > 1 && os.Args[1] == "reset-password" {
		if len(os.Args) != 4 {
			log.Fatalf("Usage: %s reset-password <email> <new-password>", os.Args[0])
		}
		resetPassword(cfg, os.Args[2], os.Args[3])
		return
	}

	log.Printf("starting %s backend version %s", version.Name, version.Full())

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		log.Fatalf("setup server: %v", err)
	}

	writer := audit.NewWriter(db, audit.DefaultPolicy(), audit.NewDatabaseSink(db))
	writer.Strict = cfg.AuditStrict
	notifier := services.NewNotificationService(db)
	reminders := services.NewReminderService(db, writer, notifier)
	if err := reminders.Start(); err != nil {
		log.Fatalf("start reminder scheduler: %v", err)
	}
	defer reminders.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func resetPassword(cfg config.Config, email, newPassword string) {
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	if err := user.SetPassword(newPassword); err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	// Unlock account if locked
	user.LockedUntil = nil
	user.FailedLoginAttempts = 0

	if err := db.Save(&user).Error; err != nil {
		log.Fatalf("failed to save user: %v", err)
	}

	log.Printf("Password updated successfully for user %s", email)
}
