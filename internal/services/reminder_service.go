package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/logger"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

// ReminderService nudges registered members shortly before an event's
// registration deadline closes. It runs as a daily cron job and records one
// aggregate audit entry per sweep.
type ReminderService struct {
	db       *gorm.DB
	writer   *audit.Writer
	notifier *NotificationService
	cron     *cron.Cron
}

func NewReminderService(db *gorm.DB, writer *audit.Writer, notifier *NotificationService) *ReminderService {
	return &ReminderService{db: db, writer: writer, notifier: notifier}
}

// Start schedules the daily sweep. Call Stop on shutdown.
func (s *ReminderService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("0 7 * * *", func() {
		if _, err := s.RunOnce(time.Now()); err != nil {
			logger.Log().WithError(err).Error("reminder sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce sends deadline reminders for published events whose registration
// closes within the next 24 hours. Returns the number of reminders sent.
func (s *ReminderService) RunOnce(now time.Time) (int, error) {
	var events []models.Event
	if err := s.db.Where(
		"status = ? AND registration_deadline IS NOT NULL AND registration_deadline > ? AND registration_deadline <= ?",
		models.EventStatusPublished, now, now.Add(24*time.Hour),
	).Find(&events).Error; err != nil {
		return 0, fmt.Errorf("scan events: %w", err)
	}

	sent := 0
	for _, event := range events {
		s.notifier.Broadcast(models.NotificationTypeInfo,
			"Last call: "+event.Title,
			fmt.Sprintf("Registration closes %s.", event.RegistrationDeadline.Format("Mon 2 Jan 15:04")))
		sent++
	}

	if sent > 0 {
		sweepCtx := audit.Context{UserID: "system", UserAgent: "reminder-scheduler"}
		_ = s.writer.LogBatchOperation("events", "BATCH_REMINDER", sent, map[string]interface{}{
			"window_hours": 24,
		}, sweepCtx)
	}
	return sent, nil
}
