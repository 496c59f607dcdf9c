package services

import (
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/logger"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

// NotificationService writes in-app notification rows and pushes important
// club news to external channels (Discord, Telegram, email gateways) via
// shoutrrr URLs.
type NotificationService struct {
	DB *gorm.DB

	// externalURLs are shoutrrr service URLs; empty means in-app only.
	externalURLs []string
}

func NewNotificationService(db *gorm.DB, externalURLs ...string) *NotificationService {
	var urls []string
	for _, u := range externalURLs {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return &NotificationService{DB: db, externalURLs: urls}
}

// Notify creates an in-app notification for one user.
func (s *NotificationService) Notify(userID string, nType models.NotificationType, title, message string) {
	notification := models.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
	}
	if err := s.DB.Create(&notification).Error; err != nil {
		logger.Log().WithError(err).Warn("create notification failed")
	}
}

// Broadcast creates a club-wide in-app notification and pushes it externally.
func (s *NotificationService) Broadcast(nType models.NotificationType, title, message string) {
	s.Notify("", nType, title, message)
	s.SendExternal(title, message)
}

// List returns notifications visible to userID: their own plus broadcasts.
func (s *NotificationService) List(userID string, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Where("user_id = ? OR user_id = ?", userID, "").Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(id string) error {
	return s.DB.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

func (s *NotificationService) MarkAllAsRead(userID string) error {
	return s.DB.Model(&models.Notification{}).
		Where("(user_id = ? OR user_id = ?) AND read = ?", userID, "", false).
		Update("read", true).Error
}

// SendExternal pushes a message to all configured shoutrrr URLs. Delivery is
// fire-and-forget; failures are logged only.
func (s *NotificationService) SendExternal(title, message string) {
	if len(s.externalURLs) == 0 {
		return
	}

	body := title + "\n" + message + "\n" + time.Now().Format(time.RFC3339)
	for _, url := range s.externalURLs {
		go func(target string) {
			if err := shoutrrr.Send(target, body); err != nil {
				logger.WithFields(map[string]interface{}{
					"service": redactURL(target),
				}).WithError(err).Warn("external notification failed")
			}
		}(url)
	}
}

// redactURL keeps only the scheme so tokens never land in logs.
func redactURL(url string) string {
	if idx := strings.Index(url, "://"); idx > 0 {
		return url[:idx]
	}
	return "unknown"
}
