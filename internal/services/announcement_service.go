package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementService manages the club's information center. All mutations
// go through the audit writer.
type AnnouncementService struct {
	db       *gorm.DB
	writer   *audit.Writer
	notifier *NotificationService
}

func NewAnnouncementService(db *gorm.DB, writer *audit.Writer, notifier *NotificationService) *AnnouncementService {
	return &AnnouncementService{db: db, writer: writer, notifier: notifier}
}

// List returns announcements, pinned first. Unpublished drafts are only
// included for staff.
func (s *AnnouncementService) List(includeUnpublished bool) ([]models.Announcement, error) {
	var announcements []models.Announcement
	query := s.db.Order("pinned desc, created_at desc")
	if !includeUnpublished {
		query = query.Where("published_at IS NOT NULL AND published_at <= ?", time.Now())
	}
	return announcements, query.Find(&announcements).Error
}

func (s *AnnouncementService) Get(id string) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := s.db.First(&announcement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	return &announcement, nil
}

// AnnouncementInput carries the caller-editable announcement fields.
type AnnouncementInput struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Category string `json:"category"`
	Pinned   bool   `json:"pinned"`
	Publish  bool   `json:"publish"`
}

// Create inserts an announcement through the audit writer, optionally
// publishing it immediately.
func (s *AnnouncementService) Create(ctx audit.Context, role models.Role, input AnnouncementInput) (*models.Announcement, error) {
	now := time.Now()
	row := map[string]interface{}{
		"id":         uuid.NewString(),
		"title":      input.Title,
		"body":       input.Body,
		"category":   input.Category,
		"pinned":     input.Pinned,
		"author_id":  ctx.UserID,
		"created_at": now,
		"updated_at": now,
	}
	if input.Publish {
		row["published_at"] = now
	}

	inserted, err := s.writer.InsertWithAudit("announcements", row, ctx, role)
	if err != nil {
		return nil, err
	}

	id, _ := inserted["id"].(string)
	announcement, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if announcement.Published() {
		s.notifier.Broadcast(models.NotificationTypeInfo, announcement.Title, summarize(announcement.Body))
	}
	return announcement, nil
}

// Update applies field changes through the audit writer.
func (s *AnnouncementService) Update(ctx audit.Context, role models.Role, id string, changes map[string]interface{}) (*models.Announcement, error) {
	wasPublished := false
	if existing, err := s.Get(id); err == nil {
		wasPublished = existing.Published()
	}

	if _, err := s.writer.UpdateWithAudit("announcements", id, changes, ctx, role); err != nil {
		return nil, err
	}

	announcement, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !wasPublished && announcement.Published() {
		s.notifier.Broadcast(models.NotificationTypeInfo, announcement.Title, summarize(announcement.Body))
	}
	return announcement, nil
}

// Delete removes an announcement. Admin only, enforced by the writer.
func (s *AnnouncementService) Delete(ctx audit.Context, role models.Role, id string) error {
	return s.writer.DeleteWithAudit("announcements", id, ctx, role)
}

func summarize(body string) string {
	const limit = 200
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "…"
}
