package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/metrics"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrRegistrationClosed  = errors.New("registration closed")
	ErrAlreadyRegistered   = errors.New("already registered for this event")
	ErrRegistrationMissing = errors.New("registration not found")
)

// EventService manages club events and registrations. Administrative
// mutations (event fields, payment status) go through the audit writer;
// member self-service actions (registering, cancelling one's own spot) are
// plain writes.
type EventService struct {
	db       *gorm.DB
	writer   *audit.Writer
	notifier *NotificationService
}

func NewEventService(db *gorm.DB, writer *audit.Writer, notifier *NotificationService) *EventService {
	return &EventService{db: db, writer: writer, notifier: notifier}
}

// List returns events, optionally including drafts (staff view).
func (s *EventService) List(includeDrafts bool) ([]models.Event, error) {
	var events []models.Event
	query := s.db.Order("starts_at")
	if !includeDrafts {
		query = query.Where("status <> ?", models.EventStatusDraft)
	}
	return events, query.Find(&events).Error
}

// Get fetches one event by id.
func (s *EventService) Get(id string) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// EventInput carries the caller-editable event fields.
type EventInput struct {
	Title                string     `json:"title" binding:"required"`
	Description          string     `json:"description"`
	Location             string     `json:"location"`
	StartsAt             time.Time  `json:"starts_at" binding:"required"`
	EndsAt               *time.Time `json:"ends_at"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	Capacity             int        `json:"capacity"`
	FeeCents             int64      `json:"fee_cents"`
	Status               string     `json:"status"`
}

// Create inserts a new event through the audit writer.
func (s *EventService) Create(ctx audit.Context, role models.Role, input EventInput) (*models.Event, error) {
	status := input.Status
	if status == "" {
		status = string(models.EventStatusDraft)
	}

	now := time.Now()
	row := map[string]interface{}{
		"id":          uuid.NewString(),
		"title":       input.Title,
		"description": input.Description,
		"location":    input.Location,
		"starts_at":   input.StartsAt,
		"capacity":    input.Capacity,
		"status":      status,
		"created_by":  ctx.UserID,
		"created_at":  now,
		"updated_at":  now,
	}
	if input.EndsAt != nil {
		row["ends_at"] = *input.EndsAt
	}
	if input.RegistrationDeadline != nil {
		row["registration_deadline"] = *input.RegistrationDeadline
	}
	if input.FeeCents != 0 {
		row["fee_cents"] = input.FeeCents
	}

	inserted, err := s.writer.InsertWithAudit("events", row, ctx, role)
	if err != nil {
		return nil, err
	}

	id, _ := inserted["id"].(string)
	event, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if event.Status == models.EventStatusPublished {
		s.notifier.Broadcast(models.NotificationTypeInfo, "New event: "+event.Title,
			fmt.Sprintf("%s on %s", event.Title, event.StartsAt.Format("Mon 2 Jan 2006")))
	}
	return event, nil
}

// Update applies field changes through the audit writer.
func (s *EventService) Update(ctx audit.Context, role models.Role, id string, changes map[string]interface{}) (*models.Event, error) {
	if _, err := s.writer.UpdateWithAudit("events", id, changes, ctx, role); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Cancel marks an event cancelled and notifies registered members.
func (s *EventService) Cancel(ctx audit.Context, role models.Role, id string) (*models.Event, error) {
	event, err := s.Update(ctx, role, id, map[string]interface{}{
		"status": string(models.EventStatusCancelled),
	})
	if err != nil {
		return nil, err
	}

	var regs []models.EventRegistration
	if err := s.db.Where("event_id = ? AND status <> ?", id, models.RegistrationStatusCancelled).Find(&regs).Error; err == nil {
		for _, reg := range regs {
			s.notifier.Notify(reg.UserID, models.NotificationTypeWarning,
				"Event cancelled: "+event.Title, "Your registration is no longer needed.")
		}
	}
	return event, nil
}

// Delete removes an event entirely. Admin only, enforced by the writer.
func (s *EventService) Delete(ctx audit.Context, role models.Role, id string) error {
	return s.writer.DeleteWithAudit("events", id, ctx, role)
}

// Register signs a member up for an event. When capacity is reached the
// registration lands on the waitlist instead of failing.
func (s *EventService) Register(eventID, userID string, guests int, notes string) (*models.EventRegistration, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}
	if !event.RegistrationOpen(time.Now()) {
		return nil, ErrRegistrationClosed
	}

	var existing models.EventRegistration
	err = s.db.Where("event_id = ? AND user_id = ? AND status <> ?",
		eventID, userID, models.RegistrationStatusCancelled).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status := models.RegistrationStatusRegistered
	if event.Capacity > 0 {
		var taken int64
		if err := s.db.Model(&models.EventRegistration{}).
			Where("event_id = ? AND status = ?", eventID, models.RegistrationStatusRegistered).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken >= int64(event.Capacity) {
			status = models.RegistrationStatusWaitlisted
		}
	}

	reg := models.EventRegistration{
		ID:      uuid.NewString(),
		EventID: eventID,
		UserID:  userID,
		Status:  status,
		Guests:  guests,
		Notes:   notes,
		Version: 1,
	}
	if err := s.db.Create(&reg).Error; err != nil {
		return nil, err
	}
	metrics.IncRegistration()
	return &reg, nil
}

// Unregister cancels the member's own registration.
func (s *EventService) Unregister(eventID, userID string) error {
	res := s.db.Model(&models.EventRegistration{}).
		Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, models.RegistrationStatusCancelled).
		Updates(map[string]interface{}{"status": models.RegistrationStatusCancelled})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRegistrationMissing
	}
	return nil
}

// Registrations lists registrations for an event.
func (s *EventService) Registrations(eventID string) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	return regs, s.db.Where("event_id = ?", eventID).Order("created_at").Find(&regs).Error
}

// UpdateRegistration applies administrative changes (payment status, notes)
// through the audit writer, field permissions included.
func (s *EventService) UpdateRegistration(ctx audit.Context, role models.Role, id string, changes map[string]interface{}) (map[string]interface{}, error) {
	return s.writer.UpdateWithAudit("event_registrations", id, changes, ctx, role)
}

// BatchUpdateRegistrations reconciles many registrations at once, e.g. after
// an offline payment run. Per-record failures are reported, not fatal.
func (s *EventService) BatchUpdateRegistrations(ctx audit.Context, role models.Role, updates []audit.BatchUpdate) audit.BatchResult {
	result := s.writer.BatchUpdateWithAudit("event_registrations", updates, ctx, role)
	_ = s.writer.LogBatchOperation("event_registrations", "BATCH_UPDATE", len(updates), map[string]interface{}{
		"updated": len(result.Updated),
		"skipped": len(result.Skipped),
	}, ctx)
	return result
}
