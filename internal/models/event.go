package models

import (
	"time"
)

// EventStatus tracks the lifecycle of a club event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Event is a club event (tournament, social, clinic) members can register for.
type Event struct {
	ID                   string      `json:"id" gorm:"primaryKey"`
	Title                string      `json:"title"`
	Description          string      `json:"description" gorm:"type:text"`
	Location             string      `json:"location"`
	StartsAt             time.Time   `json:"starts_at" gorm:"index"`
	EndsAt               *time.Time  `json:"ends_at,omitempty"`
	RegistrationDeadline *time.Time  `json:"registration_deadline,omitempty" gorm:"index"`
	Capacity             int         `json:"capacity" gorm:"default:0"` // 0 = unlimited
	FeeCents             int64       `json:"fee_cents" gorm:"default:0"`
	Status               EventStatus `json:"status" gorm:"default:'draft';index"`
	CreatedBy            string      `json:"created_by" gorm:"index"`

	Version   int64     `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistrationOpen reports whether new registrations are accepted at t.
func (e *Event) RegistrationOpen(t time.Time) bool {
	if e.Status != EventStatusPublished {
		return false
	}
	if e.RegistrationDeadline != nil && t.After(*e.RegistrationDeadline) {
		return false
	}
	return t.Before(e.StartsAt)
}

// RegistrationStatus tracks a member's place in an event.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusWaitlisted RegistrationStatus = "waitlisted"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// PaymentStatus tracks whether an event fee has been settled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusWaived  PaymentStatus = "waived"
)

// EventRegistration links a member to an event.
type EventRegistration struct {
	ID            string             `json:"id" gorm:"primaryKey"`
	EventID       string             `json:"event_id" gorm:"index:idx_reg_event_user,unique"`
	UserID        string             `json:"user_id" gorm:"index:idx_reg_event_user,unique"`
	Status        RegistrationStatus `json:"status" gorm:"default:'registered'"`
	PaymentStatus PaymentStatus      `json:"payment_status" gorm:"default:'pending'"`
	Guests        int                `json:"guests" gorm:"default:0"`
	Notes         string             `json:"notes" gorm:"type:text"`

	Version   int64     `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
