package services

import (
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

// MemberService manages member records. Role and enablement changes are
// admin-only at the field-permission level and fully audited.
type MemberService struct {
	db     *gorm.DB
	writer *audit.Writer
}

func NewMemberService(db *gorm.DB, writer *audit.Writer) *MemberService {
	return &MemberService{db: db, writer: writer}
}

// List returns all members ordered by name.
func (s *MemberService) List() ([]models.User, error) {
	var users []models.User
	return users, s.db.Order("name").Find(&users).Error
}

// Update applies profile or administrative changes through the audit writer.
// The field policy decides what the caller may touch: members can edit their
// own profile fields, only admins can change role, enabled or member_number.
func (s *MemberService) Update(ctx audit.Context, role models.Role, id string, changes map[string]interface{}) (map[string]interface{}, error) {
	updated, err := s.writer.UpdateWithAudit("users", id, changes, ctx, role)
	if err != nil {
		return nil, err
	}
	// Never hand password hashes back out.
	delete(updated, "password_hash")
	return updated, nil
}

// Delete removes a member record. Admin only, enforced by the writer.
func (s *MemberService) Delete(ctx audit.Context, role models.Role, id string) error {
	return s.writer.DeleteWithAudit("users", id, ctx, role)
}
