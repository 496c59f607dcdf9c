package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role determines what a user may do across the application. Field-level
// write permissions and audit visibility are both keyed off this value.
type Role string

const (
	// RoleAdmin is the highest privilege: full write access, deletes, finance.
	RoleAdmin Role = "admin"
	// RoleEditor manages club content: events, announcements.
	RoleEditor Role = "editor"
	// RoleMember is a regular club member.
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleMember:
		return true
	}
	return false
}

// User represents club members and staff with role-based access control.
type User struct {
	ID                  string     `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"uniqueIndex"`
	PasswordHash        string     `json:"-"` // Never serialize password hash
	Name                string     `json:"name"`
	Role                Role       `json:"role" gorm:"default:'member'"`
	Enabled             bool       `json:"enabled" gorm:"default:true"`
	MemberNumber        string     `json:"member_number,omitempty" gorm:"index"`
	Handicap            *float64   `json:"handicap,omitempty"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`

	Version   int64     `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPassword hashes and sets the user's password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsLocked returns true while a lockout window from failed logins is active.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && u.LockedUntil.After(time.Now())
}
