package audit

import (
	"github.com/fairwayhq/fairway/backend/internal/logger"
	"github.com/fairwayhq/fairway/backend/internal/models"
	"gorm.io/gorm"
)

// Context is the actor identity snapshot attached to every audit entry.
// It is built once per mutating operation and discarded afterwards.
type Context struct {
	UserID    string
	UserEmail string
	UserRole  models.Role
	IPAddress string
	UserAgent string
}

// NewContext resolves the user's current email and role and merges them with
// request metadata. If the lookup fails the identity fields stay blank and the
// operation proceeds with degraded audit fidelity instead of being blocked.
func NewContext(db *gorm.DB, userID, ipAddress, userAgent string) Context {
	ctx := Context{
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	var user models.User
	if err := db.Select("email", "role").Where("id = ?", userID).First(&user).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).WithError(err).Warn("audit context lookup failed, proceeding without identity")
		return ctx
	}

	ctx.UserEmail = user.Email
	ctx.UserRole = user.Role
	return ctx
}
