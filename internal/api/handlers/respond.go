package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/api/middleware"
	"github.com/fairwayhq/fairway/backend/internal/audit"
)

// auditContext builds the actor snapshot for a mutating request.
func auditContext(c *gin.Context, db *gorm.DB) audit.Context {
	return audit.NewContext(db, middleware.CurrentUserID(c), c.ClientIP(), c.Request.UserAgent())
}

// respondAuditError translates audit writer errors into HTTP responses.
// Returns true when it handled the error.
func respondAuditError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var permErr *audit.PermissionError
	switch {
	case errors.As(err, &permErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error":         "permission denied",
			"denied_fields": permErr.DeniedFields,
		})
	case errors.Is(err, audit.ErrDeleteRequiresAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, audit.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, audit.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "record was modified by someone else, reload and retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return true
}
