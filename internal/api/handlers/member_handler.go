package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/api/middleware"
	"github.com/fairwayhq/fairway/backend/internal/models"
	"github.com/fairwayhq/fairway/backend/internal/services"
)

type MemberHandler struct {
	DB      *gorm.DB
	Service *services.MemberService
}

func NewMemberHandler(db *gorm.DB, service *services.MemberService) *MemberHandler {
	return &MemberHandler{DB: db, Service: service}
}

func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.Service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
		return
	}
	c.JSON(http.StatusOK, members)
}

// Update edits a member record. The field policy inside the audit writer
// decides what the caller may touch; members may only edit themselves.
func (h *MemberHandler) Update(c *gin.Context) {
	targetID := c.Param("id")
	role := middleware.CurrentRole(c)
	if role == models.RoleMember && targetID != middleware.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Members can only edit their own profile"})
		return
	}

	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Service.Update(auditContext(c, h.DB), role, targetID, changes)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id")); respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member deleted"})
}
