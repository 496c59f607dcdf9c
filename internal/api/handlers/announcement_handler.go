package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/api/middleware"
	"github.com/fairwayhq/fairway/backend/internal/models"
	"github.com/fairwayhq/fairway/backend/internal/services"
)

type AnnouncementHandler struct {
	DB      *gorm.DB
	Service *services.AnnouncementService
}

func NewAnnouncementHandler(db *gorm.DB, service *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{DB: db, Service: service}
}

func (h *AnnouncementHandler) List(c *gin.Context) {
	role := middleware.CurrentRole(c)
	staff := role == models.RoleAdmin || role == models.RoleEditor

	announcements, err := h.Service.List(staff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list announcements"})
		return
	}
	c.JSON(http.StatusOK, announcements)
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.Service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAnnouncementNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, announcement)
}

func (h *AnnouncementHandler) Create(c *gin.Context) {
	var input services.AnnouncementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement, err := h.Service.Create(auditContext(c, h.DB), middleware.CurrentRole(c), input)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, announcement)
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement, err := h.Service.Update(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id"), changes)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, announcement)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id")); respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted"})
}
