package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/api/middleware"
	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/models"
	"github.com/fairwayhq/fairway/backend/internal/services"
)

type EventHandler struct {
	DB      *gorm.DB
	Service *services.EventService
}

func NewEventHandler(db *gorm.DB, service *services.EventService) *EventHandler {
	return &EventHandler{DB: db, Service: service}
}

func (h *EventHandler) staffView(c *gin.Context) bool {
	role := middleware.CurrentRole(c)
	return role == models.RoleAdmin || role == models.RoleEditor
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.Service.List(h.staffView(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.Service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if event.Status == models.EventStatusDraft && !h.staffView(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c *gin.Context) {
	var input services.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.Service.Create(auditContext(c, h.DB), middleware.CurrentRole(c), input)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.Service.Update(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id"), changes)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Cancel(c *gin.Context) {
	event, err := h.Service.Cancel(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id"))
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id")); respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

type RegisterEventRequest struct {
	Guests int    `json:"guests"`
	Notes  string `json:"notes"`
}

func (h *EventHandler) Register(c *gin.Context) {
	var req RegisterEventRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.Service.Register(c.Param("id"), middleware.CurrentUserID(c), req.Guests, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, services.ErrRegistrationClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "Registration is closed"})
		case errors.Is(err, services.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "Already registered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (h *EventHandler) Unregister(c *gin.Context) {
	if err := h.Service.Unregister(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		if errors.Is(err, services.ErrRegistrationMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active registration"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registration cancelled"})
}

func (h *EventHandler) Registrations(c *gin.Context) {
	regs, err := h.Service.Registrations(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, regs)
}

func (h *EventHandler) UpdateRegistration(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Service.UpdateRegistration(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id"), changes)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, updated)
}

type BatchRegistrationUpdate struct {
	RecordID string                 `json:"record_id" binding:"required"`
	Changes  map[string]interface{} `json:"changes" binding:"required"`
}

func (h *EventHandler) BatchUpdateRegistrations(c *gin.Context) {
	var req []BatchRegistrationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make([]audit.BatchUpdate, 0, len(req))
	for _, u := range req {
		updates = append(updates, audit.BatchUpdate{RecordID: u.RecordID, Changes: u.Changes})
	}

	result := h.Service.BatchUpdateRegistrations(auditContext(c, h.DB), middleware.CurrentRole(c), updates)
	c.JSON(http.StatusOK, result)
}
