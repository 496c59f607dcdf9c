package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/models"
)

// AuditHandler exposes the audit trail to administrators. Read-only: the
// trail is append-only and written exclusively by the audit writer.
type AuditHandler struct {
	DB *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{DB: db}
}

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

func (h *AuditHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.AuditLog{}).Order("id desc")

	if table := c.Query("table"); table != "" {
		query = query.Where("table_name = ?", table)
	}
	if recordID := c.Query("record_id"); recordID != "" {
		query = query.Where("record_id = ?", recordID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if operation := c.Query("operation"); operation != "" {
		query = query.Where("operation = ?", operation)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditPageSize)))
	if limit <= 0 || limit > maxAuditPageSize {
		limit = defaultAuditPageSize
	}
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count audit entries"})
		return
	}

	var entries []models.AuditLog
	if err := query.Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
