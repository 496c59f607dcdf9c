package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/api/middleware"
	"github.com/fairwayhq/fairway/backend/internal/services"
)

type FinanceHandler struct {
	DB      *gorm.DB
	Service *services.FinanceService
}

func NewFinanceHandler(db *gorm.DB, service *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{DB: db, Service: service}
}

func periodParams(c *gin.Context) (int, int) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	return year, month
}

func (h *FinanceHandler) List(c *gin.Context) {
	year, month := periodParams(c)
	transactions, err := h.Service.List(year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *FinanceHandler) Create(c *gin.Context) {
	var input services.TransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, err := h.Service.Create(auditContext(c, h.DB), middleware.CurrentRole(c), input)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *FinanceHandler) Update(c *gin.Context) {
	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, err := h.Service.Update(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id"), changes)
	if respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *FinanceHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(auditContext(c, h.DB), middleware.CurrentRole(c), c.Param("id")); respondAuditError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func (h *FinanceHandler) Summary(c *gin.Context) {
	year, month := periodParams(c)
	if year == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year query parameter required"})
		return
	}

	summary, err := h.Service.Summarize(year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
