package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/audit"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// FinanceService keeps the club's expense/income ledger. Every mutation goes
// through the audit writer; the entire transactions table is classified
// admin-only in the permission policy.
type FinanceService struct {
	db     *gorm.DB
	writer *audit.Writer
}

func NewFinanceService(db *gorm.DB, writer *audit.Writer) *FinanceService {
	return &FinanceService{db: db, writer: writer}
}

// List returns ledger rows, optionally restricted to a month.
func (s *FinanceService) List(year, month int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := s.db.Order("occurred_on desc")
	if year > 0 {
		start, end := periodBounds(year, month)
		query = query.Where("occurred_on >= ? AND occurred_on < ?", start, end)
	}
	return transactions, query.Find(&transactions).Error
}

func (s *FinanceService) Get(id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

// TransactionInput carries the caller-editable ledger fields.
type TransactionInput struct {
	Kind        string    `json:"kind" binding:"required,oneof=income expense"`
	Category    string    `json:"category" binding:"required"`
	AmountCents int64     `json:"amount_cents" binding:"required,gt=0"`
	OccurredOn  time.Time `json:"occurred_on" binding:"required"`
	Description string    `json:"description"`
	ReceiptRef  string    `json:"receipt_ref"`
}

// Create books a transaction through the audit writer.
func (s *FinanceService) Create(ctx audit.Context, role models.Role, input TransactionInput) (*models.Transaction, error) {
	now := time.Now()
	row := map[string]interface{}{
		"id":           uuid.NewString(),
		"kind":         input.Kind,
		"category":     input.Category,
		"amount_cents": input.AmountCents,
		"occurred_on":  input.OccurredOn,
		"description":  input.Description,
		"receipt_ref":  input.ReceiptRef,
		"recorded_by":  ctx.UserID,
		"created_at":   now,
		"updated_at":   now,
	}

	inserted, err := s.writer.InsertWithAudit("transactions", row, ctx, role)
	if err != nil {
		return nil, err
	}
	id, _ := inserted["id"].(string)
	return s.Get(id)
}

// Update applies field changes through the audit writer.
func (s *FinanceService) Update(ctx audit.Context, role models.Role, id string, changes map[string]interface{}) (*models.Transaction, error) {
	if _, err := s.writer.UpdateWithAudit("transactions", id, changes, ctx, role); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a ledger row. Admin only, enforced by the writer.
func (s *FinanceService) Delete(ctx audit.Context, role models.Role, id string) error {
	return s.writer.DeleteWithAudit("transactions", id, ctx, role)
}

// Summary aggregates the ledger for a period.
type Summary struct {
	Year          int              `json:"year"`
	Month         int              `json:"month,omitempty"`
	IncomeCents   int64            `json:"income_cents"`
	ExpenseCents  int64            `json:"expense_cents"`
	BalanceCents  int64            `json:"balance_cents"`
	ByCategory    map[string]int64 `json:"by_category"`
	TransactionCt int64            `json:"transaction_count"`
}

// Summarize totals income and expenses for a year or a single month.
func (s *FinanceService) Summarize(year, month int) (*Summary, error) {
	transactions, err := s.List(year, month)
	if err != nil {
		return nil, err
	}

	summary := Summary{Year: year, Month: month, ByCategory: map[string]int64{}}
	for _, tx := range transactions {
		summary.TransactionCt++
		signed := tx.AmountCents
		if tx.Kind == models.TransactionExpense {
			summary.ExpenseCents += tx.AmountCents
			signed = -tx.AmountCents
		} else {
			summary.IncomeCents += tx.AmountCents
		}
		summary.ByCategory[tx.Category] += signed
	}
	summary.BalanceCents = summary.IncomeCents - summary.ExpenseCents
	return &summary, nil
}

func periodBounds(year, month int) (time.Time, time.Time) {
	if month > 0 {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
