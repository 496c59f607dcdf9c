package models

import (
	"time"
)

// TransactionKind splits bookkeeping rows into money in and money out.
type TransactionKind string

const (
	TransactionIncome  TransactionKind = "income"
	TransactionExpense TransactionKind = "expense"
)

// Transaction is one bookkeeping row in the club's expense/income ledger.
type Transaction struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	Kind        TransactionKind `json:"kind" gorm:"index"`
	Category    string          `json:"category" gorm:"index"` // "membership_fees", "greenkeeping", ...
	AmountCents int64           `json:"amount_cents"`
	OccurredOn  time.Time       `json:"occurred_on" gorm:"index"`
	Description string          `json:"description" gorm:"type:text"`
	ReceiptRef  string          `json:"receipt_ref,omitempty"`
	RecordedBy  string          `json:"recorded_by" gorm:"index"`

	Version   int64     `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
