package audit

import (
	"github.com/fairwayhq/fairway/backend/internal/models"
	"gorm.io/gorm"
)

// Sink persists audit entries. Implementations must treat entries as
// append-only: there is no update or delete.
type Sink interface {
	Append(entries []models.AuditLog) error
}

type databaseSink struct {
	db *gorm.DB
}

// NewDatabaseSink returns a Sink appending entries to the audit_logs table.
func NewDatabaseSink(db *gorm.DB) Sink {
	return &databaseSink{db: db}
}

func (s *databaseSink) Append(entries []models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Create(&entries).Error
}
