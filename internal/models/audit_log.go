package models

import (
	"time"
)

// Audit operations. Batch jobs may record their own label instead.
const (
	AuditOpInsert = "INSERT"
	AuditOpUpdate = "UPDATE"
	AuditOpDelete = "DELETE"
)

// BatchRecordID is the sentinel record id used for aggregate batch entries
// where per-record granularity is not recorded.
const BatchRecordID = "batch_operation"

// AuditLog is one immutable row of the administrative audit trail.
// UPDATE produces one row per changed field; INSERT and DELETE produce a
// single whole-record row with FieldName empty. Rows are append-only: nothing
// in the application updates or deletes them.
type AuditLog struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TableName string `json:"table_name" gorm:"index:idx_audit_table_record"`
	RecordID  string `json:"record_id" gorm:"index:idx_audit_table_record"`
	FieldName string `json:"field_name,omitempty"`
	OldValue  string `json:"old_value,omitempty" gorm:"type:text"` // JSON-encoded
	NewValue  string `json:"new_value,omitempty" gorm:"type:text"` // JSON-encoded
	Operation string `json:"operation" gorm:"index"`

	// Actor identity snapshot at write time.
	UserID    string `json:"user_id,omitempty" gorm:"index"`
	UserEmail string `json:"user_email,omitempty"`
	UserRole  string `json:"user_role,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
