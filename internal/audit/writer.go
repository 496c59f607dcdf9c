package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fairwayhq/fairway/backend/internal/logger"
	"github.com/fairwayhq/fairway/backend/internal/metrics"
	"github.com/fairwayhq/fairway/backend/internal/models"
)

var (
	// ErrNotFound is returned when the target record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConcurrentModification is returned when the record changed between
	// the fetch and the conditional write.
	ErrConcurrentModification = errors.New("record modified concurrently")
	// ErrDeleteRequiresAdmin gates whole-record deletion behind the admin
	// role regardless of per-field permissions.
	ErrDeleteRequiresAdmin = errors.New("delete requires admin role")
)

// PermissionError reports every denied field of a rejected write at once.
type PermissionError struct {
	Table        string
	DeniedFields []string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for fields on %s: %s", e.Table, strings.Join(e.DeniedFields, ", "))
}

// systemFields are maintained by the writer or the database and exempt from
// field permission checks on insert, where services legitimately supply ids
// and timestamps. Updates get no such exemption: every key of an update
// payload is permission-checked, so unclassified columns like id fall back
// to admin-only instead of slipping past the policy.
var systemFields = map[string]struct{}{
	"id":         {},
	"version":    {},
	"created_at": {},
	"updated_at": {},
}

// Writer wraps table mutations with field-level permission checks, change
// diffing and audit trail emission. All administrative writes go through it;
// plain gorm access is reserved for reads.
//
// The sequence per operation is fetch-old, conditional write, diff, log. The
// write is conditional on the version read in the fetch step, so a concurrent
// update surfaces as ErrConcurrentModification instead of silently producing
// an audit entry whose old value never existed.
type Writer struct {
	db     *gorm.DB
	policy Policy
	sink   Sink

	// Strict makes a failed audit append an error to the caller. The primary
	// write has already happened at that point and is never rolled back. Off
	// by default: the audit trail is advisory, not a transactional ledger.
	Strict bool
}

// NewWriter returns a Writer using the provided policy and sink.
func NewWriter(db *gorm.DB, policy Policy, sink Sink) *Writer {
	return &Writer{db: db, policy: policy, sink: sink}
}

// UpdateWithAudit applies changes to one record of table and emits one audit
// entry per field that actually changed. The whole operation is rejected, and
// the record untouched, if role may not write any one of the fields. A write
// whose diff comes back empty still happens but emits nothing.
func (w *Writer) UpdateWithAudit(table, recordID string, changes map[string]interface{}, ctx Context, role models.Role) (map[string]interface{}, error) {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	if ok, denied := w.policy.CanModifyFields(table, fields, role); !ok {
		metrics.IncAuditDenied()
		return nil, &PermissionError{Table: table, DeniedFields: denied}
	}

	old := map[string]interface{}{}
	if err := w.db.Table(table).Where("id = ?", recordID).Take(&old).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch %s %s: %w", table, recordID, err)
	}

	update := make(map[string]interface{}, len(changes)+2)
	for k, v := range changes {
		update[k] = v
	}
	update["updated_at"] = time.Now()

	tx := w.db.Table(table).Where("id = ?", recordID)
	oldVersion, hasVersion := asInt64(old["version"])
	if hasVersion {
		update["version"] = oldVersion + 1
		tx = tx.Where("version = ?", oldVersion)
	}

	res := tx.Updates(update)
	if res.Error != nil {
		return nil, fmt.Errorf("update %s %s: %w", table, recordID, res.Error)
	}
	if res.RowsAffected == 0 {
		if hasVersion {
			return nil, ErrConcurrentModification
		}
		return nil, ErrNotFound
	}

	entries := make([]models.AuditLog, 0, len(changes))
	for _, field := range ChangedFields(old, changes) {
		entries = append(entries, models.AuditLog{
			TableName: table,
			RecordID:  recordID,
			FieldName: field,
			OldValue:  encodeValue(old[field]),
			NewValue:  encodeValue(changes[field]),
			Operation: models.AuditOpUpdate,
			UserID:    ctx.UserID,
			UserEmail: ctx.UserEmail,
			UserRole:  string(ctx.UserRole),
			IPAddress: ctx.IPAddress,
			UserAgent: ctx.UserAgent,
		})
	}

	updated := map[string]interface{}{}
	if err := w.db.Table(table).Where("id = ?", recordID).Take(&updated).Error; err != nil {
		// The write succeeded; fall back to the merged view.
		updated = old
		for k, v := range update {
			updated[k] = v
		}
	}

	if err := w.emit(entries); err != nil {
		return updated, err
	}
	return updated, nil
}

// InsertWithAudit inserts data into table and emits a single INSERT entry
// carrying the whole payload. If the inserted row carries no id (a caller
// bug more than anything else) the insert still succeeds and logging is
// skipped: audit is strictly secondary to the primary operation.
func (w *Writer) InsertWithAudit(table string, data map[string]interface{}, ctx Context, role models.Role) (map[string]interface{}, error) {
	if ok, denied := w.policy.CanModifyFields(table, permissionFields(data), role); !ok {
		metrics.IncAuditDenied()
		return nil, &PermissionError{Table: table, DeniedFields: denied}
	}

	// The row is inserted exactly as supplied; version and timestamp columns
	// fall back to their database defaults when the caller leaves them out.
	row := make(map[string]interface{}, len(data))
	for k, v := range data {
		row[k] = v
	}

	if err := w.db.Table(table).Create(row).Error; err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}

	id, _ := row["id"].(string)
	if id == "" {
		logger.WithFields(map[string]interface{}{"table": table}).Warn("inserted row has no id, skipping audit entry")
		return row, nil
	}

	entry := models.AuditLog{
		TableName: table,
		RecordID:  id,
		NewValue:  encodeValue(data),
		Operation: models.AuditOpInsert,
		UserID:    ctx.UserID,
		UserEmail: ctx.UserEmail,
		UserRole:  string(ctx.UserRole),
		IPAddress: ctx.IPAddress,
		UserAgent: ctx.UserAgent,
	}
	if err := w.emit([]models.AuditLog{entry}); err != nil {
		return row, err
	}
	return row, nil
}

// DeleteWithAudit removes one record and emits a single DELETE entry carrying
// the full prior record. Deletion is gated on the admin role, not field
// permissions: it is irreversible and whole-record, so per-field write access
// does not extend to it.
func (w *Writer) DeleteWithAudit(table, recordID string, ctx Context, role models.Role) error {
	if role != models.RoleAdmin {
		metrics.IncAuditDenied()
		return ErrDeleteRequiresAdmin
	}

	old := map[string]interface{}{}
	if err := w.db.Table(table).Where("id = ?", recordID).Take(&old).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("fetch %s %s: %w", table, recordID, err)
	}

	res := w.db.Table(table).Where("id = ?", recordID).Delete(nil)
	if res.Error != nil {
		return fmt.Errorf("delete %s %s: %w", table, recordID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	entry := models.AuditLog{
		TableName: table,
		RecordID:  recordID,
		OldValue:  encodeValue(old),
		Operation: models.AuditOpDelete,
		UserID:    ctx.UserID,
		UserEmail: ctx.UserEmail,
		UserRole:  string(ctx.UserRole),
		IPAddress: ctx.IPAddress,
		UserAgent: ctx.UserAgent,
	}
	return w.emit([]models.AuditLog{entry})
}

// BatchUpdate is one record's worth of a batch operation.
type BatchUpdate struct {
	RecordID string
	Changes  map[string]interface{}
}

// SkippedRecord explains why one record of a batch was not updated.
type SkippedRecord struct {
	RecordID     string   `json:"record_id"`
	DeniedFields []string `json:"denied_fields,omitempty"`
	Reason       string   `json:"reason"`
}

// BatchResult reports per-record outcomes of a batch update.
type BatchResult struct {
	Updated []map[string]interface{} `json:"updated"`
	Skipped []SkippedRecord          `json:"skipped"`
}

// BatchUpdateWithAudit applies UpdateWithAudit to each record in turn. The
// batch is best-effort: a record that fails its permission check or cannot be
// found is reported in Skipped and the rest of the batch proceeds. Records
// run sequentially, one in-flight write at a time.
func (w *Writer) BatchUpdateWithAudit(table string, updates []BatchUpdate, ctx Context, role models.Role) BatchResult {
	var result BatchResult
	for _, u := range updates {
		updated, err := w.UpdateWithAudit(table, u.RecordID, u.Changes, ctx, role)
		if err != nil {
			skipped := SkippedRecord{RecordID: u.RecordID, Reason: err.Error()}
			var permErr *PermissionError
			if errors.As(err, &permErr) {
				skipped.DeniedFields = permErr.DeniedFields
			}
			result.Skipped = append(result.Skipped, skipped)
			continue
		}
		result.Updated = append(result.Updated, updated)
	}
	return result
}

// LogBatchOperation records aggregate metadata about a bulk job under the
// batch_operation sentinel record id, for jobs where per-record audit
// granularity is not worth the volume (imports, scheduled sweeps).
func (w *Writer) LogBatchOperation(table, operation string, recordCount int, extras map[string]interface{}, ctx Context) error {
	payload := map[string]interface{}{"record_count": recordCount}
	for k, v := range extras {
		payload[k] = v
	}

	entry := models.AuditLog{
		TableName: table,
		RecordID:  models.BatchRecordID,
		NewValue:  encodeValue(payload),
		Operation: operation,
		UserID:    ctx.UserID,
		UserEmail: ctx.UserEmail,
		UserRole:  string(ctx.UserRole),
		IPAddress: ctx.IPAddress,
		UserAgent: ctx.UserAgent,
	}
	return w.emit([]models.AuditLog{entry})
}

// emit appends entries to the sink. Failures are counted and logged but not
// returned unless the writer is strict; the audit trail never fails or rolls
// back the business write it describes.
func (w *Writer) emit(entries []models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	if err := w.sink.Append(entries); err != nil {
		metrics.IncAuditSinkFailure()
		logger.Log().WithError(err).Error("audit log append failed")
		if w.Strict {
			return fmt.Errorf("append audit log: %w", err)
		}
		return nil
	}
	metrics.IncAuditEntries(len(entries))
	return nil
}

// permissionFields strips writer- and database-maintained columns from an
// insert payload before the permission check.
func permissionFields(payload map[string]interface{}) []string {
	fields := make([]string, 0, len(payload))
	for field := range payload {
		if _, ok := systemFields[field]; ok {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

func encodeValue(v interface{}) string {
	if v == nil {
		return ""
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
