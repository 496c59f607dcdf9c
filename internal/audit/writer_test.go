package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fairwayhq/fairway/backend/internal/models"
)

func setupWriterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventRegistration{},
		&models.Announcement{},
		&models.Transaction{},
		&models.Notification{},
		&models.AuditLog{},
	))
	return db
}

func newTestWriter(db *gorm.DB) *Writer {
	return NewWriter(db, DefaultPolicy(), NewDatabaseSink(db))
}

func seedRegistration(t *testing.T, db *gorm.DB) models.EventRegistration {
	t.Helper()
	reg := models.EventRegistration{
		ID:            "r1",
		EventID:       "e1",
		UserID:        "u1",
		Status:        models.RegistrationStatusRegistered,
		PaymentStatus: models.PaymentStatusPending,
		Notes:         "x",
		Version:       1,
	}
	require.NoError(t, db.Create(&reg).Error)
	return reg
}

func auditEntries(t *testing.T, db *gorm.DB) []models.AuditLog {
	t.Helper()
	var entries []models.AuditLog
	require.NoError(t, db.Order("id").Find(&entries).Error)
	return entries
}

func memberContext() Context {
	return Context{UserID: "u1", UserEmail: "member@club.test", UserRole: models.RoleMember, UserAgent: "test"}
}

func adminContext() Context {
	return Context{UserID: "a1", UserEmail: "admin@club.test", UserRole: models.RoleAdmin, UserAgent: "test"}
}

func TestUpdateWithAudit_DeniedFieldLeavesRecordUntouched(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	_, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"payment_status": "paid"},
		memberContext(), models.RoleMember)

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, []string{"payment_status"}, permErr.DeniedFields)

	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, models.PaymentStatusPending, reg.PaymentStatus)
	assert.Empty(t, auditEntries(t, db), "denied write must not log anything")
}

func TestUpdateWithAudit_DenialIsNotPartial(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	// notes alone would be permitted; the denied payment_status rejects the
	// whole payload.
	_, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"notes": "updated", "payment_status": "paid"},
		memberContext(), models.RoleMember)
	require.Error(t, err)

	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, "x", reg.Notes)
}

func TestUpdateWithAudit_SystemColumnsNotExemptOnUpdate(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	// id is unclassified, so the fail-closed default applies to updates: a
	// member smuggling it into the payload must not rewrite the primary key.
	_, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"id": "hijacked"},
		memberContext(), models.RoleMember)

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Contains(t, permErr.DeniedFields, "id")

	var count int64
	require.NoError(t, db.Model(&models.EventRegistration{}).Where("id = ?", "r1").Count(&count).Error)
	assert.Equal(t, int64(1), count, "row keeps its original id")
	assert.Empty(t, auditEntries(t, db))

	// Same for created_at riding along with an otherwise permitted field.
	_, err = w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"notes": "fine on its own", "created_at": time.Now().Add(-time.Hour)},
		memberContext(), models.RoleMember)
	require.ErrorAs(t, err, &permErr)
	assert.Contains(t, permErr.DeniedFields, "created_at")

	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, "x", reg.Notes)
}

func TestUpdateWithAudit_EmitsOneEntryPerChangedField(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	updated, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"payment_status": "paid", "notes": "cash at pro shop"},
		adminContext(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "paid", updated["payment_status"])

	entries := auditEntries(t, db)
	require.Len(t, entries, 2)

	byField := map[string]models.AuditLog{}
	for _, e := range entries {
		byField[e.FieldName] = e
	}
	require.Contains(t, byField, "payment_status")
	assert.Equal(t, models.AuditOpUpdate, byField["payment_status"].Operation)
	assert.Equal(t, `"pending"`, byField["payment_status"].OldValue)
	assert.Equal(t, `"paid"`, byField["payment_status"].NewValue)
	assert.Equal(t, "a1", byField["payment_status"].UserID)
	assert.Equal(t, "admin", byField["payment_status"].UserRole)
	require.Contains(t, byField, "notes")
}

func TestUpdateWithAudit_NoOpWriteEmitsNothing(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	updated, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"notes": "x", "payment_status": "pending"},
		adminContext(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "x", updated["notes"])

	assert.Empty(t, auditEntries(t, db), "no-op update must not pollute the audit trail")

	// The write itself still happened: version moved on.
	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, int64(2), reg.Version)
}

func TestUpdateWithAudit_NotFound(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)

	_, err := w.UpdateWithAudit("event_registrations", "missing",
		map[string]interface{}{"notes": "y"}, adminContext(), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateWithAudit_ConcurrentModification(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:writer_cc_test?mode=memory&cache=shared"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EventRegistration{}, &models.AuditLog{}))

	other, err := gorm.Open(sqlite.Open("file:writer_cc_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	w := newTestWriter(db)
	seedRegistration(t, db)

	// Slip a competing write in between the writer's fetch and its
	// conditional update.
	raced := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:race", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		require.NoError(t, other.Exec("UPDATE event_registrations SET version = version + 1 WHERE id = ?", "r1").Error)
	}))
	defer func() {
		_ = db.Callback().Update().Remove("test:race")
	}()

	_, err = w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"notes": "late change"}, adminContext(), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Empty(t, auditEntries(t, db), "a lost update must not fabricate audit entries")
}

func TestInsertWithAudit_LogsWholePayload(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)

	row, err := w.InsertWithAudit("events", map[string]interface{}{
		"id":        "e9",
		"title":     "Tournament",
		"status":    "draft",
		"starts_at": time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC),
	}, adminContext(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "e9", row["id"])

	entries := auditEntries(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditOpInsert, entries[0].Operation)
	assert.Equal(t, "events", entries[0].TableName)
	assert.Equal(t, "e9", entries[0].RecordID)
	assert.Empty(t, entries[0].FieldName, "INSERT is whole-record, no per-field entries")
	assert.Contains(t, entries[0].NewValue, `"title":"Tournament"`)
}

func TestInsertWithAudit_PermissionCheck(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)

	_, err := w.InsertWithAudit("transactions", map[string]interface{}{
		"id":           "t1",
		"kind":         "expense",
		"amount_cents": 125000,
		"occurred_on":  time.Now(),
	}, memberContext(), models.RoleEditor)

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInsertWithAudit_MissingIDSkipsLogging(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)

	row, err := w.InsertWithAudit("notifications", map[string]interface{}{
		"title":   "no id here",
		"message": "still inserted",
	}, adminContext(), models.RoleAdmin)
	require.NoError(t, err, "logging is secondary, the insert itself must succeed")
	assert.Equal(t, "still inserted", row["message"])

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, auditEntries(t, db))
}

func TestDeleteWithAudit_RoleGateIndependentOfFieldPermissions(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	// An editor may write every classified announcements field, yet still
	// cannot delete.
	require.NoError(t, db.Create(&models.Announcement{ID: "a1", Title: "Course closed", Version: 1}).Error)

	err := w.DeleteWithAudit("announcements", "a1", memberContext(), models.RoleEditor)
	assert.ErrorIs(t, err, ErrDeleteRequiresAdmin)

	var count int64
	require.NoError(t, db.Model(&models.Announcement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteWithAudit_LogsPriorRecord(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)

	require.NoError(t, w.DeleteWithAudit("event_registrations", "r1", adminContext(), models.RoleAdmin))

	var count int64
	require.NoError(t, db.Model(&models.EventRegistration{}).Count(&count).Error)
	assert.Zero(t, count)

	entries := auditEntries(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditOpDelete, entries[0].Operation)
	assert.Equal(t, "r1", entries[0].RecordID)
	assert.Empty(t, entries[0].FieldName)
	assert.Contains(t, entries[0].OldValue, `"notes":"x"`)
}

func TestDeleteWithAudit_NotFound(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)

	err := w.DeleteWithAudit("event_registrations", "missing", adminContext(), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatchUpdateWithAudit_SkipsAndReports(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)
	seedRegistration(t, db)
	require.NoError(t, db.Create(&models.EventRegistration{
		ID: "r2", EventID: "e1", UserID: "u2",
		Status: models.RegistrationStatusRegistered, PaymentStatus: models.PaymentStatusPending,
		Version: 1,
	}).Error)

	result := w.BatchUpdateWithAudit("event_registrations", []BatchUpdate{
		{RecordID: "r1", Changes: map[string]interface{}{"payment_status": "paid"}}, // denied for members
		{RecordID: "r2", Changes: map[string]interface{}{"notes": "bringing two guests"}},
		{RecordID: "r404", Changes: map[string]interface{}{"notes": "ghost"}},
	}, memberContext(), models.RoleMember)

	require.Len(t, result.Updated, 1)
	assert.Equal(t, "r2", result.Updated[0]["id"])

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "r1", result.Skipped[0].RecordID)
	assert.Equal(t, []string{"payment_status"}, result.Skipped[0].DeniedFields)
	assert.Equal(t, "r404", result.Skipped[1].RecordID)
	assert.Empty(t, result.Skipped[1].DeniedFields)

	// r1 untouched.
	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, models.PaymentStatusPending, reg.PaymentStatus)
}

func TestLogBatchOperation_AggregateEntry(t *testing.T) {
	db := setupWriterDB(t)
	w := newTestWriter(db)

	require.NoError(t, w.LogBatchOperation("event_registrations", "BATCH_IMPORT", 42,
		map[string]interface{}{"source": "legacy_csv"}, adminContext()))

	entries := auditEntries(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, models.BatchRecordID, entries[0].RecordID)
	assert.Equal(t, "BATCH_IMPORT", entries[0].Operation)
	assert.Contains(t, entries[0].NewValue, `"record_count":42`)
	assert.Contains(t, entries[0].NewValue, `"source":"legacy_csv"`)
}

type failingSink struct{}

func (failingSink) Append([]models.AuditLog) error {
	return errors.New("audit store unavailable")
}

func TestUpdateWithAudit_SinkFailureIsSwallowed(t *testing.T) {
	db := setupWriterDB(t)
	w := NewWriter(db, DefaultPolicy(), failingSink{})
	seedRegistration(t, db)

	updated, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"notes": "rescheduled"}, adminContext(), models.RoleAdmin)
	require.NoError(t, err, "audit failures must never fail the business write")
	assert.Equal(t, "rescheduled", updated["notes"])

	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, "rescheduled", reg.Notes)
}

func TestUpdateWithAudit_StrictModeSurfacesSinkFailure(t *testing.T) {
	db := setupWriterDB(t)
	w := NewWriter(db, DefaultPolicy(), failingSink{})
	w.Strict = true
	seedRegistration(t, db)

	_, err := w.UpdateWithAudit("event_registrations", "r1",
		map[string]interface{}{"notes": "rescheduled"}, adminContext(), models.RoleAdmin)
	require.Error(t, err)

	// Strict mode reports the failure but the write itself is not rolled back.
	var reg models.EventRegistration
	require.NoError(t, db.First(&reg, "id = ?", "r1").Error)
	assert.Equal(t, "rescheduled", reg.Notes)
}
