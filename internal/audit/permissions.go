package audit

import (
	"github.com/fairwayhq/fairway/backend/internal/models"
)

// Policy maps table -> field -> roles permitted to write that field.
// A Policy is an immutable value: the rules map is copied on construction and
// never mutated afterwards, so a single Policy may be shared freely.
//
// Any table or field absent from the policy is writable by admins only. This
// fail-closed default covers columns added to the schema before anyone has
// classified them.
type Policy struct {
	tables map[string]map[string][]models.Role
}

// NewPolicy builds a Policy from a rules map. The map is deep-copied.
func NewPolicy(rules map[string]map[string][]models.Role) Policy {
	tables := make(map[string]map[string][]models.Role, len(rules))
	for table, fields := range rules {
		copied := make(map[string][]models.Role, len(fields))
		for field, roles := range fields {
			copied[field] = append([]models.Role(nil), roles...)
		}
		tables[table] = copied
	}
	return Policy{tables: tables}
}

// DefaultPolicy returns the field classification for the club schema.
// Fields not listed here fall back to admin-only.
func DefaultPolicy() Policy {
	editorUp := []models.Role{models.RoleAdmin, models.RoleEditor}
	adminOnly := []models.Role{models.RoleAdmin}
	self := []models.Role{models.RoleAdmin, models.RoleEditor, models.RoleMember}

	return NewPolicy(map[string]map[string][]models.Role{
		"events": {
			"title":                 editorUp,
			"description":           editorUp,
			"location":              editorUp,
			"starts_at":             editorUp,
			"ends_at":               editorUp,
			"registration_deadline": editorUp,
			"capacity":              editorUp,
			"status":                editorUp,
			"fee_cents":             adminOnly,
			"created_by":            editorUp,
		},
		"event_registrations": {
			"event_id":       self,
			"user_id":        self,
			"status":         editorUp,
			"guests":         self,
			"notes":          self,
			"payment_status": adminOnly,
		},
		"announcements": {
			"title":        editorUp,
			"body":         editorUp,
			"category":     editorUp,
			"pinned":       editorUp,
			"published_at": editorUp,
			"author_id":    editorUp,
		},
		"transactions": {
			"kind":         adminOnly,
			"category":     adminOnly,
			"amount_cents": adminOnly,
			"occurred_on":  adminOnly,
			"description":  adminOnly,
			"receipt_ref":  adminOnly,
			"recorded_by":  adminOnly,
		},
		"users": {
			"name":          self,
			"email":         self,
			"handicap":      self,
			"member_number": adminOnly,
			"role":          adminOnly,
			"enabled":       adminOnly,
		},
	})
}

// CanModifyField reports whether role may write field on table.
func (p Policy) CanModifyField(table, field string, role models.Role) bool {
	fields, ok := p.tables[table]
	if !ok {
		return role == models.RoleAdmin
	}
	roles, ok := fields[field]
	if !ok {
		return role == models.RoleAdmin
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanModifyFields checks every field in one pass and returns the full list of
// denied fields so callers can report all violations at once.
func (p Policy) CanModifyFields(table string, fields []string, role models.Role) (bool, []string) {
	var denied []string
	for _, field := range fields {
		if !p.CanModifyField(table, field, role) {
			denied = append(denied, field)
		}
	}
	return len(denied) == 0, denied
}
