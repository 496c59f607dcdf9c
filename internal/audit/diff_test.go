package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangedFields_DateJitterIgnored(t *testing.T) {
	old := map[string]interface{}{"starts_at": "2024-01-01T00:00:00.123Z"}

	changed := ChangedFields(old, map[string]interface{}{"starts_at": "2024-01-01T00:00:00.456Z"})
	assert.Empty(t, changed, "sub-second jitter must not count as a change")

	changed = ChangedFields(old, map[string]interface{}{"starts_at": "2024-01-01T00:00:01.000Z"})
	assert.Equal(t, []string{"starts_at"}, changed)
}

func TestChangedFields_TimeValuesAgainstStrings(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 14, 30, 0, 250_000_000, time.UTC)
	old := map[string]interface{}{"starts_at": stamp}

	changed := ChangedFields(old, map[string]interface{}{"starts_at": "2024-06-01T14:30:00Z"})
	assert.Empty(t, changed)

	changed = ChangedFields(old, map[string]interface{}{"starts_at": "2024-06-01T15:30:00Z"})
	assert.Equal(t, []string{"starts_at"}, changed)
}

func TestChangedFields_NumericEpsilon(t *testing.T) {
	old := map[string]interface{}{"handicap": 10.00001}

	assert.Empty(t, ChangedFields(old, map[string]interface{}{"handicap": 10.00002}))
	assert.Equal(t, []string{"handicap"},
		ChangedFields(map[string]interface{}{"handicap": 10.0}, map[string]interface{}{"handicap": 10.5}))
}

func TestChangedFields_CrossTypeNumerics(t *testing.T) {
	// sqlite hands integers back as int64; a caller-supplied float64 of the
	// same value is not a change.
	old := map[string]interface{}{"capacity": int64(32)}
	assert.Empty(t, ChangedFields(old, map[string]interface{}{"capacity": 32.0}))
	assert.Equal(t, []string{"capacity"}, ChangedFields(old, map[string]interface{}{"capacity": 36}))
}

func TestChangedFields_NilEquivalence(t *testing.T) {
	old := map[string]interface{}{"ends_at": nil}

	assert.Empty(t, ChangedFields(old, map[string]interface{}{"ends_at": nil}))
	// Missing key in old counts the same as nil.
	assert.Empty(t, ChangedFields(map[string]interface{}{}, map[string]interface{}{"ends_at": nil}))

	var nilTime *time.Time
	assert.Empty(t, ChangedFields(old, map[string]interface{}{"ends_at": nilTime}))

	assert.Equal(t, []string{"ends_at"},
		ChangedFields(old, map[string]interface{}{"ends_at": "2024-01-01T00:00:00Z"}))
	assert.Equal(t, []string{"notes"},
		ChangedFields(map[string]interface{}{"notes": "x"}, map[string]interface{}{"notes": nil}))
}

func TestChangedFields_Strings(t *testing.T) {
	old := map[string]interface{}{"status": "pending", "notes": "x"}

	changed := ChangedFields(old, map[string]interface{}{"status": "paid", "notes": "x"})
	assert.Equal(t, []string{"status"}, changed)
}

func TestChangedFields_StructuralEquality(t *testing.T) {
	old := map[string]interface{}{"tags": []string{"medal", "stableford"}}

	assert.Empty(t, ChangedFields(old, map[string]interface{}{"tags": []string{"medal", "stableford"}}))
	assert.Equal(t, []string{"tags"},
		ChangedFields(old, map[string]interface{}{"tags": []string{"medal"}}))
}

func TestChangedFields_NoOpPayload(t *testing.T) {
	old := map[string]interface{}{
		"title":     "Spring Medal",
		"capacity":  int64(24),
		"starts_at": "2024-04-01T09:00:00Z",
	}
	changes := map[string]interface{}{
		"title":     "Spring Medal",
		"capacity":  24,
		"starts_at": "2024-04-01T09:00:00.000Z",
	}
	assert.Empty(t, ChangedFields(old, changes))
}
