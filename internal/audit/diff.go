package audit

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"time"
)

// numericEpsilon absorbs floating-point noise when values round-trip through
// the database or JSON. Differences below it are not treated as changes.
const numericEpsilon = 1e-4

// ChangedFields compares an existing record against a proposed changes map
// and returns the keys whose values actually differ. Equality is type-aware:
// timestamps match at second precision, numbers within numericEpsilon, and
// nil is equivalent to a missing key. Without this, every form save would
// flood the audit trail with no-op entries caused by reformatted timestamps
// and reserialized numbers.
func ChangedFields(old map[string]interface{}, changes map[string]interface{}) []string {
	var changed []string
	for key, newValue := range changes {
		oldValue := old[key]
		if !valuesEqual(oldValue, newValue) {
			changed = append(changed, key)
		}
	}
	return changed
}

func valuesEqual(a, b interface{}) bool {
	aNil := isNil(a)
	bNil := isNil(b)
	if aNil || bNil {
		return aNil == bNil
	}

	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.UTC().Truncate(time.Second).Equal(bt.UTC().Truncate(time.Second))
		}
	}

	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return math.Abs(af-bf) < numericEpsilon
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}

	// Structural equality via JSON normalization; values that cannot be
	// serialized fall back to reflect.DeepEqual.
	aJSON, aErr := json.Marshal(a)
	bJSON, bErr := json.Marshal(b)
	if aErr == nil && bErr == nil {
		return bytes.Equal(aJSON, bJSON)
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// asTime recognizes time.Time values and ISO-8601 strings.
func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
