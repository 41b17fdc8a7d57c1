package types

import (
	"fmt"
	"strings"
	"time"
)

// FormatKey renders a scalar the way index and group keys are stored.
// Both sides of a lookup go through this so mixed int64/float64 keys
// still collide where they should.
func FormatKey(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case time.Time:
		return v.Format("2006-01-02")
	}
	return fmt.Sprintf("%v", v)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// Equal compares two scalars with numeric cross-type coercion, so that an
// int64 column matches a plain int argument.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Equal(bt)
		}
	}
	return FormatKey(a) == FormatKey(b)
}

// Compare orders two scalars: nil first, then numerics, dates and booleans
// by natural order, everything else by string form. Returns -1, 0 or 1.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(FormatKey(a), FormatKey(b))
}
