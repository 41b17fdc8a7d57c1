package query

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/types"
)

// DEFAULT_FUZZY_THRESHOLD is the similarity a Fuzzy filter requires when the
// filter carries none of its own.
const DEFAULT_FUZZY_THRESHOLD = 0.72

type Op string

const (
	Eq         Op = "="
	Ne         Op = "!="
	Gt         Op = ">"
	Lt         Op = "<"
	Ge         Op = ">="
	Le         Op = "<="
	Between    Op = "between"
	In         Op = "in"
	NotIn      Op = "not in"
	Contains   Op = "contains"
	StartsWith Op = "startswith"
	EndsWith   Op = "endswith"
	IsNull     Op = "is null"
	NotNull    Op = "is not null"
	Fuzzy      Op = "~"
)

// Filter is one predicate over a base-table field. Between and In/NotIn
// carry their operands as []any; Fuzzy may carry its own similarity
// threshold.
type Filter struct {
	Field     string
	Op        Op
	Value     any
	Threshold float64
}

// Match reports whether a record passes the filter. A nil field value only
// passes IsNull; text operators compare case-insensitively on the values'
// string forms.
func (f Filter) Match(rec record.Record) bool {
	value := rec.Get(f.Field)

	switch f.Op {
	case IsNull:
		return value == nil
	case NotNull:
		return value != nil
	}
	if value == nil {
		return false
	}

	switch f.Op {
	case Eq:
		return equalOperand(value, f.Value)
	case Ne:
		return !equalOperand(value, f.Value)
	case Gt:
		return compareOperand(value, f.Value) > 0
	case Lt:
		return compareOperand(value, f.Value) < 0
	case Ge:
		return compareOperand(value, f.Value) >= 0
	case Le:
		return compareOperand(value, f.Value) <= 0
	case Between:
		bounds, ok := f.Value.([]any)
		if !ok || len(bounds) != 2 {
			return false
		}
		return compareOperand(value, bounds[0]) >= 0 && compareOperand(value, bounds[1]) <= 0
	case In:
		return containsOperand(f.Value, value)
	case NotIn:
		return !containsOperand(f.Value, value)
	case Contains:
		return strings.Contains(lowerForm(value), lowerForm(f.Value))
	case StartsWith:
		return strings.HasPrefix(lowerForm(value), lowerForm(f.Value))
	case EndsWith:
		return strings.HasSuffix(lowerForm(value), lowerForm(f.Value))
	case Fuzzy:
		return similarity(lowerForm(value), lowerForm(f.Value)) >= f.threshold()
	}
	return false
}

func (f Filter) String() string {
	switch f.Op {
	case IsNull, NotNull:
		return fmt.Sprintf("%s %s", f.Field, f.Op)
	case Fuzzy:
		return fmt.Sprintf("%s ~ %v (threshold %.2f)", f.Field, f.Value, f.threshold())
	case Between:
		if bounds, ok := f.Value.([]any); ok && len(bounds) == 2 {
			return fmt.Sprintf("%s between %v and %v", f.Field, bounds[0], bounds[1])
		}
	}
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

func (f Filter) threshold() float64 {
	if f.Threshold > 0 {
		return f.Threshold
	}
	return DEFAULT_FUZZY_THRESHOLD
}

// equalOperand matches a field value against a filter operand, reading
// operands like 20240131, "20240131" or "2024-01-31" as dates when the
// field holds one.
func equalOperand(value, operand any) bool {
	if t, ok := value.(time.Time); ok {
		if o, ok := coerceTime(operand); ok {
			return t.Equal(o)
		}
	}
	return types.Equal(value, operand)
}

func compareOperand(value, operand any) int {
	if t, ok := value.(time.Time); ok {
		if o, ok := coerceTime(operand); ok {
			return types.Compare(t, o)
		}
	}
	return types.Compare(value, operand)
}

func containsOperand(list, value any) bool {
	operands, ok := list.([]any)
	if !ok {
		return false
	}
	for _, operand := range operands {
		if equalOperand(value, operand) {
			return true
		}
	}
	return false
}

func coerceTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{"20060102", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	case int, int64, float64:
		if t, err := time.Parse("20060102", types.FormatKey(v)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func lowerForm(v any) string {
	return strings.ToLower(types.FormatKey(v))
}

// similarity is 1 - editDistance/longestLength over runes, so 1 means equal
// and 0 means nothing in common.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}
