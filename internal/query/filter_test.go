package query_test

import (
	"testing"
	"time"

	. "github.com/shiftdb/shiftdb/internal/query"
	"github.com/shiftdb/shiftdb/internal/record"
	"gotest.tools/assert"
)

func newTestRecord() record.Record {
	return record.Record{
		Table: "5EMPL",
		Pos:   0,
		Values: record.Values{
			"ID":       int64(1),
			"NAME":     "Mustermann",
			"HRSDAY":   7.5,
			"BIRTHDAY": time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC),
			"HIDE":     false,
			"NOTE":     nil,
		},
	}
}

func TestFilterMatch(t *testing.T) {
	rec := newTestRecord()

	match := func(field string, op Op, value any) bool {
		return Filter{Field: field, Op: op, Value: value}.Match(rec)
	}

	t.Run("equality", func(t *testing.T) {
		assert.Assert(t, match("ID", Eq, 1))
		assert.Assert(t, match("id", Eq, int64(1)))
		assert.Assert(t, match("ID", Eq, 1.0))
		assert.Assert(t, !match("ID", Eq, 2))
		assert.Assert(t, match("ID", Ne, 2))
		assert.Assert(t, match("HIDE", Eq, false))
	})

	t.Run("ordering", func(t *testing.T) {
		assert.Assert(t, match("HRSDAY", Gt, 7))
		assert.Assert(t, !match("HRSDAY", Gt, 7.5))
		assert.Assert(t, match("HRSDAY", Ge, 7.5))
		assert.Assert(t, match("HRSDAY", Lt, 8))
		assert.Assert(t, match("HRSDAY", Le, 7.5))
	})

	t.Run("between is inclusive", func(t *testing.T) {
		assert.Assert(t, match("HRSDAY", Between, []any{7.5, 8.0}))
		assert.Assert(t, match("HRSDAY", Between, []any{7, 8}))
		assert.Assert(t, !match("HRSDAY", Between, []any{8, 9}))
	})

	t.Run("set membership", func(t *testing.T) {
		assert.Assert(t, match("ID", In, []any{int64(1), int64(3)}))
		assert.Assert(t, !match("ID", In, []any{int64(2)}))
		assert.Assert(t, match("ID", NotIn, []any{int64(2)}))
		assert.Assert(t, !match("ID", In, 1))
	})

	t.Run("text operators ignore case", func(t *testing.T) {
		assert.Assert(t, match("NAME", Contains, "muster"))
		assert.Assert(t, match("NAME", Contains, "MANN"))
		assert.Assert(t, !match("NAME", Contains, "beispiel"))
		assert.Assert(t, match("NAME", StartsWith, "mus"))
		assert.Assert(t, !match("NAME", StartsWith, "mann"))
		assert.Assert(t, match("NAME", EndsWith, "MANN"))
	})

	t.Run("null checks", func(t *testing.T) {
		assert.Assert(t, match("NOTE", IsNull, nil))
		assert.Assert(t, !match("NAME", IsNull, nil))
		assert.Assert(t, match("NAME", NotNull, nil))
		// nil values fail every other operator
		assert.Assert(t, !match("NOTE", Eq, nil))
		assert.Assert(t, !match("NOTE", Contains, ""))
	})

	t.Run("dates accept textual and numeric operands", func(t *testing.T) {
		assert.Assert(t, match("BIRTHDAY", Eq, "1980-01-15"))
		assert.Assert(t, match("BIRTHDAY", Eq, "19800115"))
		assert.Assert(t, match("BIRTHDAY", Eq, 19800115))
		assert.Assert(t, match("BIRTHDAY", Between, []any{19800101, 19800131}))
		assert.Assert(t, !match("BIRTHDAY", Between, []any{19800116, 19800131}))
		assert.Assert(t, match("BIRTHDAY", Lt, "1990-01-01"))
	})

	t.Run("fuzzy similarity", func(t *testing.T) {
		assert.Assert(t, match("NAME", Fuzzy, "mustermann"))
		assert.Assert(t, match("NAME", Fuzzy, "Musterman"))
		assert.Assert(t, !match("NAME", Fuzzy, "Beispiel"))

		strict := Filter{Field: "NAME", Op: Fuzzy, Value: "Musterman", Threshold: 0.95}
		assert.Assert(t, !strict.Match(rec))
		loose := Filter{Field: "NAME", Op: Fuzzy, Value: "Musterman", Threshold: 0.5}
		assert.Assert(t, loose.Match(rec))
	})
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, Filter{Field: "ID", Op: Eq, Value: 1}.String(), "ID = 1")
	assert.Equal(t, Filter{Field: "NOTE", Op: IsNull}.String(), "NOTE is null")
	assert.Equal(t,
		Filter{Field: "D", Op: Between, Value: []any{1, 5}}.String(),
		"D between 1 and 5")
	assert.Equal(t,
		Filter{Field: "NAME", Op: Fuzzy, Value: "x", Threshold: 0.8}.String(),
		"NAME ~ x (threshold 0.80)")
}
