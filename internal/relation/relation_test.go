package relation_test

import (
	"testing"

	"github.com/shiftdb/shiftdb/internal/record"
	. "github.com/shiftdb/shiftdb/internal/relation"
	"github.com/shiftdb/shiftdb/internal/schema"
	"github.com/shiftdb/shiftdb/internal/types"
	"gotest.tools/assert"
)

func newTestCatalog(t *testing.T) *schema.Catalog {
	t.Helper()

	empl := schema.NewTable("5EMPL",
		schema.Field{Name: "ID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "NAME", Type: types.FieldTypeCharacter})
	empl.Relations = []schema.Relation{
		{Name: "absences", Field: "ID", Target: "5ABSEN", TargetField: "EMPLOYEEID", Type: schema.OneToMany},
	}

	absen := schema.NewTable("5ABSEN",
		schema.Field{Name: "ID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "EMPLOYEEID", Type: types.FieldTypeNumeric})
	absen.Relations = []schema.Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: schema.ManyToOne},
	}

	c := schema.NewCatalog()
	assert.NilError(t, c.Register(empl))
	assert.NilError(t, c.Register(absen))
	assert.NilError(t, c.Finish())
	return c
}

func newTestTables() map[string]*record.LoadedTable {
	empl := record.NewLoadedTable("5EMPL", []string{"ID", "NAME"})
	empl.Insert(record.Record{Pos: 0, Values: record.Values{"ID": int64(1), "NAME": "Mustermann"}})
	empl.Insert(record.Record{Pos: 1, Values: record.Values{"ID": int64(2), "NAME": "Beispiel"}})

	absen := record.NewLoadedTable("5ABSEN", []string{"ID", "EMPLOYEEID"})
	absen.Insert(record.Record{Pos: 0, Values: record.Values{"ID": int64(10), "EMPLOYEEID": int64(1)}})
	absen.Insert(record.Record{Pos: 1, Values: record.Values{"ID": int64(11), "EMPLOYEEID": int64(1)}})
	absen.Insert(record.Record{Pos: 2, Values: record.Values{"ID": int64(12), "EMPLOYEEID": int64(2)}})
	absen.Insert(record.Record{Pos: 3, Values: record.Values{"ID": int64(13), "EMPLOYEEID": nil}})

	return map[string]*record.LoadedTable{"5EMPL": empl, "5ABSEN": absen}
}

func TestBuild(t *testing.T) {
	catalog := newTestCatalog(t)
	tables := newTestTables()
	set := Build(catalog, tables, 4)

	t.Run("resolved relationships", func(t *testing.T) {
		assert.DeepEqual(t, set.Resolved(), []string{"5EMPL.absences", "5ABSEN.employee"})
		assert.Assert(t, set.IsResolved("5ABSEN.employee"))
		assert.Equal(t, len(set.Unresolved()), 0)
	})

	t.Run("lookup returns every match in position order", func(t *testing.T) {
		positions := set.Lookup(catalog, "5ABSEN.employee", int64(1))
		assert.DeepEqual(t, positions, []int{0, 1})

		for _, pos := range positions {
			rec, ok := tables["5ABSEN"].Get(pos)
			assert.Assert(t, ok)
			assert.Equal(t, rec.Get("EMPLOYEEID"), int64(1))
		}
	})

	t.Run("absent key returns empty", func(t *testing.T) {
		assert.Equal(t, len(set.Lookup(catalog, "5ABSEN.employee", int64(99))), 0)
		assert.Equal(t, len(set.Lookup(catalog, "5ABSEN.nope", int64(1))), 0)
	})

	t.Run("numeric keys collide across widths", func(t *testing.T) {
		assert.DeepEqual(t, set.Lookup(catalog, "5ABSEN.employee", float64(1)), []int{0, 1})
		assert.DeepEqual(t, set.Lookup(catalog, "5ABSEN.employee", 1), []int{0, 1})
	})

	t.Run("nil keys are not indexed", func(t *testing.T) {
		index, ok := set.Field("5ABSEN", "EMPLOYEEID")
		assert.Assert(t, ok)
		assert.Equal(t, index.Len(), 2)
	})

	t.Run("one to many keys the target side", func(t *testing.T) {
		assert.DeepEqual(t, set.Lookup(catalog, "5EMPL.absences", int64(2)), []int{2})
	})

	t.Run("endpoint field indexes", func(t *testing.T) {
		index, ok := set.Field("5empl", "id")
		assert.Assert(t, ok)
		assert.DeepEqual(t, index.Lookup(int64(2)), []int{1})

		_, ok = set.Field("5EMPL", "NAME")
		assert.Assert(t, !ok)
	})
}

func TestBuildUnavailableEndpoint(t *testing.T) {
	catalog := newTestCatalog(t)
	tables := newTestTables()
	delete(tables, "5EMPL")

	set := Build(catalog, tables, 2)

	assert.Equal(t, len(set.Resolved()), 0)
	assert.Assert(t, !set.IsResolved("5ABSEN.employee"))

	skipped := set.Unresolved()
	assert.Equal(t, len(skipped), 2)
	assert.Equal(t, skipped[0].Key, "5ABSEN.employee")
	assert.Equal(t, skipped[0].Reason, "table 5EMPL is unavailable")
	assert.Equal(t, skipped[1].Key, "5EMPL.absences")

	assert.Equal(t, len(set.Lookup(catalog, "5ABSEN.employee", int64(1))), 0)

	_, ok := set.Field("5ABSEN", "EMPLOYEEID")
	assert.Assert(t, !ok)
}
