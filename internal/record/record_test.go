package record_test

import (
	"sync"
	"testing"

	. "github.com/shiftdb/shiftdb/internal/record"
	"gotest.tools/assert"
)

const TEST_SIZE = 10

func newTestTable() *LoadedTable {
	t := NewLoadedTable("5EMPL", []string{"ID", "NAME"})
	for i := 0; i < TEST_SIZE; i++ {
		t.Insert(Record{Pos: i, Values: Values{"ID": int64(i + 1), "NAME": "employee"}})
	}
	return t
}

func TestRecord(t *testing.T) {
	rec := Record{Table: "5ABSEN", Pos: 17, Values: Values{"EMPLOYEEID": int64(3)}}

	t.Run("field access is case insensitive", func(t *testing.T) {
		assert.Equal(t, rec.Get("employeeid"), int64(3))
		assert.Assert(t, rec.Has("EmployeeId"))
		assert.Assert(t, !rec.Has("LEAVETYPID"))
		assert.Assert(t, rec.Get("LEAVETYPID") == nil)
	})

	t.Run("Ref", func(t *testing.T) {
		assert.Equal(t, rec.Ref(), "5ABSEN:17")
	})

	t.Run("Clone", func(t *testing.T) {
		clone := rec.Clone()
		clone.Values.Set("EMPLOYEEID", int64(9))
		assert.Equal(t, rec.Get("EMPLOYEEID"), int64(3))
	})
}

func TestLoadedTable(t *testing.T) {
	t.Run("Insert", func(t *testing.T) {
		table := NewLoadedTable("5EMPL", []string{"ID"})
		assert.Assert(t, table.Insert(Record{Pos: 4, Values: Values{"ID": int64(1)}}))
		assert.Assert(t, !table.Insert(Record{Pos: 4, Values: Values{"ID": int64(2)}}))
		assert.Equal(t, table.Len(), 1)

		// the table stamps its own name
		rec, ok := table.Get(4)
		assert.Assert(t, ok)
		assert.Equal(t, rec.Table, "5EMPL")
	})

	t.Run("Get", func(t *testing.T) {
		table := newTestTable()
		for i := 0; i < TEST_SIZE; i++ {
			assert.Assert(t, table.Has(i))
			rec, ok := table.Get(i)
			assert.Assert(t, ok)
			assert.Equal(t, rec.Get("ID"), int64(i+1))
		}
		_, ok := table.Get(TEST_SIZE)
		assert.Assert(t, !ok)
	})

	t.Run("Scan keeps position order", func(t *testing.T) {
		table := NewLoadedTable("5EMPL", []string{"ID"})
		for _, pos := range []int{7, 3, 5, 0} {
			table.Insert(Record{Pos: pos, Values: Values{"ID": int64(pos)}})
		}

		positions := []int{}
		table.Scan(func(rec Record) bool {
			positions = append(positions, rec.Pos)
			return true
		})
		assert.DeepEqual(t, positions, []int{0, 3, 5, 7})
	})

	t.Run("Scan stops early", func(t *testing.T) {
		table := newTestTable()
		seen := 0
		table.Scan(func(Record) bool {
			seen++
			return seen < 3
		})
		assert.Equal(t, seen, 3)
	})

	t.Run("Scan on empty table", func(t *testing.T) {
		table := NewLoadedTable("5EMPL", []string{"ID"})
		table.Scan(func(Record) bool {
			t.Fatal("scan visited a record in an empty table")
			return false
		})
	})

	t.Run("FromRecords round trip", func(t *testing.T) {
		table := newTestTable()
		rebuilt := FromRecords(table.Name, table.Fields, table.Records())
		assert.Equal(t, rebuilt.Len(), table.Len())
		assert.DeepEqual(t, rebuilt.Records(), table.Records())
	})

	t.Run("concurrent reads", func(t *testing.T) {
		table := newTestTable()
		wg := sync.WaitGroup{}
		for i := 0; i < TEST_SIZE; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, ok := table.Get(i)
				assert.Assert(t, ok)
				assert.Equal(t, rec.Pos, i)
			}()
		}
		wg.Wait()
	})
}
