package registry_test

import (
	"context"
	"encoding/binary"
	"os"
	"path"
	"sync"
	"testing"

	"github.com/shiftdb/shiftdb/internal/cache"
	"github.com/shiftdb/shiftdb/internal/dbf"
	. "github.com/shiftdb/shiftdb/internal/registry"
	"github.com/shiftdb/shiftdb/internal/schema"
	"github.com/shiftdb/shiftdb/internal/types"
	"gotest.tools/assert"
)

func newTestCatalog(t *testing.T) *schema.Catalog {
	t.Helper()

	empl := schema.NewTable("5EMPL",
		schema.Field{Name: "ID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "NAME", Type: types.FieldTypeCharacter})
	empl.Required = []string{"ID", "NAME"}

	leavt := schema.NewTable("5LEAVT",
		schema.Field{Name: "ID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "NAME", Type: types.FieldTypeCharacter})

	absen := schema.NewTable("5ABSEN",
		schema.Field{Name: "ID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "EMPLOYEEID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "LEAVETYPID", Type: types.FieldTypeNumeric})
	absen.Relations = []schema.Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: schema.ManyToOne},
		{Name: "leave_type", Field: "LEAVETYPID", Target: "5LEAVT", TargetField: "ID", Type: schema.ManyToOne},
	}

	book := schema.NewTable("5BOOK",
		schema.Field{Name: "ID", Type: types.FieldTypeNumeric},
		schema.Field{Name: "EMPLOYEEID", Type: types.FieldTypeNumeric})
	book.Optional = true
	book.Relations = []schema.Relation{
		{Name: "employee", Field: "EMPLOYEEID", Target: "5EMPL", TargetField: "ID", Type: schema.ManyToOne},
	}

	c := schema.NewCatalog()
	for _, table := range []*schema.Table{empl, leavt, absen, book} {
		assert.NilError(t, c.Register(table))
	}
	assert.NilError(t, c.Finish())
	return c
}

type testField struct {
	name   string
	typ    byte
	length int
}

// encodeTable builds a minimal table file: header, descriptors, terminator,
// space padded records, EOF marker.
func encodeTable(fields []testField, rows ...[]string) []byte {
	record_len := 1
	for _, f := range fields {
		record_len += f.length
	}
	data_offset := 32 + 32*len(fields) + 1

	header := make([]byte, 32)
	header[0] = 0x03
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(data_offset))
	binary.LittleEndian.PutUint16(header[10:12], uint16(record_len))

	data := append([]byte{}, header...)
	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc, f.name)
		desc[11] = f.typ
		desc[16] = byte(f.length)
		data = append(data, desc...)
	}
	data = append(data, 0x0D)

	for _, row := range rows {
		data = append(data, ' ')
		for i, f := range fields {
			cell := make([]byte, f.length)
			for j := range cell {
				cell[j] = ' '
			}
			if i < len(row) {
				copy(cell, row[i])
			}
			data = append(data, cell...)
		}
	}
	return append(data, 0x1A)
}

func writeSourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	empl := encodeTable([]testField{{"ID", 'N', 6}, {"NAME", 'C', 12}},
		[]string{"1", "Mustermann"},
		[]string{"2", "Beispiel"})
	// lower case name, the registry matches case-insensitively
	assert.NilError(t, os.WriteFile(path.Join(dir, "5empl.dbf"), empl, 0644))

	leavt := encodeTable([]testField{{"ID", 'N', 6}, {"NAME", 'C', 12}},
		[]string{"1", "Urlaub"})
	assert.NilError(t, os.WriteFile(path.Join(dir, "5LEAVT.DBF"), leavt, 0644))

	absen := encodeTable([]testField{{"ID", 'N', 6}, {"EMPLOYEEID", 'N', 6}, {"LEAVETYPID", 'N', 6}},
		[]string{"10", "1", "1"},
		[]string{"11", "1", "1"},
		[]string{"12", "2", "1"})
	assert.NilError(t, os.WriteFile(path.Join(dir, "5ABSEN.DBF"), absen, 0644))

	// a file no catalog entry matches
	assert.NilError(t, os.WriteFile(path.Join(dir, "README.txt"), []byte("notes"), 0644))
	return dir
}

func TestLoadAll(t *testing.T) {
	t.Run("loads every table", func(t *testing.T) {
		dir := writeSourceDir(t)
		r := New(newTestCatalog(t))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)
		assert.Assert(t, session.ID != "")
		assert.DeepEqual(t, session.Loaded(), []string{"5EMPL", "5LEAVT", "5ABSEN"})

		empl, err := session.Table("5EMPL")
		assert.NilError(t, err)
		assert.Equal(t, empl.Len(), 2)

		rec, ok := empl.Get(0)
		assert.Assert(t, ok)
		assert.Equal(t, rec.Get("NAME"), "Mustermann")

		status, ok := session.Status("5EMPL")
		assert.Assert(t, ok)
		assert.Equal(t, status.Status, StatusLoaded)
		assert.Assert(t, status.Hash != "")
		assert.Assert(t, !status.CacheHit)

		assert.Assert(t, session.Indexes().IsResolved("5ABSEN.employee"))
		positions := session.Indexes().Lookup(session.Catalog(), "5ABSEN.employee", int64(1))
		assert.DeepEqual(t, positions, []int{0, 1})
	})

	t.Run("missing optional table", func(t *testing.T) {
		dir := writeSourceDir(t)
		r := New(newTestCatalog(t))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		status, ok := session.Status("5BOOK")
		assert.Assert(t, ok)
		assert.Equal(t, status.Status, StatusMissing)
		assert.Equal(t, len(session.Failed()), 0)

		_, err = session.Table("5BOOK")
		assert.ErrorContains(t, err, "no source file")
	})

	t.Run("missing required table fails only itself", func(t *testing.T) {
		dir := writeSourceDir(t)
		assert.NilError(t, os.Remove(path.Join(dir, "5LEAVT.DBF")))
		r := New(newTestCatalog(t))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		status, _ := session.Status("5LEAVT")
		assert.Equal(t, status.Status, StatusFailed)
		_, err = session.Table("5LEAVT")
		assert.ErrorContains(t, err, "no 5LEAVT.DBF")

		assert.DeepEqual(t, session.Loaded(), []string{"5EMPL", "5ABSEN"})
	})

	t.Run("corrupt table is isolated", func(t *testing.T) {
		dir := writeSourceDir(t)
		assert.NilError(t, os.WriteFile(path.Join(dir, "5empl.dbf"), []byte("not a table"), 0644))
		r := New(newTestCatalog(t))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		status, _ := session.Status("5EMPL")
		assert.Equal(t, status.Status, StatusFailed)
		_, is_decode := status.Err.(*dbf.DecodeError)
		assert.Assert(t, is_decode)

		// unrelated tables still loaded
		assert.DeepEqual(t, session.Loaded(), []string{"5LEAVT", "5ABSEN"})

		// relationships touching the broken table stay unresolved
		assert.Assert(t, !session.Indexes().IsResolved("5ABSEN.employee"))
		assert.Assert(t, session.Indexes().IsResolved("5ABSEN.leave_type"))

		_, err = session.Table("5EMPL")
		_, is_dependency := err.(*DependencyError)
		assert.Assert(t, is_dependency)
	})

	t.Run("undeclared table", func(t *testing.T) {
		dir := writeSourceDir(t)
		r := New(newTestCatalog(t))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		_, err = session.Table("5NOPE")
		assert.ErrorContains(t, err, "not declared in the catalog")
		assert.DeepEqual(t, session.Loaded(), []string{"5EMPL", "5LEAVT", "5ABSEN"})
	})

	t.Run("capped load pulls dependencies in", func(t *testing.T) {
		dir := writeSourceDir(t)
		r := New(newTestCatalog(t), WithTables("5absen"))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)
		assert.DeepEqual(t, session.Loaded(), []string{"5EMPL", "5LEAVT", "5ABSEN"})

		_, ok := session.Status("5BOOK")
		assert.Assert(t, !ok)
		_, err = session.Table("5BOOK")
		assert.ErrorContains(t, err, "not part of this load session")
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		dir := writeSourceDir(t)
		r := New(newTestCatalog(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.LoadAll(ctx, dir)
		_, is_dependency := err.(*DependencyError)
		assert.Assert(t, is_dependency)
		assert.ErrorContains(t, err, "aborted")
	})

	t.Run("unreadable directory", func(t *testing.T) {
		r := New(newTestCatalog(t))
		_, err := r.LoadAll(context.Background(), path.Join(t.TempDir(), "absent"))
		assert.ErrorContains(t, err, "cannot read source directory")
	})
}

func TestLoadAllWithCache(t *testing.T) {
	t.Run("second load hits", func(t *testing.T) {
		dir := writeSourceDir(t)
		store, err := cache.Open(t.TempDir())
		assert.NilError(t, err)
		r := New(newTestCatalog(t), WithCache(store))

		first, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)
		second, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		for _, name := range []string{"5EMPL", "5LEAVT", "5ABSEN"} {
			first_status, _ := first.Status(name)
			second_status, _ := second.Status(name)
			assert.Assert(t, !first_status.CacheHit)
			assert.Assert(t, second_status.CacheHit, name)
			assert.Equal(t, first_status.DecodedAt, second_status.DecodedAt)

			first_table, err := first.Table(name)
			assert.NilError(t, err)
			second_table, err := second.Table(name)
			assert.NilError(t, err)
			assert.DeepEqual(t, first_table.Records(), second_table.Records())
		}
	})

	t.Run("changed file decodes fresh", func(t *testing.T) {
		dir := writeSourceDir(t)
		store, err := cache.Open(t.TempDir())
		assert.NilError(t, err)
		r := New(newTestCatalog(t), WithCache(store))

		_, err = r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		empl := encodeTable([]testField{{"ID", 'N', 6}, {"NAME", 'C', 12}},
			[]string{"1", "Mustermann"},
			[]string{"2", "Beispiel"},
			[]string{"3", "Schmidt"})
		assert.NilError(t, os.WriteFile(path.Join(dir, "5empl.dbf"), empl, 0644))

		session, err := r.LoadAll(context.Background(), dir)
		assert.NilError(t, err)

		status, _ := session.Status("5EMPL")
		assert.Assert(t, !status.CacheHit)
		assert.Equal(t, status.Records, 3)
	})

	t.Run("concurrent loads decode each table once", func(t *testing.T) {
		dir := writeSourceDir(t)
		store, err := cache.Open(t.TempDir())
		assert.NilError(t, err)
		r := New(newTestCatalog(t), WithCache(store))

		sessions := make([]*Session, 2)
		wg := sync.WaitGroup{}
		for i := 0; i < 2; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				session, err := r.LoadAll(context.Background(), dir)
				assert.NilError(t, err)
				sessions[i] = session
			}()
		}
		wg.Wait()

		// a shared decode or a cache hit both leave the same manifest
		// entry; a second decode would carry its own timestamp
		for _, name := range []string{"5EMPL", "5LEAVT", "5ABSEN"} {
			first_status, _ := sessions[0].Status(name)
			second_status, _ := sessions[1].Status(name)
			assert.Equal(t, first_status.DecodedAt, second_status.DecodedAt)
			assert.DeepEqual(t, first_status.Hash, second_status.Hash)
		}
	})
}
