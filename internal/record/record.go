package record

import (
	"fmt"
	"strings"

	"github.com/shiftdb/shiftdb/pkg"
)

// Maps a field name to its decoded value. Values hold string, int64,
// float64, bool, time.Time or nil, depending on the field type.
type Values = pkg.Map[string, any]

// Record is one row of a table. A record is identified by the table it
// belongs to and its position in the table file; positions of deleted rows
// are never reused, so they stay stable across reloads of the same file.
type Record struct {
	Table  string
	Pos    int
	Values Values
}

func (r Record) Get(field string) any {
	return r.Values.Get(strings.ToUpper(field))
}

func (r Record) Has(field string) bool {
	return r.Values.Has(strings.ToUpper(field))
}

// Ref returns the record identity as "TABLE:pos", e.g. "5ABSEN:17".
func (r Record) Ref() string {
	return fmt.Sprintf("%s:%d", r.Table, r.Pos)
}

func (r Record) Clone() Record {
	return Record{Table: r.Table, Pos: r.Pos, Values: r.Values.Clone()}
}
