package query

import (
	"strings"
	"time"

	"github.com/shiftdb/shiftdb/internal/record"
)

// Row is one result row: a base record plus any joined records keyed by
// their table name, or an aggregated row keyed by group field and alias.
type Row struct {
	Record record.Record
	Joined map[string]record.Record
	Agg    record.Values
}

// Get reads a field case-insensitively. Aggregated rows answer by group
// field or measure alias; qualified names like "5EMPL.NAME" read a joined
// table's record.
func (r Row) Get(field string) any {
	if r.Agg != nil {
		return r.Agg.Get(strings.ToUpper(field))
	}
	if table, name, qualified := strings.Cut(field, "."); qualified {
		table = strings.ToUpper(table)
		if table == r.Record.Table {
			return r.Record.Get(name)
		}
		if joined, ok := r.Joined[table]; ok {
			return joined.Get(name)
		}
		return nil
	}
	return r.Record.Get(field)
}

// Related returns the record a join attached under the given table name.
func (r Row) Related(table string) (record.Record, bool) {
	rec, ok := r.Joined[strings.ToUpper(table)]
	return rec, ok
}

func (r Row) IsAggregated() bool { return r.Agg != nil }

func (r Row) attach(table string, match record.Record) Row {
	joined := make(map[string]record.Record, len(r.Joined)+1)
	for name, rec := range r.Joined {
		joined[name] = rec
	}
	joined[table] = match
	return Row{Record: r.Record, Joined: joined}
}

// Result is an immutable query outcome: ordered rows plus the provenance of
// how they were produced.
type Result struct {
	table    string
	columns  []string
	rows     []Row
	applied  []string
	duration time.Duration
}

func (r *Result) Table() string { return r.table }

func (r *Result) Len() int { return len(r.rows) }

func (r *Result) Row(i int) Row { return r.rows[i] }

// Rows copies the row slice so callers cannot reorder a shared result.
func (r *Result) Rows() []Row { return append([]Row{}, r.rows...) }

// Columns lists the output fields in display order: the base table's fields
// plus one qualified column per joined field, or the group fields and
// aliases when aggregated.
func (r *Result) Columns() []string { return append([]string{}, r.columns...) }

// Provenance lists the applied operations in execution order.
func (r *Result) Provenance() []string { return append([]string{}, r.applied...) }

func (r *Result) Duration() time.Duration { return r.duration }
