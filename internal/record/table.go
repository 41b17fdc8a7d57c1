package record

import (
	"time"

	sorted "github.com/tobshub/go-sortedmap"
)

// LoadedTable holds every active record of one table file, keyed and ordered
// by file position. It is assembled once during a load and read-only from
// then on, so reads need no locking.
type LoadedTable struct {
	Name      string
	Fields    []string
	Hash      string
	DecodedAt time.Time
	// Advisory carries a non-fatal warning from decoding, such as a
	// permissive text encoding fallback.
	Advisory string

	rows  *sorted.SortedMap[int, Record]
	count int
}

func recordPosComparisonFunc(a, b Record) bool {
	return a.Pos < b.Pos
}

func NewLoadedTable(name string, fields []string) *LoadedTable {
	return &LoadedTable{
		Name:   name,
		Fields: append([]string{}, fields...),
		rows:   sorted.New[int, Record](0, recordPosComparisonFunc),
	}
}

// FromRecords rebuilds a table from a flat record slice, e.g. one decoded
// from a cache blob.
func FromRecords(name string, fields []string, records []Record) *LoadedTable {
	t := NewLoadedTable(name, fields)
	for _, rec := range records {
		t.Insert(rec)
	}
	return t
}

func (t *LoadedTable) Insert(rec Record) bool {
	rec.Table = t.Name
	if !t.rows.Insert(rec.Pos, rec) {
		return false
	}
	t.count++
	return true
}

func (t *LoadedTable) Get(pos int) (Record, bool) {
	return t.rows.Get(pos)
}

func (t *LoadedTable) Has(pos int) bool {
	_, ok := t.rows.Get(pos)
	return ok
}

func (t *LoadedTable) Len() int { return t.count }

// Scan visits every record in position order until fn returns false.
func (t *LoadedTable) Scan(fn func(Record) bool) {
	iter, err := t.rows.IterCh()
	if err != nil {
		// empty table
		return
	}
	defer iter.Close()

	for entry := range iter.Records() {
		if !fn(entry.Val) {
			break
		}
	}
}

// Records returns every record in position order.
func (t *LoadedTable) Records() []Record {
	records := make([]Record, 0, t.count)
	t.Scan(func(rec Record) bool {
		records = append(records, rec)
		return true
	})
	return records
}
