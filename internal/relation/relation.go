// Package relation builds hash indexes over declared relationships so joins
// resolve by lookup instead of scanning.
package relation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/schema"
	"github.com/shiftdb/shiftdb/internal/types"
)

// Index maps the canonical string form of a field value to the positions of
// the records carrying it, in position order. Records whose field is nil are
// not indexed.
type Index struct {
	Table string
	Field string
	keys  map[string][]int
}

func (i *Index) Lookup(value any) []int {
	return i.keys[types.FormatKey(value)]
}

func (i *Index) Len() int { return len(i.keys) }

// Unresolved names a relationship that could not be indexed and why, usually
// because one endpoint's table failed to load.
type Unresolved struct {
	Key    string
	Reason string
}

// Set holds every field index of one load session. Indexes are built once
// against immutable tables, so lookups need no locking. A reloaded table
// means a new session and with it a fresh Set.
type Set struct {
	fields     map[string]*Index
	resolved   []string
	unresolved []Unresolved
}

// Build indexes both endpoint fields of every relationship whose two tables
// are present, scanning each indexed field once. Independent indexes build
// concurrently, capped at workers.
func Build(catalog *schema.Catalog, tables map[string]*record.LoadedTable, workers int) *Set {
	s := &Set{fields: map[string]*Index{}}

	for _, name := range catalog.Tables() {
		table, err := catalog.Resolve(name)
		if err != nil {
			continue
		}
		for _, rel := range table.Relations {
			key := rel.Key(table.Name)
			if _, ok := tables[table.Name]; !ok {
				s.unresolved = append(s.unresolved, Unresolved{key, fmt.Sprintf("table %s is unavailable", table.Name)})
				continue
			}
			if _, ok := tables[rel.Target]; !ok {
				s.unresolved = append(s.unresolved, Unresolved{key, fmt.Sprintf("table %s is unavailable", rel.Target)})
				continue
			}
			s.resolved = append(s.resolved, key)
			s.addField(table.Name, rel.Field)
			s.addField(rel.Target, rel.TargetField)
		}
	}

	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	wg := sync.WaitGroup{}
	for _, index := range s.fields {
		index := index
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			fill(index, tables[index.Table])
			<-sem
		}()
	}
	wg.Wait()

	return s
}

func (s *Set) addField(table, field string) {
	name := table + "." + field
	if _, ok := s.fields[name]; !ok {
		s.fields[name] = &Index{Table: table, Field: field, keys: map[string][]int{}}
	}
}

func fill(index *Index, table *record.LoadedTable) {
	table.Scan(func(rec record.Record) bool {
		value := rec.Get(index.Field)
		if value == nil {
			return true
		}
		key := types.FormatKey(value)
		index.keys[key] = append(index.keys[key], rec.Pos)
		return true
	})
}

// Field returns the index over "TABLE.FIELD", if that field is a
// relationship endpoint in this session.
func (s *Set) Field(table, field string) (*Index, bool) {
	index, ok := s.fields[strings.ToUpper(table)+"."+strings.ToUpper(field)]
	return index, ok
}

// Lookup resolves a relationship key like "5ABSEN.employee" against the
// catalog's declaration and returns the positions, in the relationship's
// many side table, of the records whose key field carries value. Missing
// keys return an empty list, never an error. The returned slice is shared;
// callers must not mutate it.
func (s *Set) Lookup(catalog *schema.Catalog, relKey string, value any) []int {
	owner, rel, ok := catalog.Relation(relKey)
	if !ok {
		return nil
	}
	many_table, many_field := manySide(owner, rel)
	index, ok := s.Field(many_table, many_field)
	if !ok {
		return nil
	}
	return index.Lookup(value)
}

// manySide picks the table a relationship's index answers positions in. A
// one-to-many declaration keys the target side, every other cardinality keys
// the declaring side.
func manySide(owner *schema.Table, rel schema.Relation) (table, field string) {
	if rel.Type == schema.OneToMany {
		return rel.Target, rel.TargetField
	}
	return owner.Name, rel.Field
}

// Resolved lists the relationship keys indexed in this session, in catalog
// declaration order.
func (s *Set) Resolved() []string {
	return append([]string{}, s.resolved...)
}

// Unresolved lists the relationships skipped in this session, sorted by key.
func (s *Set) Unresolved() []Unresolved {
	skipped := append([]Unresolved{}, s.unresolved...)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Key < skipped[j].Key })
	return skipped
}

// IsResolved reports whether a relationship key was indexed in this session.
func (s *Set) IsResolved(relKey string) bool {
	for _, key := range s.resolved {
		if key == relKey {
			return true
		}
	}
	return false
}
