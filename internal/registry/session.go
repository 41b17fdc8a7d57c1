package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/relation"
	"github.com/shiftdb/shiftdb/internal/schema"
)

type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
	StatusMissing Status = "missing"
)

// TableStatus is the load outcome of one table. Failed tables keep their
// error here; the session itself never fails over a single table.
type TableStatus struct {
	Table     string
	Status    Status
	Err       error
	File      string
	Hash      string
	Records   int
	CacheHit  bool
	Advisory  string
	DecodedAt time.Time

	table *record.LoadedTable
}

// Session is one finished load: an immutable snapshot of every table decoded
// from a source directory plus the relationship indexes over them. Queries
// against a session stay consistent even while a newer session is loading,
// since a reload builds a whole new session.
type Session struct {
	ID       string
	Dir      string
	LoadedAt time.Time

	catalog  *schema.Catalog
	locker   sync.Mutex
	tables   map[string]*record.LoadedTable
	statuses map[string]*TableStatus
	indexes  *relation.Set
}

// record stores one load outcome; it is the only mutation a session sees,
// and only while LoadAll is still running.
func (s *Session) record(status *TableStatus) {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.statuses[status.Table] = status
	if status.table != nil {
		s.tables[status.Table] = status.table
	}
}

// Table returns a loaded table. Asking for a table the catalog does not
// declare, or one that failed or was never loaded, fails with
// DependencyError.
func (s *Session) Table(name string) (*record.LoadedTable, error) {
	name = strings.ToUpper(name)
	if !s.catalog.Has(name) {
		return nil, &DependencyError{Table: name, Reason: "not declared in the catalog"}
	}

	status, ok := s.statuses[name]
	if !ok {
		return nil, &DependencyError{Table: name, Reason: "not part of this load session"}
	}

	switch status.Status {
	case StatusLoaded:
		return status.table, nil
	case StatusMissing:
		return nil, &DependencyError{Table: name, Reason: "no source file"}
	default:
		return nil, &DependencyError{Table: name, Reason: fmt.Sprintf("failed to load: %s", status.Err)}
	}
}

func (s *Session) Status(name string) (*TableStatus, bool) {
	status, ok := s.statuses[strings.ToUpper(name)]
	return status, ok
}

// Statuses lists every table's outcome in catalog declaration order.
func (s *Session) Statuses() []*TableStatus {
	statuses := []*TableStatus{}
	for _, name := range s.catalog.Tables() {
		if status, ok := s.statuses[name]; ok {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

// Loaded lists the names of the tables available for queries, in catalog
// declaration order.
func (s *Session) Loaded() []string {
	loaded := []string{}
	for _, status := range s.Statuses() {
		if status.Status == StatusLoaded {
			loaded = append(loaded, status.Table)
		}
	}
	return loaded
}

// Failed lists the tables that did not load, missing optional files
// excluded.
func (s *Session) Failed() []*TableStatus {
	failed := []*TableStatus{}
	for _, status := range s.Statuses() {
		if status.Status == StatusFailed {
			failed = append(failed, status)
		}
	}
	return failed
}

func (s *Session) Indexes() *relation.Set { return s.indexes }

func (s *Session) Catalog() *schema.Catalog { return s.catalog }

// DependencyError reports a request that a load session cannot serve:
// an undeclared table, a table that failed to load, or an aborted load.
type DependencyError struct {
	Table  string
	Reason string
}

func (e *DependencyError) Error() string {
	if e.Table == "" {
		return "load: " + e.Reason
	}
	return fmt.Sprintf("table %s: %s", e.Table, e.Reason)
}
