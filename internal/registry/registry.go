// Package registry loads a directory of table files into an immutable
// session: dependency-ordered, level-parallel, cache-backed, with per-table
// failure isolation.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shiftdb/shiftdb/internal/cache"
	"github.com/shiftdb/shiftdb/internal/dbf"
	"github.com/shiftdb/shiftdb/internal/record"
	"github.com/shiftdb/shiftdb/internal/relation"
	"github.com/shiftdb/shiftdb/internal/schema"
)

const DEFAULT_WORKERS = 4

type Registry struct {
	catalog *schema.Catalog
	cache   *cache.Cache
	workers int
	only    []string
}

type Option func(*Registry)

// WithCache makes loads consult and feed a persistent decode cache.
func WithCache(c *cache.Cache) Option {
	return func(r *Registry) { r.cache = c }
}

// WithWorkers caps how many tables load concurrently within one dependency
// level.
func WithWorkers(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithTables caps a load to the named tables plus everything they reference,
// so their relationships still resolve.
func WithTables(names ...string) Option {
	return func(r *Registry) {
		for _, name := range names {
			r.only = append(r.only, strings.ToUpper(name))
		}
	}
}

func New(catalog *schema.Catalog, opts ...Option) *Registry {
	r := &Registry{catalog: catalog, workers: DEFAULT_WORKERS}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadAll decodes every catalog table found in dir and returns the finished
// session. A table that fails to decode is recorded as failed and skipped by
// the relationship indexes; it never aborts the rest of the load. The only
// error LoadAll itself returns is a cancelled or expired context.
func (r *Registry) LoadAll(ctx context.Context, dir string) (*Session, error) {
	files, err := tableFiles(dir)
	if err != nil {
		return nil, &DependencyError{Reason: fmt.Sprintf("cannot read source directory %s: %s", dir, err)}
	}

	session := &Session{
		ID:       uuid.NewString(),
		Dir:      dir,
		LoadedAt: time.Now().UTC(),
		catalog:  r.catalog,
		tables:   map[string]*record.LoadedTable{},
		statuses: map[string]*TableStatus{},
	}

	wanted := r.wantedTables()

	for _, level := range r.catalog.Levels() {
		group, group_ctx := errgroup.WithContext(ctx)
		group.SetLimit(r.workers)

		for _, name := range level {
			if !wanted[name] {
				continue
			}
			name := name
			group.Go(func() error {
				if err := group_ctx.Err(); err != nil {
					return err
				}
				session.record(r.loadTable(dir, files, name))
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, &DependencyError{Reason: fmt.Sprintf("load of %s aborted: %s", dir, err)}
		}
	}

	session.indexes = relation.Build(r.catalog, session.tables, r.workers)
	return session, nil
}

// wantedTables expands the WithTables cap to its transitive dependencies, or
// selects everything when no cap is set.
func (r *Registry) wantedTables() map[string]bool {
	wanted := map[string]bool{}
	if len(r.only) == 0 {
		for _, name := range r.catalog.Tables() {
			wanted[name] = true
		}
		return wanted
	}

	var visit func(string)
	visit = func(name string) {
		if wanted[name] {
			return
		}
		table, err := r.catalog.Resolve(name)
		if err != nil {
			return
		}
		wanted[table.Name] = true
		for _, dep := range table.Dependencies() {
			visit(dep)
		}
	}
	for _, name := range r.only {
		visit(name)
	}
	return wanted
}

func (r *Registry) loadTable(dir string, files map[string]string, name string) *TableStatus {
	status := &TableStatus{Table: name}

	desc, err := r.catalog.Resolve(name)
	if err != nil {
		status.Status = StatusFailed
		status.Err = err
		return status
	}

	file, ok := files[strings.ToUpper(desc.File)+".DBF"]
	if !ok {
		if desc.Optional {
			status.Status = StatusMissing
			log.Debugf("optional table %s has no file in %s", name, dir)
			return status
		}
		status.Status = StatusFailed
		status.Err = &DependencyError{Table: name, Reason: fmt.Sprintf("no %s.DBF in %s", desc.File, dir)}
		log.Warnf("%s", status.Err)
		return status
	}
	status.File = file

	data, err := os.ReadFile(file)
	if err != nil {
		status.Status = StatusFailed
		status.Err = err
		log.Warnf("table %s: %s", name, err)
		return status
	}

	sum := sha256.Sum256(data)
	status.Hash = hex.EncodeToString(sum[:])

	records, entry, hit, err := r.fetch(desc, status.Hash, data)
	if err != nil {
		status.Status = StatusFailed
		status.Err = err
		log.Warnf("table %s: %s", name, err)
		return status
	}

	table := record.FromRecords(name, desc.FieldNames(), records)
	table.Hash = status.Hash
	table.DecodedAt = entry.DecodedAt
	table.Advisory = entry.Advisory

	status.Status = StatusLoaded
	status.Records = table.Len()
	status.CacheHit = hit
	status.Advisory = entry.Advisory
	status.DecodedAt = entry.DecodedAt
	status.table = table

	if entry.Advisory != "" {
		log.Warnf("table %s: %s", name, entry.Advisory)
	}
	log.Debugf("loaded %s: %d records, hash %.8s, cache hit %t", name, status.Records, status.Hash, hit)
	return status
}

// fetch runs the decode through the cache when one is configured.
func (r *Registry) fetch(desc *schema.Table, hash string, data []byte) ([]record.Record, cache.Entry, bool, error) {
	decode := func() ([]record.Record, string, error) {
		return dbf.Decode(data, desc)
	}

	if r.cache == nil {
		records, advisory, err := decode()
		if err != nil {
			return nil, cache.Entry{}, false, err
		}
		entry := cache.Entry{
			Table:     desc.Name,
			Hash:      hash,
			Records:   len(records),
			DecodedAt: time.Now().UTC(),
			Advisory:  advisory,
		}
		return records, entry, false, nil
	}

	result, err := r.cache.Fetch(desc.Name, hash, decode)
	if err != nil {
		return nil, cache.Entry{}, false, err
	}
	return result.Records, result.Entry, result.Hit, nil
}

// tableFiles enumerates dir and maps upper-cased file names to their paths.
// Unrecognized files are simply never looked up.
func tableFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files[strings.ToUpper(entry.Name())] = path.Join(dir, entry.Name())
	}
	return files, nil
}
