// Package cache persists decoded tables keyed by source content hash, so an
// unchanged table file is never decoded twice.
package cache

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/shiftdb/shiftdb/internal/record"
)

const manifestFile = "manifest.json"

// Entry describes one cached table in the manifest.
type Entry struct {
	Table     string    `json:"table"`
	Hash      string    `json:"hash"`
	Records   int       `json:"records"`
	DecodedAt time.Time `json:"decoded_at"`
	Advisory  string    `json:"advisory,omitempty"`
}

type manifest struct {
	Tables map[string]Entry `json:"tables"`
}

// blob is the gob payload per table. It repeats the hash so a swapped or
// stale blob file is detected independently of the manifest.
type blob struct {
	Hash    string
	Records []record.Record
}

type Cache struct {
	dir string

	locker  sync.RWMutex
	entries map[string]Entry

	group singleflight.Group
}

func GobRegisterTypes() {
	gob.Register(int64(0))
	gob.Register(float64(0.))
	gob.Register(string(""))
	gob.Register(time.Time{})
	gob.Register(bool(false))
}

// Open loads the manifest from dir, creating the directory when needed. A
// missing or corrupt manifest starts the cache empty; integrity problems are
// always treated as misses, never as errors.
func Open(dir string) (*Cache, error) {
	GobRegisterTypes()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	c := &Cache{dir: dir, entries: map[string]Entry{}}

	data, err := os.ReadFile(path.Join(dir, manifestFile))
	if err != nil {
		return c, nil
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		log.Debugf("ignoring corrupt cache manifest in %s: %s", dir, err)
		return c, nil
	}
	if m.Tables != nil {
		c.entries = m.Tables
	}
	return c, nil
}

func (c *Cache) Dir() string { return c.dir }

// Verify reports whether the cache holds table at exactly this hash, without
// reading the blob.
func (c *Cache) Verify(table, hash string) bool {
	c.locker.RLock()
	defer c.locker.RUnlock()
	entry, ok := c.entries[table]
	return ok && entry.Hash == hash
}

func (c *Cache) Entry(table string) (Entry, bool) {
	c.locker.RLock()
	defer c.locker.RUnlock()
	entry, ok := c.entries[table]
	return entry, ok
}

// Entries lists the manifest sorted by table name.
func (c *Cache) Entries() []Entry {
	c.locker.RLock()
	defer c.locker.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Table < entries[j].Table })
	return entries
}

// Get returns the cached records for table when the stored hash matches.
// Every failure mode here, missing blob, bad gob, hash drift, is a miss.
func (c *Cache) Get(table, hash string) ([]record.Record, bool) {
	if !c.Verify(table, hash) {
		return nil, false
	}

	data, err := os.ReadFile(c.blobPath(table))
	if err != nil {
		return nil, false
	}

	var b blob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		log.Debugf("ignoring corrupt cache blob for %s: %s", table, err)
		return nil, false
	}
	if b.Hash != hash {
		log.Debugf("cache blob for %s carries hash %.8s, want %.8s", table, b.Hash, hash)
		return nil, false
	}
	return b.Records, true
}

// Put stores a decoded table and updates the manifest.
func (c *Cache) Put(table, hash, advisory string, records []record.Record) (Entry, error) {
	entry := Entry{
		Table:     table,
		Hash:      hash,
		Records:   len(records),
		DecodedAt: time.Now().UTC(),
		Advisory:  advisory,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blob{Hash: hash, Records: records}); err != nil {
		return Entry{}, err
	}
	if err := os.WriteFile(c.blobPath(table), buf.Bytes(), 0644); err != nil {
		return Entry{}, err
	}

	c.locker.Lock()
	defer c.locker.Unlock()
	c.entries[table] = entry
	return entry, c.writeManifestLocked()
}

// DecodeFunc produces the records and decode advisory for a table on a cache
// miss.
type DecodeFunc func() ([]record.Record, string, error)

// Result is what a Fetch produced: the records, the manifest entry that
// describes them, and whether they came from the cache.
type Result struct {
	Records []record.Record
	Entry   Entry
	Hit     bool
}

// Fetch returns the cached records for (table, hash) or decodes them, with
// at most one decode in flight per key: concurrent callers for the same key
// share the winner's result instead of repeating the work. A failure to
// persist the decoded records is logged, not returned, since the caller
// still has the data.
func (c *Cache) Fetch(table, hash string, decode DecodeFunc) (*Result, error) {
	v, err, _ := c.group.Do(table+":"+hash, func() (any, error) {
		if records, ok := c.Get(table, hash); ok {
			entry, _ := c.Entry(table)
			return &Result{Records: records, Entry: entry, Hit: true}, nil
		}

		records, advisory, err := decode()
		if err != nil {
			return nil, err
		}

		entry, err := c.Put(table, hash, advisory, records)
		if err != nil {
			log.Warnf("failed to cache %s: %s", table, err)
			entry = Entry{Table: table, Hash: hash, Records: len(records), DecodedAt: time.Now().UTC(), Advisory: advisory}
		}
		return &Result{Records: records, Entry: entry}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Clear removes every blob the manifest knows plus the manifest itself.
// Files the cache does not own stay untouched.
func (c *Cache) Clear() error {
	c.locker.Lock()
	defer c.locker.Unlock()

	for table := range c.entries {
		if err := os.Remove(c.blobPath(table)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	c.entries = map[string]Entry{}

	if err := os.Remove(path.Join(c.dir, manifestFile)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *Cache) blobPath(table string) string {
	return path.Join(c.dir, table+".gob")
}

func (c *Cache) writeManifestLocked() error {
	data, err := json.Marshal(manifest{Tables: c.entries})
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(c.dir, manifestFile), data, 0644)
}
