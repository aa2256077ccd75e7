// Package index provides the in-memory mapping from request identifier to the
// on-disk location of its payload.
//
// The index is authoritative for locating previously written data: the backing
// file stores raw padded blocks with no headers, so a record is reachable only
// through its index entry. The index is created empty at startup and is not
// persisted; entries written before a restart are gone and the bytes they
// pointed at become unreachable.
package index

import "sync"

// Entry points to the latest version of a payload on disk.
//
// Offset is the byte position of the padded block in the backing file, always
// a multiple of the block size. Length is the original, unpadded payload size
// used to truncate the block on read.
type Entry struct {
	Offset uint64
	Length uint64
}

// Index maps request identifiers to disk locations.
//
// A second write with a previously used identifier overwrites the entry, so
// only the most recent offset is reachable. Identifier uniqueness is
// deliberately not enforced.
//
// Safe for concurrent use. Lookups take a read lock; reads dominate writes in
// typical workloads, so contention stays negligible at this scale.
type Index struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries: make(map[string]Entry),
	}
}

// Record inserts or overwrites the entry for id. Last writer wins.
func (i *Index) Record(id string, offset, length uint64) {
	i.mu.Lock()
	i.entries[id] = Entry{Offset: offset, Length: length}
	i.mu.Unlock()
}

// Lookup returns the entry for id, or false if id was never recorded.
func (i *Index) Lookup(id string) (Entry, bool) {
	i.mu.RLock()
	e, ok := i.entries[id]
	i.mu.RUnlock()
	return e, ok
}

// Len returns the number of distinct identifiers currently recorded.
func (i *Index) Len() int {
	i.mu.RLock()
	n := len(i.entries)
	i.mu.RUnlock()
	return n
}
