// Package runcache provides an ephemeral, thread-safe store of completed
// step outputs, keyed by step name.
//
// The engine consults it before invoking a cache-enabled step and reuses
// the stored output on a hit. Entries live for the process lifetime only;
// there is no persistence and no TTL. sync.Map fits the access pattern:
// the key space is small and stable (one entry per step) while reads
// dominate after the first run of each step.
//
// The store itself is safe for concurrent use so that a future concurrent
// engine only needs to guard the step contexts, not the cache.
package runcache

import (
	"sync"
	"time"
)

// Entry records one completed step run.
type Entry struct {
	// Output is the value the step's entrypoint returned.
	Output any
	// RunID identifies the run that produced the output.
	RunID string
	// StoredAt is when the entry was recorded.
	StoredAt time.Time
}

// Store is an in-memory cache of step outputs.
type Store struct {
	entries sync.Map // key: step name, value: *Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Get returns the cached entry for the named step, if one exists.
func (s *Store) Get(stepName string) (*Entry, bool) {
	v, ok := s.entries.Load(stepName)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Put records the output of a completed run of the named step, replacing
// any previous entry.
func (s *Store) Put(stepName string, entry *Entry) {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now()
	}
	s.entries.Store(stepName, entry)
}

// Invalidate drops the cached entry for the named step.
func (s *Store) Invalidate(stepName string) {
	s.entries.Delete(stepName)
}
