// Package tablesession holds the client-side mirror of a remote task
// list: an ordered record store plus the filter and selection state a
// table view operates on.
package tablesession

import (
	"sync"

	"github.com/ohsdesk/mesa/internal/domain"
)

// Store is the authoritative client-side copy of task records. Ordering
// is significant: there is exactly one total order at a time and it is
// the unit persisted on reorder.
//
// Mutations never fail for a missing id; they report false and leave
// the store untouched. That keeps the store safe against races between
// a UI action and a concurrent full refresh.
type Store struct {
	mu      sync.RWMutex
	records []domain.TaskRecord
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// ReplaceAll discards the store's contents in favour of freshly loaded
// records. Callers must have resolved or abandoned in-flight optimistic
// state first; last refresh wins.
func (s *Store) ReplaceAll(records []domain.TaskRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]domain.TaskRecord, len(records))
	copy(s.records, records)
}

// Snapshot returns a copy of the current records in order.
func (s *Store) Snapshot() []domain.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TaskRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int64) (domain.TaskRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return domain.TaskRecord{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// OrderedIDs returns the ids in their current total order.
func (s *Store) OrderedIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, len(s.records))
	for i, r := range s.records {
		ids[i] = r.ID
	}
	return ids
}

// PatchOne merges the patch into the record matching id. Reports false,
// with no observable effect, when the id is absent.
func (s *Store) PatchOne(id int64, patch domain.FieldPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	patch.Apply(&s.records[i])
	return true
}

// Reorder removes the record with fromID and reinserts it at the
// position currently occupied by toID. A no-op when fromID == toID or
// either id is absent.
func (s *Store) Reorder(fromID, toID int64) bool {
	if fromID == toID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.indexOf(fromID)
	to := s.indexOf(toID)
	if from < 0 || to < 0 {
		return false
	}
	moved := s.records[from]
	s.records = append(s.records[:from], s.records[from+1:]...)
	if to > len(s.records) {
		to = len(s.records)
	}
	s.records = append(s.records, domain.TaskRecord{})
	copy(s.records[to+1:], s.records[to:])
	s.records[to] = moved
	return true
}

// Remove deletes the record with the given id. No-op when absent.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return true
}

// indexOf scans for the record position. Caller must hold the lock.
// Linear scan is fine at table sizes; the index would cost more to keep
// coherent across reorders than it saves.
func (s *Store) indexOf(id int64) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
