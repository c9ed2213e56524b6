package probeset

import "sync"

// Set is the mutable, lockable collection of service records consulted on
// every scheduler tick. It is created as the cross-product of teams,
// machines, and each machine's services at startup, then only ever grown
// by the inject scheduler, never shrunk.
type Set struct {
	mu      sync.RWMutex
	records []ServiceRecord
}

// New builds a probe set from an initial slice of records.
func New(records []ServiceRecord) *Set {
	return &Set{records: records}
}

// SnapshotRef grants fn shared read access to the current records for the
// duration of the call. The scheduler dispatches one tick's worth of probe
// tasks from inside fn; the lock is held while those tasks are spawned,
// not while the dispatched probes themselves run.
func (s *Set) SnapshotRef(fn func(records []ServiceRecord)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.records)
}

// Append takes exclusive access and grows the set. The inject scheduler is
// the only caller; it never removes records.
func (s *Set) Append(records ...ServiceRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// Len reports the current record count, mostly useful for logging.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
