package replay

import (
	"context"
	"sync"
	"time"
)

// pendingTTL bounds how long an uncommitted reservation can linger: a crash
// between reserve and commit must not poison the reference forever.
// Verification attempts are bounded well under this.
const pendingTTL = 10 * time.Minute

// sweepInterval limits how often Reserve pays for a full table sweep.
const sweepInterval = time.Minute

type recordState uint8

const (
	statePending recordState = iota
	stateConsumed
)

type record struct {
	state recordState
	at    time.Time
}

// MemoryStore is a process-local Store backed by a mutex-guarded map. The
// check-and-insert in Reserve is a single atomic step under the mutex.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]record
	retention time.Duration
	lastSweep time.Time
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory replay store. Consumed references are
// evicted after retention; zero keeps them forever. Blockchain finality
// windows are bounded, so a retention of a few days is enough to make replay
// of an evicted reference fail verification anyway (the transaction would no
// longer pay a fresh request).
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]record),
		retention: retention,
		now:       time.Now,
	}
}

// Reserve implements Store.
func (s *MemoryStore) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = record{state: statePending, at: now}
	return true, nil
}

// Commit implements Store.
func (s *MemoryStore) Commit(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record{state: stateConsumed, at: s.now()}
	return nil
}

// Release implements Store.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.state == statePending {
		delete(s.records, key)
	}
	return nil
}

// Len reports the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	for key, rec := range s.records {
		switch rec.state {
		case statePending:
			if now.Sub(rec.at) > pendingTTL {
				delete(s.records, key)
			}
		case stateConsumed:
			if s.retention > 0 && now.Sub(rec.at) > s.retention {
				delete(s.records, key)
			}
		}
	}
}
