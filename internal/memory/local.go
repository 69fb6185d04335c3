package memory

import (
	"context"
	"sync"
	"time"
)

// timedEntry pairs an Entry with its insertion time for TTL checks.
type timedEntry struct {
	entry   Entry
	addedAt time.Time
}

// LocalStore is an in-process Store for single-node deployments and tests.
// All agents share one mutex; operations are short enough that per-key
// locking would not pay for itself.
type LocalStore struct {
	mu      sync.Mutex
	entries map[uint][]timedEntry
	limit   int
	ttl     time.Duration
	now     func() time.Time
}

// NewLocalStore returns an in-process Store. A limit of 0 falls back to 5.
// A ttl of 0 means entries never expire.
func NewLocalStore(limit int, ttl time.Duration) *LocalStore {
	if limit <= 0 {
		limit = 5
	}
	return &LocalStore{
		entries: make(map[uint][]timedEntry),
		limit:   limit,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Append pushes the interaction to the front and truncates to the limit.
func (s *LocalStore) Append(ctx context.Context, agentID uint, input, output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append([]timedEntry{{
		entry:   Entry{Input: input, Output: output},
		addedAt: s.now(),
	}}, s.entries[agentID]...)
	if len(history) > s.limit {
		history = history[:s.limit]
	}
	s.entries[agentID] = history
	return nil
}

// List returns the retained, unexpired history, most-recent-first.
func (s *LocalStore) List(ctx context.Context, agentID uint) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.entries[agentID]))
	for _, te := range s.entries[agentID] {
		if s.expired(te) {
			continue
		}
		entries = append(entries, te.entry)
	}
	return entries, nil
}

// Clear removes the agent's history.
func (s *LocalStore) Clear(ctx context.Context, agentID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, agentID)
	return nil
}

// Sweep drops expired entries and empty histories. The serve loop runs it
// on a cron schedule so idle agents don't pin stale memory.
func (s *LocalStore) Sweep() {
	if s.ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for agentID, history := range s.entries {
		kept := history[:0]
		for _, te := range history {
			if !s.expired(te) {
				kept = append(kept, te)
			}
		}
		if len(kept) == 0 {
			delete(s.entries, agentID)
			continue
		}
		s.entries[agentID] = kept
	}
}

// expired reports whether the entry has outlived the TTL. Callers hold mu.
func (s *LocalStore) expired(te timedEntry) bool {
	return s.ttl > 0 && s.now().Sub(te.addedAt) >= s.ttl
}
