package repo

import (
	"context"
	"sync"
	"time"

	"github.com/dialogcore/server/internal/agent/model"
)

type memoryEntry struct {
	sc       *model.SessionContext
	deadline time.Time
}

// MemorySessionStore is the in-process SessionStore used by tests and
// single-node local runs. Expiry is checked lazily on Get; Sweep offers the
// optional periodic cleanup pass.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*model.SessionContext, error) {
	s.mu.RLock()
	entry, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.deadline.IsZero() && s.now().After(entry.deadline) {
		s.mu.Lock()
		delete(s.data, sessionID)
		s.mu.Unlock()
		return nil, nil
	}
	return entry.sc, nil
}

func (s *MemorySessionStore) Set(_ context.Context, sc *model.SessionContext, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.data[sc.SessionID] = memoryEntry{sc: sc, deadline: deadline}
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Expire(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
	return nil
}

// Sweep removes every expired entry and reports how many were dropped.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, entry := range s.data {
		if !entry.deadline.IsZero() && now.After(entry.deadline) {
			delete(s.data, id)
			dropped++
		}
	}
	return dropped
}

var _ model.SessionStore = (*MemorySessionStore)(nil)
