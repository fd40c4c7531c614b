package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/tapvote/internal/domain/repository"
)

type idemEntry struct {
	rec       repository.IdempotencyRecord
	expiresAt time.Time
}

// IdempotencyStore keeps idempotency records in process memory.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: map[string]idemEntry{}, now: time.Now}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (repository.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return repository.IdempotencyRecord{}, false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return repository.IdempotencyRecord{}, false, nil
	}
	return e.rec, true, nil
}

// Put keeps the first live record for key.
func (s *IdempotencyStore) Put(_ context.Context, key string, rec repository.IdempotencyRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[key]; ok && (old.expiresAt.IsZero() || !s.now().After(old.expiresAt)) {
		return nil
	}
	e := idemEntry{rec: rec}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)
