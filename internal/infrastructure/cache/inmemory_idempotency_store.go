package cache

import (
	"context"
	"sync"
	"time"

	"github.com/supportdesk/backend/internal/domain/shared"
)

const sweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed-entry state in a map guarded
// by a mutex. Good enough for a single worker process and for tests; a
// multi-instance deployment needs the Redis store so workers see each
// other's marks.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	deadlines map[string]time.Time
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore builds the store and starts the janitor
// goroutine that sweeps expired marks.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		deadlines: make(map[string]time.Time),
		done:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.janitor()

	return s
}

// MarkProcessed records the entry. The first caller wins; an expired
// mark counts as absent and can be re-taken.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, entryID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.deadlines[entryID]; ok && now.Before(deadline) {
		return false, nil
	}
	s.deadlines[entryID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether a live mark exists for the entry.
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, entryID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, ok := s.deadlines[entryID]
	return ok && time.Now().Before(deadline), nil
}

// Close stops the janitor. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored marks, live or expired. Exposed for
// tests and the readiness probe.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deadlines)
}

func (s *InMemoryIdempotencyStore) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, deadline := range s.deadlines {
		if now.After(deadline) {
			delete(s.deadlines, id)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
