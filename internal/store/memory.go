package store

import (
	"context"
	"sync"
	"time"

	"github.com/sushix/checkout-api/internal/domain"
)

// DefaultOrderTTL bounds how long an unclaimed pending order survives
// before the sweep loop reclaims it.
const DefaultOrderTTL = 24 * time.Hour

type memoryEntry struct {
	order     domain.PendingOrder
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process order store. Entries expire
// after the configured TTL so abandoned checkouts do not accumulate
// indefinitely; CleanupExpired reclaims them from a periodic sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time
}

// MemoryOption customises MemoryStore construction.
type MemoryOption func(*MemoryStore)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a deterministic time source for tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an empty in-memory order store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     DefaultOrderTTL,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements the OrderStore interface.
func (s *MemoryStore) Put(_ context.Context, order domain.PendingOrder) error {
	now := s.clock().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[order.ID] = memoryEntry{
		order:     order,
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

// Get implements the OrderStore interface. Expired entries are treated
// as absent even before the sweep removes them.
func (s *MemoryStore) Get(_ context.Context, orderID string) (domain.PendingOrder, error) {
	now := s.clock().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[orderID]
	if !ok || !now.Before(entry.expiresAt) {
		return domain.PendingOrder{}, ErrOrderNotFound
	}
	return entry.order, nil
}

// Delete implements the OrderStore interface.
func (s *MemoryStore) Delete(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, orderID)
	return nil
}

// CleanupExpired removes up to limit expired entries and reports how many
// were reclaimed.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	removed := 0
	for id, entry := range s.entries {
		if now.Before(entry.expiresAt) {
			continue
		}
		delete(s.entries, id)
		removed++
		if removed >= limit {
			break
		}
	}
	return removed, nil
}

// Len reports the number of live entries, expired ones included until
// swept. Used by tests and the sweep loop's logging.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
