package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

type entry struct {
	response ports.StoredResponse
	savedAt  time.Time
}

// Store retains idempotency responses for replaying duplicate requests.
// Entries older than the ttl are treated as absent; a zero ttl keeps them forever.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a new in-memory idempotency store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the stored response for a given key if present and not expired.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok || s.expired(value) {
		return nil, nil
	}
	resp := value.response
	resp.Body = append([]byte(nil), value.response.Body...)
	return &resp, nil
}

// Save stores the response for a key. The first live response for a key wins.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok && !s.expired(existing) {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = entry{response: response, savedAt: s.now()}
	return nil
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.savedAt) > s.ttl
}
