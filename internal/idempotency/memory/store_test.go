package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	newStore := func(ttl time.Duration) *Store {
		s := NewStore(ttl)
		s.now = func() time.Time { return now }
		return s
	}

	t.Run("returns nil for an unknown key", func(t *testing.T) {
		resp, err := newStore(0).Get(ctx, "missing")
		if err != nil || resp != nil {
			t.Fatalf("expected nil, nil; got %v, %v", resp, err)
		}
	})

	t.Run("keeps the first response saved under a key", func(t *testing.T) {
		s := newStore(0)
		_ = s.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, Body: []byte(`{"id":1}`), OrderID: 1})
		_ = s.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, Body: []byte(`{"id":2}`), OrderID: 2})

		resp, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.OrderID != 1 || string(resp.Body) != `{"id":1}` {
			t.Errorf("expected first response, got %+v", resp)
		}
	})

	t.Run("expires entries older than the ttl", func(t *testing.T) {
		s := newStore(time.Hour)
		_ = s.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: 1})

		now = now.Add(2 * time.Hour)
		resp, _ := s.Get(ctx, "k")
		if resp != nil {
			t.Fatalf("expected expired entry to be absent, got %+v", resp)
		}

		_ = s.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: 2})
		resp, _ = s.Get(ctx, "k")
		if resp == nil || resp.OrderID != 2 {
			t.Errorf("expected a fresh entry after expiry, got %+v", resp)
		}
	})

	t.Run("returned bodies do not alias the stored copy", func(t *testing.T) {
		s := newStore(0)
		_ = s.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, Body: []byte("abc")})

		resp, _ := s.Get(ctx, "k")
		resp.Body[0] = 'x'

		again, _ := s.Get(ctx, "k")
		if string(again.Body) != "abc" {
			t.Errorf("stored body was modified: %s", again.Body)
		}
	})
}
