package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps idempotency responses in the idempotency_keys table. Rows
// older than the ttl are ignored and replaced; a zero ttl keeps them forever.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id
		FROM idempotency_keys
		WHERE key = $1 AND ($2::interval IS NULL OR created_at > NOW() - $2::interval)
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, s.interval()).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.Failure("select idempotency key", err)
	}

	return &resp, nil
}

// Save records the response unless a live one already exists for key.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code, body = EXCLUDED.body,
			order_id = EXCLUDED.order_id, created_at = NOW()
		WHERE $5::interval IS NOT NULL AND idempotency_keys.created_at <= NOW() - $5::interval
	`

	_, err := s.pool.Exec(ctx, query, key, response.StatusCode, response.Body, response.OrderID, s.interval())
	if err != nil {
		return storage.Failure("insert idempotency key", err)
	}

	return nil
}

// interval returns the ttl as a pgx-encodable interval, or nil when keys never expire.
func (s *Store) interval() *time.Duration {
	if s.ttl <= 0 {
		return nil
	}
	ttl := s.ttl
	return &ttl
}
