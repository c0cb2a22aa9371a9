package ports

import "context"

// StoredResponse is the first successful create response recorded under an
// idempotency key. It is replayed verbatim while the key is live.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    int64
}

// IdempotencyStore remembers create responses by client-supplied key.
// Get returns nil, nil for an unknown or expired key. Save keeps the first
// live response for a key and ignores later ones.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
