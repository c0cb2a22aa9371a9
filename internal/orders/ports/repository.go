package ports

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/storage"
)

// OrderWriter persists order aggregates. Create and Update write the order
// and all of its lines as one all-or-nothing unit.
type OrderWriter interface {
	Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
	Update(ctx context.Context, id int64, draft domain.OrderDraft) (*domain.Order, error)
	ChangeStatus(ctx context.Context, id int64, status domain.OrderStatus, routeID *int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// OrderReader loads complete order aggregates.
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	OrderWriter
	OrderReader
}

// CatalogLookup answers the referential checks the command layer runs before writing.
type CatalogLookup interface {
	CustomerExists(ctx context.Context, id int64) (bool, error)
	RouteExists(ctx context.Context, id int64) (bool, error)
	// MissingProducts returns the ids in ids that have no product.
	MissingProducts(ctx context.Context, ids []int64) ([]int64, error)
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = storage.ErrNotFound
	// ErrStaleData is returned when an update was based on an outdated order version.
	ErrStaleData = storage.ErrStaleData
	// ErrStorageFailure is returned when the store failed to serve the request.
	ErrStorageFailure = storage.ErrStorageFailure
)
