package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
)

// ListOrdersQuery asks for one page of orders. BaseRoute, when set, is the
// path page links are built on.
type ListOrdersQuery struct {
	Page      query.PageRequest
	Filter    listing.OrderFilter
	BaseRoute string
}

func (q ListOrdersQuery) Validate() error {
	f := q.Filter
	if f.OrderedFrom != nil && f.OrderedTo != nil && f.OrderedFrom.After(*f.OrderedTo) {
		return domain.Invalid("orderedFrom", "must not be after orderedTo")
	}
	if f.MinTotal != nil && f.MaxTotal != nil && f.MinTotal.GreaterThan(*f.MaxTotal) {
		return domain.Invalid("minTotal", "must not exceed maxTotal")
	}
	if f.MinTotal != nil && f.MinTotal.IsNegative() {
		return domain.Invalid("minTotal", "must not be negative")
	}
	return nil
}

// CustomerOrdersQuery asks for one page of a single customer's orders.
type CustomerOrdersQuery struct {
	CustomerID int64
	Page       query.PageRequest
	Status     *domain.OrderStatus
}

type ListOrdersQueryHandler struct {
	orders  ports.OrderQueries
	catalog ports.CatalogLookup
}

func NewListOrdersQueryHandler(orders ports.OrderQueries, catalog ports.CatalogLookup) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{orders: orders, catalog: catalog}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, q ListOrdersQuery) (query.Page[domain.Order], error) {
	if err := q.Validate(); err != nil {
		return query.Page[domain.Order]{}, err
	}
	return h.orders.ListOrders(ctx, q.Page, q.Filter, q.BaseRoute)
}

// CustomerOrders pages through one customer's orders. An unknown customer is ErrNotFound.
func (h *ListOrdersQueryHandler) CustomerOrders(ctx context.Context, q CustomerOrdersQuery) (query.Page[domain.Order], error) {
	if q.CustomerID <= 0 {
		return query.Page[domain.Order]{}, domain.Invalid("customer_id", "must be a positive integer")
	}

	exists, err := h.catalog.CustomerExists(ctx, q.CustomerID)
	if err != nil {
		return query.Page[domain.Order]{}, err
	}
	if !exists {
		return query.Page[domain.Order]{}, fmt.Errorf("customer %d: %w", q.CustomerID, ports.ErrNotFound)
	}

	customerID := q.CustomerID
	return h.orders.ListOrders(ctx, q.Page,
		listing.OrderFilter{CustomerID: &customerID, Status: q.Status},
		fmt.Sprintf("/v1/customers/%d/orders", q.CustomerID),
	)
}
