package queries

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

// GetOrderQuery represents a request to retrieve an order by its ID.
type GetOrderQuery struct {
	OrderID int64
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if q.OrderID <= 0 {
		return domain.Invalid("id", "must be a positive integer")
	}
	return nil
}

// GetOrderQueryHandler executes GetOrderQuery and returns the order if found.
type GetOrderQueryHandler struct {
	repo ports.OrderReader
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderReader) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle executes the query and retrieves the order.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.repo.GetByID(ctx, query.OrderID)
}

// OrderStatusView is the lifecycle position of one order.
type OrderStatusView struct {
	OrderID      int64                `json:"order_id"`
	Status       domain.OrderStatus   `json:"status"`
	IsTerminal   bool                 `json:"is_terminal"`
	NextStatuses []domain.OrderStatus `json:"next_statuses"`
	RouteID      *int64               `json:"route_id,omitempty"`
	Version      int                  `json:"version"`
}

// Status returns where the order stands in its lifecycle and where it may go next.
func (h *GetOrderQueryHandler) Status(ctx context.Context, query GetOrderQuery) (*OrderStatusView, error) {
	order, err := h.Handle(ctx, query)
	if err != nil {
		return nil, err
	}
	return &OrderStatusView{
		OrderID:      order.ID,
		Status:       order.Status,
		IsTerminal:   order.IsTerminal(),
		NextStatuses: order.Status.NextStatuses(),
		RouteID:      order.RouteID,
		Version:      order.Version,
	}, nil
}
