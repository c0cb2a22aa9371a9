package ports

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
	PublishOrderUpdated(ctx context.Context, order domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error
	PublishOrderDeleted(ctx context.Context, orderID int64) error
}
