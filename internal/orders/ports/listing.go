package ports

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/query"
)

// OrderQueries serves the paged order listings and delivery reports.
type OrderQueries interface {
	ListOrders(ctx context.Context, req query.PageRequest, filter listing.OrderFilter, baseRoute string) (query.Page[domain.Order], error)
	PendingDeliveries(ctx context.Context, req query.PageRequest, filter listing.ReportFilter, baseRoute string) (query.Page[domain.PendingDelivery], error)
	CompletedDeliveries(ctx context.Context, req query.PageRequest, filter listing.ReportFilter, baseRoute string) (query.Page[domain.CompletedDelivery], error)
}
