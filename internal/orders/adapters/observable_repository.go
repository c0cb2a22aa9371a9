package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/dejobratic/orderdesk/internal/database"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository traces every write and read of the wrapped repository
// and records its duration.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	var order *domain.Order
	err := r.observe(ctx, "OrderRepository.Create", "create_order", func(ctx context.Context) error {
		var err error
		order, err = r.repo.Create(ctx, draft)
		return err
	},
		attribute.String("order.customer_id", strconv.FormatInt(draft.CustomerID, 10)),
		attribute.Int("order.lines", len(draft.Lines)),
	)
	return order, err
}

func (r *ObservableRepository) Update(ctx context.Context, id int64, draft domain.OrderDraft) (*domain.Order, error) {
	var order *domain.Order
	err := r.observe(ctx, "OrderRepository.Update", "update_order", func(ctx context.Context) error {
		var err error
		order, err = r.repo.Update(ctx, id, draft)
		return err
	},
		orderIDAttr(id),
		attribute.Int("order.lines", len(draft.Lines)),
	)
	return order, err
}

func (r *ObservableRepository) ChangeStatus(ctx context.Context, id int64, status domain.OrderStatus, routeID *int64) (bool, error) {
	var found bool
	err := r.observe(ctx, "OrderRepository.ChangeStatus", "change_order_status", func(ctx context.Context) error {
		var err error
		found, err = r.repo.ChangeStatus(ctx, id, status, routeID)
		return err
	},
		orderIDAttr(id),
		attribute.String("order.new_status", string(status)),
	)
	return found, err
}

func (r *ObservableRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := r.observe(ctx, "OrderRepository.Delete", "delete_order", func(ctx context.Context) error {
		var err error
		found, err = r.repo.Delete(ctx, id)
		return err
	}, orderIDAttr(id))
	return found, err
}

func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := r.observe(ctx, "OrderRepository.GetByID", "get_order_by_id", func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByID(ctx, id)
		return err
	}, orderIDAttr(id))
	return order, err
}

func (r *ObservableRepository) observe(ctx context.Context, spanName, operation string, call func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := call(ctx)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, operation, duration)

	telemetry.SetSpanOutcome(span, err)
	return err
}

func orderIDAttr(id int64) attribute.KeyValue {
	return attribute.String("order.id", strconv.FormatInt(id, 10))
}
