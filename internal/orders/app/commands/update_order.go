package commands

import (
	"context"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
)

// UpdateOrderCommand replaces an order's fields and every one of its lines.
// An empty Status keeps the current one.
type UpdateOrderCommand struct {
	OrderID         int64
	CustomerID      int64
	RouteID         *int64
	DeliveryDate    time.Time
	Status          string
	Notes           string
	Lines           []LineInput
	ExpectedVersion *int
}

type UpdateOrderCommandHandler struct {
	deps Deps
}

func NewUpdateOrderCommandHandler(deps Deps) *UpdateOrderCommandHandler {
	return &UpdateOrderCommandHandler{deps: deps.withDefaults()}
}

func (h *UpdateOrderCommandHandler) Handle(ctx context.Context, cmd UpdateOrderCommand) (*domain.Order, error) {
	if err := checkOrderID(cmd.OrderID); err != nil {
		return nil, err
	}

	current, err := h.deps.Repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	status := current.Status
	if cmd.Status != "" {
		if status, err = parseStatus(cmd.Status); err != nil {
			return nil, err
		}
	}
	if err := checkTransition(current.Status, status); err != nil {
		return nil, err
	}

	draft := domain.OrderDraft{
		CustomerID:      cmd.CustomerID,
		RouteID:         cmd.RouteID,
		DeliveryDate:    cmd.DeliveryDate,
		Status:          status,
		Notes:           cmd.Notes,
		Lines:           toLineDrafts(cmd.Lines),
		ExpectedVersion: cmd.ExpectedVersion,
	}

	if status == domain.StatusPending {
		if err := checkFutureDelivery(draft.DeliveryDate, h.deps.Now()); err != nil {
			return nil, err
		}
	} else if draft.DeliveryDate.IsZero() {
		return nil, domain.Invalid("delivery_date", "is required")
	}
	if err := checkDraft(ctx, h.deps.Catalog, draft); err != nil {
		return nil, err
	}

	order, err := h.deps.Repo.Update(ctx, cmd.OrderID, draft)
	h.deps.Metrics.RecordOrderWrite(ctx, "update", err == nil)
	if err != nil {
		return nil, err
	}
	h.deps.Metrics.RecordStatusTransition(ctx, current.Status, order.Status)

	h.deps.publish(ctx, "order.updated", order.ID, func(ctx context.Context) error {
		return h.deps.Events.PublishOrderUpdated(ctx, *order)
	})

	return order, nil
}
