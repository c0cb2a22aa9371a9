package commands

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

type DeleteOrderCommand struct {
	OrderID int64
}

type DeleteOrderCommandHandler struct {
	deps Deps
}

func NewDeleteOrderCommandHandler(deps Deps) *DeleteOrderCommandHandler {
	return &DeleteOrderCommandHandler{deps: deps.withDefaults()}
}

// Handle removes the order and its lines. Delivered orders are kept.
func (h *DeleteOrderCommandHandler) Handle(ctx context.Context, cmd DeleteOrderCommand) error {
	if err := checkOrderID(cmd.OrderID); err != nil {
		return err
	}

	current, err := h.deps.Repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if current.Status == domain.StatusDelivered {
		return domain.Invalid("status", "delivered orders cannot be deleted")
	}

	found, err := h.deps.Repo.Delete(ctx, cmd.OrderID)
	h.deps.Metrics.RecordOrderWrite(ctx, "delete", err == nil && found)
	if err != nil {
		return err
	}
	if !found {
		return ports.ErrNotFound
	}

	h.deps.publish(ctx, "order.deleted", cmd.OrderID, func(ctx context.Context) error {
		return h.deps.Events.PublishOrderDeleted(ctx, cmd.OrderID)
	})

	return nil
}
