package commands

import (
	"context"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
)

type CreateOrderCommand struct {
	CustomerID   int64
	RouteID      *int64
	DeliveryDate time.Time
	Notes        string
	Lines        []LineInput
}

func (c CreateOrderCommand) draft() domain.OrderDraft {
	return domain.OrderDraft{
		CustomerID:   c.CustomerID,
		RouteID:      c.RouteID,
		DeliveryDate: c.DeliveryDate,
		Status:       domain.StatusPending,
		Notes:        c.Notes,
		Lines:        toLineDrafts(c.Lines),
	}
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type CreateOrderCommandHandler struct {
	deps Deps
}

func NewCreateOrderCommandHandler(deps Deps) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{deps: deps.withDefaults()}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	draft := cmd.draft()

	if err := checkFutureDelivery(draft.DeliveryDate, h.deps.Now()); err != nil {
		return nil, err
	}
	if err := checkDraft(ctx, h.deps.Catalog, draft); err != nil {
		return nil, err
	}

	order, err := h.deps.Repo.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	h.deps.publish(ctx, "order.created", order.ID, func(ctx context.Context) error {
		return h.deps.Events.PublishOrderCreated(ctx, *order)
	})

	return order, nil
}
