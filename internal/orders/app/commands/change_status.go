package commands

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

// ChangeStatusCommand moves an order along its lifecycle, optionally
// assigning a route in the same write.
type ChangeStatusCommand struct {
	OrderID int64
	Status  string
	RouteID *int64
}

type ChangeStatusCommandHandler struct {
	deps Deps
}

func NewChangeStatusCommandHandler(deps Deps) *ChangeStatusCommandHandler {
	return &ChangeStatusCommandHandler{deps: deps.withDefaults()}
}

func (h *ChangeStatusCommandHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) (*domain.Order, error) {
	if err := checkOrderID(cmd.OrderID); err != nil {
		return nil, err
	}
	status, err := parseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	current, err := h.deps.Repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(current.Status, status); err != nil {
		return nil, err
	}
	if cmd.RouteID != nil {
		if err := checkRoute(ctx, h.deps.Catalog, *cmd.RouteID); err != nil {
			return nil, err
		}
	}

	return changeStatus(ctx, h.deps, current, status, cmd.RouteID)
}

// AssignRouteCommand puts a pending or confirmed order on a route. Pending
// orders become confirmed.
type AssignRouteCommand struct {
	OrderID int64
	RouteID int64
}

type AssignRouteCommandHandler struct {
	deps Deps
}

func NewAssignRouteCommandHandler(deps Deps) *AssignRouteCommandHandler {
	return &AssignRouteCommandHandler{deps: deps.withDefaults()}
}

func (h *AssignRouteCommandHandler) Handle(ctx context.Context, cmd AssignRouteCommand) (*domain.Order, error) {
	if err := checkOrderID(cmd.OrderID); err != nil {
		return nil, err
	}
	if cmd.RouteID <= 0 {
		return nil, domain.Invalid("route_id", "is required")
	}

	current, err := h.deps.Repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.StatusPending && current.Status != domain.StatusConfirmed {
		return nil, domain.Invalid("status", "routes can only be assigned to %s or %s orders, order is %s",
			domain.StatusPending, domain.StatusConfirmed, current.Status)
	}
	if err := checkRoute(ctx, h.deps.Catalog, cmd.RouteID); err != nil {
		return nil, err
	}

	routeID := cmd.RouteID
	return changeStatus(ctx, h.deps, current, domain.StatusConfirmed, &routeID)
}

func changeStatus(ctx context.Context, deps Deps, current *domain.Order, status domain.OrderStatus, routeID *int64) (*domain.Order, error) {
	found, err := deps.Repo.ChangeStatus(ctx, current.ID, status, routeID)
	deps.Metrics.RecordOrderWrite(ctx, "change_status", err == nil && found)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ports.ErrNotFound
	}
	deps.Metrics.RecordStatusTransition(ctx, current.Status, status)

	if current.Status != status {
		deps.publish(ctx, "order.status_changed", current.ID, func(ctx context.Context) error {
			return deps.Events.PublishOrderStatusChanged(ctx, current.ID, status)
		})
	}

	return deps.Repo.GetByID(ctx, current.ID)
}
