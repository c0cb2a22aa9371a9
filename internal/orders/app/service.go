package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/app/commands"
	"github.com/dejobratic/orderdesk/internal/orders/app/queries"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/metrics"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
)

// Dependencies are the ports and instruments the service is built from.
type Dependencies struct {
	Repo        ports.OrderRepository
	Catalog     ports.CatalogLookup
	Queries     ports.OrderQueries
	Events      ports.EventBus
	Idempotency ports.IdempotencyStore
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service bundles use cases for handling orders via the API.
type Service struct {
	createOrder  commands.CommandHandler
	updateOrder  *commands.UpdateOrderCommandHandler
	changeStatus *commands.ChangeStatusCommandHandler
	assignRoute  *commands.AssignRouteCommandHandler
	deleteOrder  *commands.DeleteOrderCommandHandler

	getOrder   *queries.GetOrderQueryHandler
	listOrders *queries.ListOrdersQueryHandler
	reports    *queries.ReportsQueryHandler

	idemStore ports.IdempotencyStore
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	cmdDeps := commands.Deps{
		Repo:    deps.Repo,
		Catalog: deps.Catalog,
		Events:  deps.Events,
		Logger:  deps.Logger,
		Metrics: deps.Metrics,
		Now:     deps.Now,
	}

	coreHandler := commands.NewCreateOrderCommandHandler(cmdDeps)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, deps.Logger, deps.Metrics)

	return &Service{
		createOrder:  observableHandler,
		updateOrder:  commands.NewUpdateOrderCommandHandler(cmdDeps),
		changeStatus: commands.NewChangeStatusCommandHandler(cmdDeps),
		assignRoute:  commands.NewAssignRouteCommandHandler(cmdDeps),
		deleteOrder:  commands.NewDeleteOrderCommandHandler(cmdDeps),
		getOrder:     queries.NewGetOrderQueryHandler(deps.Repo),
		listOrders:   queries.NewListOrdersQueryHandler(deps.Queries, deps.Catalog),
		reports:      queries.NewReportsQueryHandler(deps.Queries, deps.Now),
		idemStore:    deps.Idempotency,
	}
}

// CreateOrder validates the order, stores it with its lines and announces it.
func (s *Service) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error) {
	return s.createOrder.Handle(ctx, cmd)
}

// UpdateOrder replaces an order and all of its lines.
func (s *Service) UpdateOrder(ctx context.Context, cmd commands.UpdateOrderCommand) (*domain.Order, error) {
	return s.updateOrder.Handle(ctx, cmd)
}

// ChangeStatus moves an order along its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, cmd commands.ChangeStatusCommand) (*domain.Order, error) {
	return s.changeStatus.Handle(ctx, cmd)
}

// AssignRoute puts a pending or confirmed order on a route.
func (s *Service) AssignRoute(ctx context.Context, cmd commands.AssignRouteCommand) (*domain.Order, error) {
	return s.assignRoute.Handle(ctx, cmd)
}

// DeleteOrder removes an order that has not been delivered.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.deleteOrder.Handle(ctx, commands.DeleteOrderCommand{OrderID: id})
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// GetOrderStatus reports an order's lifecycle position.
func (s *Service) GetOrderStatus(ctx context.Context, id int64) (*queries.OrderStatusView, error) {
	return s.getOrder.Status(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns one page of orders.
func (s *Service) ListOrders(ctx context.Context, q queries.ListOrdersQuery) (query.Page[domain.Order], error) {
	return s.listOrders.Handle(ctx, q)
}

// CustomerOrders returns one page of a customer's orders.
func (s *Service) CustomerOrders(ctx context.Context, q queries.CustomerOrdersQuery) (query.Page[domain.Order], error) {
	return s.listOrders.CustomerOrders(ctx, q)
}

func (s *Service) PendingDeliveries(ctx context.Context, q queries.ReportQuery) (*queries.PendingReport, error) {
	return s.reports.PendingDeliveries(ctx, q)
}

func (s *Service) CompletedDeliveries(ctx context.Context, q queries.ReportQuery) (*queries.CompletedReport, error) {
	return s.reports.CompletedDeliveries(ctx, q)
}

func (s *Service) Dashboard(ctx context.Context) (*queries.Dashboard, error) {
	return s.reports.Dashboard(ctx)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
