package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/dejobratic/orderdesk/internal/storage"
)

// Repository provides an in-memory store useful for local development and tests.
// It enforces the same references as the database schema and commits every
// aggregate write by swapping in fully built state under one lock.
type Repository struct {
	mu        sync.RWMutex
	now       func() time.Time
	logger    *slog.Logger
	orders    map[int64]domain.Order
	customers map[int64]domain.Customer
	routes    map[int64]domain.Route
	products  map[int64]domain.Product
	lastOrder int64
	lastLine  int64
	lastRef   int64

	ordersPager    *query.Pager[domain.Order]
	pendingPager   *query.Pager[domain.PendingDelivery]
	completedPager *query.Pager[domain.CompletedDelivery]
}

type Option func(*Repository)

// WithClock overrides the time source used for timestamps and report day counts.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository constructs a new in-memory repository.
func NewRepository(metrics *query.Metrics, opts ...Option) *Repository {
	r := &Repository{
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default(),
		orders:    make(map[int64]domain.Order),
		customers: make(map[int64]domain.Customer),
		routes:    make(map[int64]domain.Route),
		products:  make(map[int64]domain.Product),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.ordersPager = query.NewPager(query.NewSliceSource(r.orderRows), listing.OrdersPager(metrics), r.logger)
	r.pendingPager = query.NewPager(query.NewSliceSource(r.pendingRows), listing.PendingPager(metrics), r.logger)
	r.completedPager = query.NewPager(query.NewSliceSource(r.completedRows), listing.CompletedPager(metrics), r.logger)

	return r
}

// AddCustomer stores c, assigning an id when it has none.
func (r *Repository) AddCustomer(c domain.Customer) domain.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.refID(c.ID)
	r.customers[c.ID] = c
	return c
}

// AddRoute stores rt, assigning an id when it has none.
func (r *Repository) AddRoute(rt domain.Route) domain.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt.ID = r.refID(rt.ID)
	r.routes[rt.ID] = rt
	return rt
}

// AddProduct stores p, assigning an id when it has none.
func (r *Repository) AddProduct(p domain.Product) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.refID(p.ID)
	r.products[p.ID] = p
	return p
}

func (r *Repository) refID(id int64) int64 {
	if id == 0 {
		r.lastRef++
		return r.lastRef
	}
	r.lastRef = max(r.lastRef, id)
	return id
}

// Create stores the order and its lines as one unit.
func (r *Repository) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	id, err := r.create(draft)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to create order", "customer_id", draft.CustomerID, "error", err)
		return nil, storage.Failure("create order", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) create(draft domain.OrderDraft) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkReferences(draft); err != nil {
		return 0, err
	}

	now := r.now()
	lines, total := domain.PriceLines(draft.Lines)

	id := r.lastOrder + 1
	r.assignLineIDs(id, lines)

	r.orders[id] = domain.Order{
		ID:           id,
		CustomerID:   draft.CustomerID,
		RouteID:      cloneID(draft.RouteID),
		OrderDate:    now,
		DeliveryDate: draft.DeliveryDate,
		Status:       domain.StatusPending,
		Notes:        draft.Notes,
		Total:        total,
		UpdatedAt:    now,
		Version:      1,
		Lines:        lines,
	}
	r.lastOrder = id

	return id, nil
}

// Update replaces the order's scalar fields and its full line set as one unit.
func (r *Repository) Update(ctx context.Context, id int64, draft domain.OrderDraft) (*domain.Order, error) {
	if err := r.update(id, draft); err != nil {
		if !errors.Is(err, ports.ErrNotFound) && !errors.Is(err, ports.ErrStaleData) {
			r.logger.ErrorContext(ctx, "failed to update order", "order_id", id, "error", err)
		}
		return nil, storage.Failure("update order", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) update(id int64, draft domain.OrderDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	if draft.ExpectedVersion != nil && *draft.ExpectedVersion != current.Version {
		return fmt.Errorf("%w: order %d is at version %d, update expected %d",
			ports.ErrStaleData, id, current.Version, *draft.ExpectedVersion)
	}
	if err := r.checkReferences(draft); err != nil {
		return err
	}

	lines, total := domain.PriceLines(draft.Lines)
	r.assignLineIDs(id, lines)

	current.CustomerID = draft.CustomerID
	current.RouteID = cloneID(draft.RouteID)
	current.DeliveryDate = draft.DeliveryDate
	current.Status = draft.Status
	current.Notes = draft.Notes
	current.Total = total
	current.Lines = lines
	current.UpdatedAt = r.now()
	current.Version++

	r.orders[id] = current
	return nil
}

// ChangeStatus sets the status and, when routeID is non-nil, the route.
func (r *Repository) ChangeStatus(_ context.Context, id int64, status domain.OrderStatus, routeID *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	if routeID != nil {
		if _, ok := r.routes[*routeID]; !ok {
			return false, storage.Failure("change order status", fmt.Errorf("route %d does not exist", *routeID))
		}
		order.RouteID = cloneID(routeID)
	}

	order.Status = status
	order.UpdatedAt = r.now()
	order.Version++
	r.orders[id] = order
	return true, nil
}

// Delete removes the order together with its lines.
func (r *Repository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return false, nil
	}
	delete(r.orders, id)
	return true, nil
}

// GetByID fetches a single order with its customer, route and line products.
func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	hydrated := r.hydrate(order, true)
	return &hydrated, nil
}

func (r *Repository) CustomerExists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.customers[id]
	return ok, nil
}

func (r *Repository) RouteExists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routes[id]
	return ok, nil
}

func (r *Repository) MissingProducts(_ context.Context, ids []int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := r.products[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repository) ListOrders(ctx context.Context, req query.PageRequest, filter listing.OrderFilter, baseRoute string) (query.Page[domain.Order], error) {
	return r.ordersPager.Query(ctx, req, filter, baseRoute)
}

func (r *Repository) PendingDeliveries(ctx context.Context, req query.PageRequest, filter listing.ReportFilter, baseRoute string) (query.Page[domain.PendingDelivery], error) {
	return r.pendingPager.Query(ctx, req, listing.PendingFilter(filter), baseRoute)
}

func (r *Repository) CompletedDeliveries(ctx context.Context, req query.PageRequest, filter listing.ReportFilter, baseRoute string) (query.Page[domain.CompletedDelivery], error) {
	return r.completedPager.Query(ctx, req, listing.CompletedFilter(filter), baseRoute)
}

func (r *Repository) checkReferences(draft domain.OrderDraft) error {
	if _, ok := r.customers[draft.CustomerID]; !ok {
		return fmt.Errorf("customer %d does not exist", draft.CustomerID)
	}
	if draft.RouteID != nil {
		if _, ok := r.routes[*draft.RouteID]; !ok {
			return fmt.Errorf("route %d does not exist", *draft.RouteID)
		}
	}
	for _, line := range draft.Lines {
		if _, ok := r.products[line.ProductID]; !ok {
			return fmt.Errorf("product %d does not exist", line.ProductID)
		}
	}
	return nil
}

func (r *Repository) assignLineIDs(orderID int64, lines []domain.OrderLine) {
	for i := range lines {
		r.lastLine++
		lines[i].ID = r.lastLine
		lines[i].OrderID = orderID
	}
}

// hydrate returns a deep copy of order with its relations attached.
func (r *Repository) hydrate(order domain.Order, withProducts bool) domain.Order {
	order.RouteID = cloneID(order.RouteID)

	if c, ok := r.customers[order.CustomerID]; ok {
		order.Customer = &c
	}
	if order.RouteID != nil {
		if rt, ok := r.routes[*order.RouteID]; ok {
			order.Route = &rt
		}
	}

	if !withProducts {
		order.Lines = slices.Clone(order.Lines)
		return order
	}

	lines := make([]domain.OrderLine, len(order.Lines))
	for i, line := range order.Lines {
		if p, ok := r.products[line.ProductID]; ok {
			line.Product = &p
		}
		lines[i] = line
	}
	order.Lines = lines
	return order
}

func (r *Repository) sortedOrders() []domain.Order {
	orders := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

func (r *Repository) orderRows(context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := r.sortedOrders()
	for i, order := range orders {
		orders[i] = r.hydrate(order, true)
	}
	return orders, nil
}

func (r *Repository) pendingRows(context.Context) ([]domain.PendingDelivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	orders := r.sortedOrders()
	rows := make([]domain.PendingDelivery, len(orders))
	for i, order := range orders {
		order = r.hydrate(order, false)
		rows[i] = domain.PendingDelivery{
			OrderID:         order.ID,
			CustomerName:    order.CustomerName(),
			DeliveryAddress: customerAddress(order),
			Email:           customerEmail(order),
			Status:          order.Status,
			DeliveryDate:    order.DeliveryDate,
			Total:           order.Total,
			RouteID:         order.RouteID,
			RouteName:       order.RouteName(),
			DaysToDelivery:  domain.DaysBetween(now, order.DeliveryDate),
		}
	}
	return rows, nil
}

func (r *Repository) completedRows(context.Context) ([]domain.CompletedDelivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := r.sortedOrders()
	rows := make([]domain.CompletedDelivery, len(orders))
	for i, order := range orders {
		order = r.hydrate(order, false)
		items := 0
		for _, line := range order.Lines {
			items += line.Quantity
		}
		rows[i] = domain.CompletedDelivery{
			OrderID:         order.ID,
			CustomerName:    order.CustomerName(),
			DeliveryAddress: customerAddress(order),
			Status:          order.Status,
			OrderDate:       order.OrderDate,
			DeliveryDate:    order.DeliveryDate,
			Total:           order.Total,
			RouteID:         order.RouteID,
			RouteName:       order.RouteName(),
			TotalProducts:   len(order.Lines),
			TotalItems:      items,
		}
	}
	return rows, nil
}

func customerAddress(o domain.Order) string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Address
}

func customerEmail(o domain.Order) string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Email
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
