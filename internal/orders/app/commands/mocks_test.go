package commands_test

import (
	"context"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/app/commands"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type mockRepository struct {
	orders   map[int64]*domain.Order
	createFn func(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
	updateFn func(ctx context.Context, id int64, draft domain.OrderDraft) (*domain.Order, error)
	statusFn func(ctx context.Context, id int64, status domain.OrderStatus, routeID *int64) (bool, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)

	created []domain.OrderDraft
	updated []domain.OrderDraft
	changes []statusChange
	deleted []int64
}

type statusChange struct {
	id      int64
	status  domain.OrderStatus
	routeID *int64
}

func newMockRepository(orders ...domain.Order) *mockRepository {
	m := &mockRepository{orders: map[int64]*domain.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = &o
	}
	return m
}

func (m *mockRepository) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	m.created = append(m.created, draft)
	if m.createFn != nil {
		return m.createFn(ctx, draft)
	}
	lines, total := domain.PriceLines(draft.Lines)
	order := &domain.Order{
		ID:           int64(len(m.created)),
		CustomerID:   draft.CustomerID,
		RouteID:      draft.RouteID,
		DeliveryDate: draft.DeliveryDate,
		Status:       draft.Status,
		Notes:        draft.Notes,
		Total:        total,
		Version:      1,
		Lines:        lines,
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, draft domain.OrderDraft) (*domain.Order, error) {
	m.updated = append(m.updated, draft)
	if m.updateFn != nil {
		return m.updateFn(ctx, id, draft)
	}
	current, ok := m.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	lines, total := domain.PriceLines(draft.Lines)
	next := *current
	next.CustomerID = draft.CustomerID
	next.Status = draft.Status
	next.Total = total
	next.Lines = lines
	next.Version++
	m.orders[id] = &next
	return &next, nil
}

func (m *mockRepository) ChangeStatus(ctx context.Context, id int64, status domain.OrderStatus, routeID *int64) (bool, error) {
	m.changes = append(m.changes, statusChange{id: id, status: status, routeID: routeID})
	if m.statusFn != nil {
		return m.statusFn(ctx, id, status, routeID)
	}
	order, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	order.Status = status
	if routeID != nil {
		order.RouteID = routeID
	}
	return true, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.deleted = append(m.deleted, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	_, ok := m.orders[id]
	delete(m.orders, id)
	return ok, nil
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

type mockCatalog struct {
	customers map[int64]bool
	routes    map[int64]bool
	products  map[int64]bool
	err       error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		customers: map[int64]bool{1: true},
		routes:    map[int64]bool{5: true},
		products:  map[int64]bool{10: true, 11: true},
	}
}

func (m *mockCatalog) CustomerExists(_ context.Context, id int64) (bool, error) {
	return m.customers[id], m.err
}

func (m *mockCatalog) RouteExists(_ context.Context, id int64) (bool, error) {
	return m.routes[id], m.err
}

func (m *mockCatalog) MissingProducts(_ context.Context, ids []int64) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	var missing []int64
	for _, id := range ids {
		if !m.products[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type mockEventBus struct {
	err     error
	created []int64
	updated []int64
	changed []domain.OrderStatus
	deleted []int64
}

func (m *mockEventBus) PublishOrderCreated(_ context.Context, order domain.Order) error {
	m.created = append(m.created, order.ID)
	return m.err
}

func (m *mockEventBus) PublishOrderUpdated(_ context.Context, order domain.Order) error {
	m.updated = append(m.updated, order.ID)
	return m.err
}

func (m *mockEventBus) PublishOrderStatusChanged(_ context.Context, _ int64, status domain.OrderStatus) error {
	m.changed = append(m.changed, status)
	return m.err
}

func (m *mockEventBus) PublishOrderDeleted(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func newDeps(repo *mockRepository, events *mockEventBus) commands.Deps {
	return commands.Deps{
		Repo:    repo,
		Catalog: newMockCatalog(),
		Events:  events,
		Now:     func() time.Time { return fixedNow },
	}
}

func validLines() []commands.LineInput {
	return []commands.LineInput{
		{ProductID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("150.00")},
		{ProductID: 11, Quantity: 1, UnitPrice: decimal.RequireFromString("300.00")},
	}
}

func storedOrder(id int64, status domain.OrderStatus) domain.Order {
	return domain.Order{
		ID:           id,
		CustomerID:   1,
		DeliveryDate: fixedNow.Add(48 * time.Hour),
		Status:       status,
		Version:      1,
	}
}
