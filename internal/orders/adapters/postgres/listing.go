package postgres

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/jackc/pgx/v5"
)

const (
	orderColumns = `o.id, o.customer_id, o.route_id, o.order_date, o.delivery_date, o.status,
		COALESCE(o.notes, ''), o.total, o.updated_at, o.version,
		c.id, c.name, c.address, c.email, r.id, r.name`
	orderFrom = `orders o
		JOIN customers c ON c.id = o.customer_id
		LEFT JOIN routes r ON r.id = o.route_id`

	pendingColumns = `o.id, c.name, c.address, c.email, o.status, o.delivery_date, o.total,
		o.route_id, COALESCE(r.name, ''), (o.delivery_date::date - CURRENT_DATE)`
	pendingFrom = orderFrom

	completedColumns = `o.id, c.name, c.address, o.status, o.order_date, o.delivery_date, o.total,
		o.route_id, COALESCE(r.name, ''), COALESCE(li.total_products, 0), COALESCE(li.total_items, 0)`
	completedFrom = orderFrom + `
		LEFT JOIN (
			SELECT order_id, COUNT(*) AS total_products, SUM(quantity) AS total_items
			FROM order_lines
			GROUP BY order_id
		) li ON li.order_id = o.id`
)

func (r *Repository) initPagers(metrics *query.Metrics) {
	r.ordersPager = query.NewPager[domain.Order](&query.SQLSource[domain.Order]{
		DB:           r.pool,
		Columns:      orderColumns,
		From:         orderFrom,
		NaturalOrder: "o.id",
		Scan:         scanOrder,
		Load: func(ctx context.Context, orders []domain.Order) error {
			return loadLines(ctx, r.pool, orders)
		},
	}, listing.OrdersPager(metrics), r.logger)

	r.pendingPager = query.NewPager[domain.PendingDelivery](&query.SQLSource[domain.PendingDelivery]{
		DB:           r.pool,
		Columns:      pendingColumns,
		From:         pendingFrom,
		NaturalOrder: "o.id",
		Scan:         scanPending,
	}, listing.PendingPager(metrics), r.logger)

	r.completedPager = query.NewPager[domain.CompletedDelivery](&query.SQLSource[domain.CompletedDelivery]{
		DB:           r.pool,
		Columns:      completedColumns,
		From:         completedFrom,
		NaturalOrder: "o.id",
		Scan:         scanCompleted,
	}, listing.CompletedPager(metrics), r.logger)
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

func scanOrder(row pgx.CollectableRow) (domain.Order, error) {
	var (
		order     domain.Order
		customer  domain.Customer
		routeID   *int64
		routeName *string
	)

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.RouteID,
		&order.OrderDate,
		&order.DeliveryDate,
		&order.Status,
		&order.Notes,
		&order.Total,
		&order.UpdatedAt,
		&order.Version,
		&customer.ID,
		&customer.Name,
		&customer.Address,
		&customer.Email,
		&routeID,
		&routeName,
	)
	if err != nil {
		return domain.Order{}, err
	}

	order.Customer = &customer
	if routeID != nil && routeName != nil {
		order.Route = &domain.Route{ID: *routeID, Name: *routeName}
	}
	order.Lines = []domain.OrderLine{}

	return order, nil
}

func scanPending(row pgx.CollectableRow) (domain.PendingDelivery, error) {
	var p domain.PendingDelivery
	err := row.Scan(
		&p.OrderID,
		&p.CustomerName,
		&p.DeliveryAddress,
		&p.Email,
		&p.Status,
		&p.DeliveryDate,
		&p.Total,
		&p.RouteID,
		&p.RouteName,
		&p.DaysToDelivery,
	)
	return p, err
}

func scanCompleted(row pgx.CollectableRow) (domain.CompletedDelivery, error) {
	var c domain.CompletedDelivery
	err := row.Scan(
		&c.OrderID,
		&c.CustomerName,
		&c.DeliveryAddress,
		&c.Status,
		&c.OrderDate,
		&c.DeliveryDate,
		&c.Total,
		&c.RouteID,
		&c.RouteName,
		&c.TotalProducts,
		&c.TotalItems,
	)
	return c, err
}

// loadLines fills the lines of every order in orders with a single query.
func loadLines(ctx context.Context, db query.Querier, orders []domain.Order) error {
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	sql := `
		SELECT l.id, l.order_id, l.product_id, l.quantity, l.unit_price, l.subtotal, p.id, p.name, p.code
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ANY($1)
		ORDER BY l.id
	`

	rows, err := db.Query(ctx, sql, ids)
	if err != nil {
		return err
	}

	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderLine, error) {
		var (
			line    domain.OrderLine
			product domain.Product
		)
		err := row.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
			&product.ID,
			&product.Name,
			&product.Code,
		)
		line.Product = &product
		return line, err
	})
	if err != nil {
		return err
	}

	for _, line := range lines {
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return nil
}
