package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/orderdesk/internal/database"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/dejobratic/orderdesk/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool      *pgxpool.Pool
	retry     database.RetryPolicy
	logger    *slog.Logger
	dbMetrics *database.Metrics

	ordersPager    *query.Pager[domain.Order]
	pendingPager   *query.Pager[domain.PendingDelivery]
	completedPager *query.Pager[domain.CompletedDelivery]
}

type Option func(*Repository)

// WithRetryPolicy bounds how Create and Update re-run after transient failures.
func WithRetryPolicy(policy database.RetryPolicy) Option {
	return func(r *Repository) { r.retry = policy }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithDatabaseMetrics counts transaction retries.
func WithDatabaseMetrics(metrics *database.Metrics) Option {
	return func(r *Repository) { r.dbMetrics = metrics }
}

func NewRepository(pool *pgxpool.Pool, queryMetrics *query.Metrics, opts ...Option) *Repository {
	r := &Repository{
		pool:   pool,
		retry:  database.DefaultRetryPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.initPagers(queryMetrics)
	return r
}

// Create inserts the order and then each of its lines in one transaction,
// and returns the stored aggregate.
func (r *Repository) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	lines, total := domain.PriceLines(draft.Lines)
	now := time.Now().UTC()

	query := `
		INSERT INTO orders (customer_id, route_id, order_date, delivery_date, status, notes, total, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		RETURNING id
	`

	var id int64
	err := database.InTx(ctx, r.pool, r.policy(ctx, "create_order"), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			draft.CustomerID,
			draft.RouteID,
			now,
			draft.DeliveryDate,
			domain.StatusPending,
			nullableText(draft.Notes),
			total,
			now,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		return insertLines(ctx, tx, id, lines)
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to create order", "customer_id", draft.CustomerID, "error", err)
		return nil, storage.Failure("create order", err)
	}

	return r.GetByID(ctx, id)
}

// Update locks the order row, rewrites its fields and replaces all of its
// lines in one transaction, and returns the stored aggregate.
func (r *Repository) Update(ctx context.Context, id int64, draft domain.OrderDraft) (*domain.Order, error) {
	lines, total := domain.PriceLines(draft.Lines)

	lockQuery := `SELECT version FROM orders WHERE id = $1 FOR UPDATE`
	updateQuery := `
		UPDATE orders
		SET customer_id = $1, route_id = $2, delivery_date = $3, status = $4, notes = $5,
			total = $6, updated_at = $7, version = version + 1
		WHERE id = $8
	`
	deleteLinesQuery := `DELETE FROM order_lines WHERE order_id = $1`

	err := database.InTx(ctx, r.pool, r.policy(ctx, "update_order"), func(tx pgx.Tx) error {
		var version int
		if err := tx.QueryRow(ctx, lockQuery, id).Scan(&version); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ports.ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if draft.ExpectedVersion != nil && *draft.ExpectedVersion != version {
			return fmt.Errorf("%w: order %d is at version %d, update expected %d",
				ports.ErrStaleData, id, version, *draft.ExpectedVersion)
		}

		_, err := tx.Exec(ctx, updateQuery,
			draft.CustomerID,
			draft.RouteID,
			draft.DeliveryDate,
			draft.Status,
			nullableText(draft.Notes),
			total,
			time.Now().UTC(),
			id,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if _, err := tx.Exec(ctx, deleteLinesQuery, id); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}

		return insertLines(ctx, tx, id, lines)
	})
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) && !errors.Is(err, ports.ErrStaleData) {
			r.logger.ErrorContext(ctx, "failed to update order", "order_id", id, "error", err)
		}
		return nil, storage.Failure("update order", err)
	}

	return r.GetByID(ctx, id)
}

// ChangeStatus sets the status and, when routeID is non-nil, the route.
// It reports false when the order does not exist.
func (r *Repository) ChangeStatus(ctx context.Context, id int64, status domain.OrderStatus, routeID *int64) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, route_id = COALESCE($2, route_id), updated_at = $3, version = version + 1
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query, status, routeID, time.Now().UTC(), id)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to change order status", "order_id", id, "status", status, "error", err)
		return false, storage.Failure("change order status", err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes the order; its lines go with it through the foreign key cascade.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM orders WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to delete order", "order_id", id, "error", err)
		return false, storage.Failure("delete order", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByID loads the order with its customer, route and lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM ` + orderFrom + ` WHERE o.id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, storage.Failure("select order", err)
	}

	order, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, storage.Failure("select order", err)
	}

	orders := []domain.Order{order}
	if err := loadLines(ctx, r.pool, orders); err != nil {
		return nil, storage.Failure("select order lines", err)
	}

	return &orders[0], nil
}

func (r *Repository) policy(ctx context.Context, operation string) database.RetryPolicy {
	policy := r.retry
	policy.OnRetry = func(err error, next time.Duration) {
		r.logger.WarnContext(ctx, "retrying transaction",
			"operation", operation,
			"retry_in", next,
			"error", err,
		)
		r.dbMetrics.RecordTxRetry(ctx, operation)
	}
	return policy
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []domain.OrderLine) error {
	query := `
		INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query, orderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal)
	}

	results := tx.SendBatch(ctx, batch)
	for _, line := range lines {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert order line for product %d: %w", line.ProductID, err)
		}
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
