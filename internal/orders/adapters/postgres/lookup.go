package postgres

import (
	"context"

	"github.com/dejobratic/orderdesk/internal/storage"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "customer", `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id)
}

func (r *Repository) RouteExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "route", `SELECT EXISTS (SELECT 1 FROM routes WHERE id = $1)`, id)
}

// MissingProducts returns the ids without a product row, in the order given.
func (r *Repository) MissingProducts(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT want.id
		FROM unnest($1::bigint[]) WITH ORDINALITY AS want(id, ord)
		LEFT JOIN products p ON p.id = want.id
		WHERE p.id IS NULL
		ORDER BY want.ord
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, storage.Failure("lookup products", err)
	}

	missing, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, storage.Failure("lookup products", err)
	}
	return missing, nil
}

func (r *Repository) exists(ctx context.Context, kind, query string, id int64) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&found); err != nil {
		r.logger.ErrorContext(ctx, "reference lookup failed", "kind", kind, "id", id, "error", err)
		return false, storage.Failure("lookup "+kind, err)
	}
	return found, nil
}
