package query

import (
	"context"
	"fmt"
	"slices"
)

// Source is a row store a Query can count and fetch from.
type Source[T any] interface {
	Count(ctx context.Context, conds []Condition[T]) (int, error)
	Fetch(ctx context.Context, conds []Condition[T], order []Ordering[T], limit, offset int) ([]T, error)
}

// Query is an immutable description of a filtered, sorted read over a Source.
// Every builder method returns a new Query and leaves the receiver untouched.
type Query[T any] struct {
	source Source[T]
	conds  []Condition[T]
	order  []Ordering[T]
}

// From starts a query over source in its natural order.
func From[T any](source Source[T]) Query[T] {
	return Query[T]{source: source}
}

// ApplyFilters ANDs every non-zero condition onto the query.
func (q Query[T]) ApplyFilters(conds ...Condition[T]) Query[T] {
	next := q
	next.conds = slices.Clone(q.conds)
	for _, cond := range conds {
		if cond.IsZero() {
			continue
		}
		next.conds = append(next.conds, cond)
	}
	return next
}

// ApplySort orders the query by the allow-listed key named sortBy. Unknown or
// empty names leave the query in the source's natural order.
func (q Query[T]) ApplySort(keys SortKeys[T], sortBy string, direction Direction) Query[T] {
	key, ok := keys.Lookup(sortBy)
	if !ok {
		return q
	}
	next := q
	next.order = []Ordering[T]{{Key: key, Direction: ParseDirection(string(direction))}}
	return next
}

// Paginate counts the filtered rows and fetches one page of them. page and
// pageSize are normalized first. Count and fetch are separate round-trips.
func (q Query[T]) Paginate(ctx context.Context, page, pageSize int) ([]T, int, error) {
	req := PageRequest{Page: page, PageSize: pageSize}.Normalize()

	total, err := q.source.Count(ctx, q.conds)
	if err != nil {
		return nil, 0, fmt.Errorf("count rows: %w", err)
	}

	if total == 0 || req.Offset() >= total {
		return []T{}, total, nil
	}

	items, err := q.source.Fetch(ctx, q.conds, q.order, req.PageSize, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("fetch rows: %w", err)
	}

	return items, total, nil
}
