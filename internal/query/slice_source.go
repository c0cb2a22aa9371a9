package query

import (
	"context"
	"fmt"
	"slices"
)

// SliceSource serves queries from an in-memory snapshot. Its natural order is
// the snapshot order; sorting is stable on top of it.
type SliceSource[T any] struct {
	rows func(ctx context.Context) ([]T, error)
}

// NewSliceSource builds a source that takes a fresh snapshot on every call.
func NewSliceSource[T any](rows func(ctx context.Context) ([]T, error)) *SliceSource[T] {
	return &SliceSource[T]{rows: rows}
}

// SliceOf builds a source over a fixed set of items.
func SliceOf[T any](items []T) *SliceSource[T] {
	return NewSliceSource(func(context.Context) ([]T, error) {
		return items, nil
	})
}

func (s *SliceSource[T]) Count(ctx context.Context, conds []Condition[T]) (int, error) {
	rows, err := s.filter(ctx, conds)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *SliceSource[T]) Fetch(ctx context.Context, conds []Condition[T], order []Ordering[T], limit, offset int) ([]T, error) {
	rows, err := s.filter(ctx, conds)
	if err != nil {
		return nil, err
	}

	if len(order) > 0 {
		slices.SortStableFunc(rows, func(a, b T) int {
			for _, o := range order {
				if c := o.compare(a, b); c != 0 {
					return c
				}
			}
			return 0
		})
	}

	if offset >= len(rows) {
		return []T{}, nil
	}
	end := min(offset+limit, len(rows))

	return slices.Clone(rows[offset:end]), nil
}

func (s *SliceSource[T]) filter(ctx context.Context, conds []Condition[T]) ([]T, error) {
	snapshot, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}

	for _, cond := range conds {
		if cond.Match == nil {
			return nil, fmt.Errorf("condition %q has no in-memory matcher", cond.SQL)
		}
	}

	rows := make([]T, 0, len(snapshot))
	for _, row := range snapshot {
		if matchesAll(row, conds) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func matchesAll[T any](row T, conds []Condition[T]) bool {
	for _, cond := range conds {
		if !cond.Match(row) {
			return false
		}
	}
	return true
}
