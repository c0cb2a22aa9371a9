package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Querier is the read surface of pgxpool.Pool, pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLSource serves queries from PostgreSQL. Conditions are rendered into the
// WHERE clause, orderings into ORDER BY with NaturalOrder as tie-breaker.
type SQLSource[T any] struct {
	DB           Querier
	Columns      string
	From         string
	NaturalOrder string
	Scan         pgx.RowToFunc[T]
	// Load enriches a fetched page in place, e.g. with child rows.
	Load func(ctx context.Context, items []T) error
}

func (s *SQLSource[T]) Count(ctx context.Context, conds []Condition[T]) (int, error) {
	where, args, err := renderWhere(conds)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + s.From + where

	var total int
	if err := s.DB.QueryRow(ctx, rebind(query), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}

func (s *SQLSource[T]) Fetch(ctx context.Context, conds []Condition[T], order []Ordering[T], limit, offset int) ([]T, error) {
	where, args, err := renderWhere(conds)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + s.Columns + " FROM " + s.From + where + s.orderBy(order) + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	items, err := pgx.CollectRows(rows, s.Scan)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	if s.Load != nil && len(items) > 0 {
		if err := s.Load(ctx, items); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}

	return items, nil
}

func (s *SQLSource[T]) orderBy(order []Ordering[T]) string {
	clauses := make([]string, 0, len(order)+1)
	for _, o := range order {
		clauses = append(clauses, o.sql())
	}
	if s.NaturalOrder != "" {
		clauses = append(clauses, s.NaturalOrder)
	}
	if len(clauses) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func renderWhere[T any](conds []Condition[T]) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(conds))
	var args []any
	for _, cond := range conds {
		if cond.SQL == "" {
			return "", nil, errors.New("condition has no SQL form")
		}
		clauses = append(clauses, cond.SQL)
		args = append(args, cond.Args...)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// rebind turns ? placeholders into PostgreSQL's positional $n form.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
