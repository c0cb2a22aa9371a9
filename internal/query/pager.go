package query

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/dejobratic/orderdesk/internal/storage"
	"github.com/dejobratic/orderdesk/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Filter is the entity-specific part of a page request. Conditions returns a
// predicate per populated field; Values echoes those fields into page links.
type Filter[T any] interface {
	Conditions() []Condition[T]
	Values() url.Values
}

// PagerConfig describes how one entity kind is searched and sorted.
type PagerConfig[T any] struct {
	Name   string
	Sorts  SortKeys[T]
	Search []TextField[T]
	// Base conditions apply to every query, before any caller filter.
	Base    []Condition[T]
	Metrics *Metrics
}

// Pager runs the full page pipeline for one entity kind.
type Pager[T any] struct {
	source Source[T]
	cfg    PagerConfig[T]
	logger *slog.Logger
}

func NewPager[T any](source Source[T], cfg PagerConfig[T], logger *slog.Logger) *Pager[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pager[T]{source: source, cfg: cfg, logger: logger}
}

// Query normalizes req, applies base conditions, filters, search and sort,
// and returns the requested page. Storage errors are logged and returned as
// storage.ErrStorageFailure.
func (p *Pager[T]) Query(ctx context.Context, req PageRequest, filter Filter[T], baseRoute string) (Page[T], error) {
	ctx, span := telemetry.StartSpan(ctx, "Pager.Query")
	defer span.End()

	req = req.Normalize()
	telemetry.AddSpanAttributes(span,
		attribute.String("query.name", p.cfg.Name),
		attribute.Int("query.page", req.Page),
		attribute.Int("query.page_size", req.PageSize),
		attribute.String("query.sort_by", req.SortBy),
	)

	q := From(p.source).ApplyFilters(p.cfg.Base...)

	var values url.Values
	if filter != nil {
		q = q.ApplyFilters(filter.Conditions()...)
		values = filter.Values()
	}

	if cond, ok := Search(req.SearchTerm, p.cfg.Search...); ok {
		q = q.ApplyFilters(cond)
	}

	q = q.ApplySort(p.cfg.Sorts, req.SortBy, req.SortDirection)

	start := time.Now()
	items, total, err := q.Paginate(ctx, req.Page, req.PageSize)
	p.cfg.Metrics.RecordPage(ctx, p.cfg.Name, time.Since(start).Seconds(), total, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		p.logger.ErrorContext(ctx, "page query failed",
			"query", p.cfg.Name,
			"page", req.Page,
			"page_size", req.PageSize,
			"error", err,
		)
		return Page[T]{}, storage.Failure(p.cfg.Name, err)
	}

	telemetry.AddSpanAttributes(span, attribute.Int("query.total_count", total))
	telemetry.SetSpanSuccess(span)

	return BuildPage(items, total, req, baseRoute, values), nil
}
