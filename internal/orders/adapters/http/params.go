package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/query"
)

// params reads query string values and keeps the first parse failure.
type params struct {
	values url.Values
	err    error
}

func newParams(r *http.Request) *params {
	return &params{values: r.URL.Query()}
}

func (p *params) fail(field, format string, args ...any) {
	if p.err == nil {
		p.err = domain.Invalid(field, format, args...)
	}
}

func (p *params) str(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *params) integer(key string) int {
	raw := p.str(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates to the nearest bound; paging clamps it from there.
		return v
	}
	if err != nil {
		p.fail(key, "must be an integer")
		return 0
	}
	return v
}

func (p *params) id(key string) *int64 {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		p.fail(key, "must be a positive integer")
		return nil
	}
	return &v
}

func (p *params) time(key string) *time.Time {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := listing.ParseTime(raw)
	if err != nil {
		p.fail(key, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return nil
	}
	return &v
}

func (p *params) decimal(key string) *decimal.Decimal {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(key, "must be a number")
		return nil
	}
	return &v
}

func (p *params) status(key string) *domain.OrderStatus {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, ok := domain.ParseStatus(raw)
	if !ok {
		p.fail(key, "unknown status %q", raw)
		return nil
	}
	return &v
}

// pageRequest reads the paging, sort and search parameters. Out-of-range
// values are normalized by the pager rather than rejected.
func (p *params) pageRequest() query.PageRequest {
	return query.PageRequest{
		Page:          p.integer("page"),
		PageSize:      p.integer("pageSize"),
		SortBy:        p.str("sortBy"),
		SortDirection: query.ParseDirection(p.str("sortDirection")),
		SearchTerm:    p.str("searchTerm"),
	}
}

func (p *params) orderFilter() listing.OrderFilter {
	return listing.OrderFilter{
		CustomerID:  p.id("customerId"),
		Status:      p.status("status"),
		RouteID:     p.id("routeId"),
		OrderedFrom: p.time("orderedFrom"),
		OrderedTo:   p.time("orderedTo"),
		MinTotal:    p.decimal("minTotal"),
		MaxTotal:    p.decimal("maxTotal"),
	}
}

func (p *params) reportFilter() listing.ReportFilter {
	return listing.ReportFilter{
		DeliveryFrom: p.time("deliveryFrom"),
		DeliveryTo:   p.time("deliveryTo"),
		RouteID:      p.id("routeId"),
		CustomerName: p.str("customerName"),
		MinTotal:     p.decimal("minTotal"),
	}
}

// pathID reads a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return id, nil
}
