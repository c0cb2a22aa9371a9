// Package listing declares how orders and delivery reports are filtered,
// searched and sorted. Every predicate carries both its SQL and in-memory
// form so the postgres and memory adapters share one definition.
package listing

import (
	"cmp"
	"net/url"
	"strconv"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/shopspring/decimal"
)

// OrderFilter narrows order listings. Nil fields impose nothing.
type OrderFilter struct {
	CustomerID  *int64
	Status      *domain.OrderStatus
	RouteID     *int64
	OrderedFrom *time.Time
	OrderedTo   *time.Time
	MinTotal    *decimal.Decimal
	MaxTotal    *decimal.Decimal
}

func (f OrderFilter) Conditions() []query.Condition[domain.Order] {
	var conds []query.Condition[domain.Order]

	if f.CustomerID != nil {
		id := *f.CustomerID
		conds = append(conds, query.Where("o.customer_id = ?",
			func(o domain.Order) bool { return o.CustomerID == id }, id))
	}
	if f.Status != nil {
		status := *f.Status
		conds = append(conds, query.Where("o.status = ?",
			func(o domain.Order) bool { return o.Status == status }, string(status)))
	}
	if f.RouteID != nil {
		id := *f.RouteID
		conds = append(conds, query.Where("o.route_id = ?",
			func(o domain.Order) bool { return o.RouteID != nil && *o.RouteID == id }, id))
	}
	if f.OrderedFrom != nil {
		from := *f.OrderedFrom
		conds = append(conds, query.Where("o.order_date >= ?",
			func(o domain.Order) bool { return !o.OrderDate.Before(from) }, from))
	}
	if f.OrderedTo != nil {
		to := *f.OrderedTo
		conds = append(conds, query.Where("o.order_date <= ?",
			func(o domain.Order) bool { return !o.OrderDate.After(to) }, to))
	}
	if f.MinTotal != nil {
		floor := *f.MinTotal
		conds = append(conds, query.Where("o.total >= ?",
			func(o domain.Order) bool { return o.Total.GreaterThanOrEqual(floor) }, floor))
	}
	if f.MaxTotal != nil {
		ceiling := *f.MaxTotal
		conds = append(conds, query.Where("o.total <= ?",
			func(o domain.Order) bool { return o.Total.LessThanOrEqual(ceiling) }, ceiling))
	}

	return conds
}

func (f OrderFilter) Values() url.Values {
	values := url.Values{}
	setInt(values, "customerId", f.CustomerID)
	if f.Status != nil {
		values.Set("status", string(*f.Status))
	}
	setInt(values, "routeId", f.RouteID)
	setTime(values, "orderedFrom", f.OrderedFrom)
	setTime(values, "orderedTo", f.OrderedTo)
	setDecimal(values, "minTotal", f.MinTotal)
	setDecimal(values, "maxTotal", f.MaxTotal)
	return values
}

// OrderSorts is the allow-list of order sort keys.
var OrderSorts = query.SortKeys[domain.Order]{
	"id": {Column: "o.id", Compare: func(a, b domain.Order) int {
		return cmp.Compare(a.ID, b.ID)
	}},
	"orderDate": {Column: "o.order_date", Compare: func(a, b domain.Order) int {
		return a.OrderDate.Compare(b.OrderDate)
	}},
	"deliveryDate": {Column: "o.delivery_date", Compare: func(a, b domain.Order) int {
		return a.DeliveryDate.Compare(b.DeliveryDate)
	}},
	"status": {Column: "o.status", Compare: func(a, b domain.Order) int {
		return cmp.Compare(a.Status, b.Status)
	}},
	"total": {Column: "o.total", Compare: func(a, b domain.Order) int {
		return a.Total.Cmp(b.Total)
	}},
	"customerName": {Column: "c.name", Compare: func(a, b domain.Order) int {
		return cmp.Compare(a.CustomerName(), b.CustomerName())
	}},
	"updatedAt": {Column: "o.updated_at", Compare: func(a, b domain.Order) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}},
}

// OrderSearch lists the text columns free-text search runs across.
var OrderSearch = []query.TextField[domain.Order]{
	{Column: "c.name", Value: domain.Order.CustomerName},
	{Column: "c.email", Value: func(o domain.Order) string {
		if o.Customer == nil {
			return ""
		}
		return o.Customer.Email
	}},
	{Column: "o.notes", Value: func(o domain.Order) string { return o.Notes }},
}

// OrdersPager configures the order listing.
func OrdersPager(metrics *query.Metrics) query.PagerConfig[domain.Order] {
	return query.PagerConfig[domain.Order]{
		Name:    "list_orders",
		Sorts:   OrderSorts,
		Search:  OrderSearch,
		Metrics: metrics,
	}
}

func setInt(values url.Values, key string, v *int64) {
	if v != nil {
		values.Set(key, strconv.FormatInt(*v, 10))
	}
}

func setDecimal(values url.Values, key string, v *decimal.Decimal) {
	if v != nil {
		values.Set(key, v.String())
	}
}

func setTime(values url.Values, key string, v *time.Time) {
	if v != nil {
		values.Set(key, FormatTime(*v))
	}
}

// FormatTime renders t as a date when it is midnight UTC and as RFC 3339 otherwise.
func FormatTime(t time.Time) string {
	if t.Location() == time.UTC && t.Equal(t.Truncate(24*time.Hour)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// ParseTime accepts a date (YYYY-MM-DD, read as midnight UTC) or an RFC 3339 timestamp.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
