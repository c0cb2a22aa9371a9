package listing

import (
	"cmp"
	"net/url"
	"strings"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/shopspring/decimal"
)

// ReportFilter narrows the delivery reports. Nil or empty fields impose nothing.
type ReportFilter struct {
	DeliveryFrom *time.Time
	DeliveryTo   *time.Time
	RouteID      *int64
	CustomerName string
	MinTotal     *decimal.Decimal
}

func (f ReportFilter) Values() url.Values {
	values := url.Values{}
	setTime(values, "deliveryFrom", f.DeliveryFrom)
	setTime(values, "deliveryTo", f.DeliveryTo)
	setInt(values, "routeId", f.RouteID)
	if name := strings.TrimSpace(f.CustomerName); name != "" {
		values.Set("customerName", name)
	}
	setDecimal(values, "minTotal", f.MinTotal)
	return values
}

// reportRow exposes the fields report filters need from a report row type.
type reportRow[T any] struct {
	deliveryDate func(T) time.Time
	routeID      func(T) *int64
	customerName func(T) string
	total        func(T) decimal.Decimal
}

type reportFilter[T any] struct {
	ReportFilter
	row reportRow[T]
}

func (f reportFilter[T]) Conditions() []query.Condition[T] {
	var conds []query.Condition[T]

	if f.DeliveryFrom != nil {
		from := *f.DeliveryFrom
		conds = append(conds, query.Where("o.delivery_date >= ?",
			func(r T) bool { return !f.row.deliveryDate(r).Before(from) }, from))
	}
	if f.DeliveryTo != nil {
		to := *f.DeliveryTo
		conds = append(conds, query.Where("o.delivery_date <= ?",
			func(r T) bool { return !f.row.deliveryDate(r).After(to) }, to))
	}
	if f.RouteID != nil {
		id := *f.RouteID
		conds = append(conds, query.Where("o.route_id = ?",
			func(r T) bool { routeID := f.row.routeID(r); return routeID != nil && *routeID == id }, id))
	}
	if cond, ok := query.Search(f.CustomerName, query.TextField[T]{Column: "c.name", Value: f.row.customerName}); ok {
		conds = append(conds, cond)
	}
	if f.MinTotal != nil {
		floor := *f.MinTotal
		conds = append(conds, query.Where("o.total >= ?",
			func(r T) bool { return f.row.total(r).GreaterThanOrEqual(floor) }, floor))
	}

	return conds
}

var pendingRow = reportRow[domain.PendingDelivery]{
	deliveryDate: func(r domain.PendingDelivery) time.Time { return r.DeliveryDate },
	routeID:      func(r domain.PendingDelivery) *int64 { return r.RouteID },
	customerName: func(r domain.PendingDelivery) string { return r.CustomerName },
	total:        func(r domain.PendingDelivery) decimal.Decimal { return r.Total },
}

var completedRow = reportRow[domain.CompletedDelivery]{
	deliveryDate: func(r domain.CompletedDelivery) time.Time { return r.DeliveryDate },
	routeID:      func(r domain.CompletedDelivery) *int64 { return r.RouteID },
	customerName: func(r domain.CompletedDelivery) string { return r.CustomerName },
	total:        func(r domain.CompletedDelivery) decimal.Decimal { return r.Total },
}

// PendingFilter adapts f to pending-delivery rows.
func PendingFilter(f ReportFilter) query.Filter[domain.PendingDelivery] {
	return reportFilter[domain.PendingDelivery]{ReportFilter: f, row: pendingRow}
}

// CompletedFilter adapts f to completed-delivery rows.
func CompletedFilter(f ReportFilter) query.Filter[domain.CompletedDelivery] {
	return reportFilter[domain.CompletedDelivery]{ReportFilter: f, row: completedRow}
}

func openStatusNames() []string {
	names := make([]string, len(domain.OpenStatuses))
	for i, status := range domain.OpenStatuses {
		names[i] = string(status)
	}
	return names
}

// PendingSorts is the allow-list of pending-delivery sort keys.
var PendingSorts = query.SortKeys[domain.PendingDelivery]{
	"orderId": {Column: "o.id", Compare: func(a, b domain.PendingDelivery) int {
		return cmp.Compare(a.OrderID, b.OrderID)
	}},
	"deliveryDate": {Column: "o.delivery_date", Compare: func(a, b domain.PendingDelivery) int {
		return a.DeliveryDate.Compare(b.DeliveryDate)
	}},
	"daysToDelivery": {Column: "o.delivery_date", Compare: func(a, b domain.PendingDelivery) int {
		return cmp.Compare(a.DaysToDelivery, b.DaysToDelivery)
	}},
	"total": {Column: "o.total", Compare: func(a, b domain.PendingDelivery) int {
		return a.Total.Cmp(b.Total)
	}},
	"customerName": {Column: "c.name", Compare: func(a, b domain.PendingDelivery) int {
		return cmp.Compare(a.CustomerName, b.CustomerName)
	}},
	"status": {Column: "o.status", Compare: func(a, b domain.PendingDelivery) int {
		return cmp.Compare(a.Status, b.Status)
	}},
}

// CompletedSorts is the allow-list of completed-delivery sort keys.
var CompletedSorts = query.SortKeys[domain.CompletedDelivery]{
	"orderId": {Column: "o.id", Compare: func(a, b domain.CompletedDelivery) int {
		return cmp.Compare(a.OrderID, b.OrderID)
	}},
	"orderDate": {Column: "o.order_date", Compare: func(a, b domain.CompletedDelivery) int {
		return a.OrderDate.Compare(b.OrderDate)
	}},
	"deliveryDate": {Column: "o.delivery_date", Compare: func(a, b domain.CompletedDelivery) int {
		return a.DeliveryDate.Compare(b.DeliveryDate)
	}},
	"total": {Column: "o.total", Compare: func(a, b domain.CompletedDelivery) int {
		return a.Total.Cmp(b.Total)
	}},
	"customerName": {Column: "c.name", Compare: func(a, b domain.CompletedDelivery) int {
		return cmp.Compare(a.CustomerName, b.CustomerName)
	}},
	"totalItems": {Column: "COALESCE(li.total_items, 0)", Compare: func(a, b domain.CompletedDelivery) int {
		return cmp.Compare(a.TotalItems, b.TotalItems)
	}},
}

// PendingSearch lists the text columns free-text search runs across in reports.
var PendingSearch = []query.TextField[domain.PendingDelivery]{
	{Column: "c.name", Value: func(r domain.PendingDelivery) string { return r.CustomerName }},
	{Column: "c.address", Value: func(r domain.PendingDelivery) string { return r.DeliveryAddress }},
	{Column: "r.name", Value: func(r domain.PendingDelivery) string { return r.RouteName }},
}

var CompletedSearch = []query.TextField[domain.CompletedDelivery]{
	{Column: "c.name", Value: func(r domain.CompletedDelivery) string { return r.CustomerName }},
	{Column: "c.address", Value: func(r domain.CompletedDelivery) string { return r.DeliveryAddress }},
	{Column: "r.name", Value: func(r domain.CompletedDelivery) string { return r.RouteName }},
}

// PendingPager configures the pending-deliveries report: every order that is
// not delivered or cancelled.
func PendingPager(metrics *query.Metrics) query.PagerConfig[domain.PendingDelivery] {
	open := openStatusNames()
	return query.PagerConfig[domain.PendingDelivery]{
		Name:   "pending_deliveries",
		Sorts:  PendingSorts,
		Search: PendingSearch,
		Base: []query.Condition[domain.PendingDelivery]{
			query.Where("o.status = ANY(?)", func(r domain.PendingDelivery) bool {
				return !r.Status.IsTerminal()
			}, open),
		},
		Metrics: metrics,
	}
}

// CompletedPager configures the completed-deliveries report.
func CompletedPager(metrics *query.Metrics) query.PagerConfig[domain.CompletedDelivery] {
	return query.PagerConfig[domain.CompletedDelivery]{
		Name:   "completed_deliveries",
		Sorts:  CompletedSorts,
		Search: CompletedSearch,
		Base: []query.Condition[domain.CompletedDelivery]{
			query.Where("o.status = ?", func(r domain.CompletedDelivery) bool {
				return r.Status == domain.StatusDelivered
			}, string(domain.StatusDelivered)),
		},
		Metrics: metrics,
	}
}
