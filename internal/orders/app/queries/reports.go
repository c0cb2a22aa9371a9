package queries

import (
	"context"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/shopspring/decimal"
)

// ReportQuery asks for one page of a delivery report.
type ReportQuery struct {
	Page      query.PageRequest
	Filter    listing.ReportFilter
	BaseRoute string
}

func (q ReportQuery) Validate() error {
	f := q.Filter
	if f.DeliveryFrom != nil && f.DeliveryTo != nil && f.DeliveryFrom.After(*f.DeliveryTo) {
		return domain.Invalid("deliveryFrom", "must not be after deliveryTo")
	}
	if f.MinTotal != nil && f.MinTotal.IsNegative() {
		return domain.Invalid("minTotal", "must not be negative")
	}
	return nil
}

// PendingStatistics summarise a pending-deliveries page. TotalPending spans
// every matching row; the rest cover the returned page only.
type PendingStatistics struct {
	TotalPending int             `json:"total_pending"`
	Urgent       int             `json:"urgent"`
	Upcoming     int             `json:"upcoming"`
	PendingValue decimal.Decimal `json:"pending_value"`
}

type PendingReport struct {
	Statistics PendingStatistics                  `json:"statistics"`
	Deliveries query.Page[domain.PendingDelivery] `json:"deliveries"`
}

// CompletedStatistics summarise a completed-deliveries page. TotalCompleted
// spans every matching row; the rest cover the returned page only.
type CompletedStatistics struct {
	TotalCompleted       int             `json:"total_completed"`
	DeliveredValue       decimal.Decimal `json:"delivered_value"`
	ProductsDelivered    int             `json:"products_delivered"`
	ItemsDelivered       int             `json:"items_delivered"`
	AverageDeliveryValue decimal.Decimal `json:"average_delivery_value"`
}

type CompletedReport struct {
	Statistics CompletedStatistics                  `json:"statistics"`
	Deliveries query.Page[domain.CompletedDelivery] `json:"deliveries"`
}

// Dashboard counts deliveries without returning rows.
type Dashboard struct {
	GeneratedAt    time.Time `json:"generated_at"`
	TotalPending   int       `json:"total_pending"`
	TotalCompleted int       `json:"total_completed"`
	TotalOverall   int       `json:"total_overall"`
	DueToday       int       `json:"due_today"`
	DueTomorrow    int       `json:"due_tomorrow"`
	DueThisWeek    int       `json:"due_this_week"`
}

// Delivery days counting as urgent and upcoming.
const (
	urgentWithinDays   = 1
	upcomingWithinDays = 3
)

type ReportsQueryHandler struct {
	orders ports.OrderQueries
	now    func() time.Time
}

// NewReportsQueryHandler builds the report handler; a nil now uses time.Now.
func NewReportsQueryHandler(orders ports.OrderQueries, now func() time.Time) *ReportsQueryHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportsQueryHandler{orders: orders, now: now}
}

func (h *ReportsQueryHandler) PendingDeliveries(ctx context.Context, q ReportQuery) (*PendingReport, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	page, err := h.orders.PendingDeliveries(ctx, q.Page, q.Filter, q.BaseRoute)
	if err != nil {
		return nil, err
	}

	stats := PendingStatistics{TotalPending: page.TotalCount, PendingValue: decimal.Zero}
	for _, row := range page.Items {
		if row.DaysToDelivery <= urgentWithinDays {
			stats.Urgent++
		}
		if row.DaysToDelivery <= upcomingWithinDays {
			stats.Upcoming++
		}
		stats.PendingValue = stats.PendingValue.Add(row.Total)
	}

	return &PendingReport{Statistics: stats, Deliveries: page}, nil
}

func (h *ReportsQueryHandler) CompletedDeliveries(ctx context.Context, q ReportQuery) (*CompletedReport, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	page, err := h.orders.CompletedDeliveries(ctx, q.Page, q.Filter, q.BaseRoute)
	if err != nil {
		return nil, err
	}

	stats := CompletedStatistics{
		TotalCompleted:       page.TotalCount,
		DeliveredValue:       decimal.Zero,
		AverageDeliveryValue: decimal.Zero,
	}
	for _, row := range page.Items {
		stats.DeliveredValue = stats.DeliveredValue.Add(row.Total)
		stats.ProductsDelivered += row.TotalProducts
		stats.ItemsDelivered += row.TotalItems
	}
	if n := len(page.Items); n > 0 {
		stats.AverageDeliveryValue = stats.DeliveredValue.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	return &CompletedReport{Statistics: stats, Deliveries: page}, nil
}

// Dashboard counts pending and completed deliveries, and pending deliveries
// due today, tomorrow and within the coming week (UTC calendar days).
func (h *ReportsQueryHandler) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := h.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	countOnly := query.PageRequest{Page: 1, PageSize: 1}

	pending, err := h.countPending(ctx, countOnly, listing.ReportFilter{})
	if err != nil {
		return nil, err
	}
	completed, err := h.orders.CompletedDeliveries(ctx, countOnly, listing.ReportFilter{}, "")
	if err != nil {
		return nil, err
	}

	dueToday, err := h.countPending(ctx, countOnly, dayWindow(today, 1))
	if err != nil {
		return nil, err
	}
	dueTomorrow, err := h.countPending(ctx, countOnly, dayWindow(today.AddDate(0, 0, 1), 1))
	if err != nil {
		return nil, err
	}
	dueThisWeek, err := h.countPending(ctx, countOnly, dayWindow(today, 8))
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		GeneratedAt:    now,
		TotalPending:   pending,
		TotalCompleted: completed.TotalCount,
		TotalOverall:   pending + completed.TotalCount,
		DueToday:       dueToday,
		DueTomorrow:    dueTomorrow,
		DueThisWeek:    dueThisWeek,
	}, nil
}

func (h *ReportsQueryHandler) countPending(ctx context.Context, req query.PageRequest, filter listing.ReportFilter) (int, error) {
	page, err := h.orders.PendingDeliveries(ctx, req, filter, "")
	if err != nil {
		return 0, err
	}
	return page.TotalCount, nil
}

// dayWindow covers days whole calendar days starting at start.
func dayWindow(start time.Time, days int) listing.ReportFilter {
	end := start.AddDate(0, 0, days).Add(-time.Nanosecond)
	return listing.ReportFilter{DeliveryFrom: &start, DeliveryTo: &end}
}
