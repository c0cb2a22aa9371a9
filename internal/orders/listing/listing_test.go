package listing_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func orderFixtures() []domain.Order {
	day := func(d int) time.Time { return time.Date(2025, 5, d, 9, 0, 0, 0, time.UTC) }
	acme := &domain.Customer{ID: 1, Name: "Acme Corp", Email: "ops@acme.test"}
	globex := &domain.Customer{ID: 2, Name: "Globex", Email: "buyer@globex.test"}

	return []domain.Order{
		{ID: 1, CustomerID: 1, Customer: acme, Status: domain.StatusPending, OrderDate: day(1), Total: decimal.RequireFromString("600.00"), Notes: "leave at dock"},
		{ID: 2, CustomerID: 2, Customer: globex, Status: domain.StatusConfirmed, OrderDate: day(2), Total: decimal.RequireFromString("80.50"), RouteID: ptr(int64(3))},
		{ID: 3, CustomerID: 1, Customer: acme, Status: domain.StatusDelivered, OrderDate: day(3), Total: decimal.RequireFromString("1200.00")},
		{ID: 4, CustomerID: 2, Customer: globex, Status: domain.StatusPending, OrderDate: day(4), Total: decimal.RequireFromString("15.00"), Notes: "fragile ACME parts"},
	}
}

func listIDs(orders []domain.Order) []int64 {
	out := make([]int64, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestOrderFilter(t *testing.T) {
	ctx := context.Background()
	pager := query.NewPager[domain.Order](query.SliceOf(orderFixtures()), listing.OrdersPager(nil), nil)

	tests := []struct {
		name   string
		filter listing.OrderFilter
		req    query.PageRequest
		want   []int64
	}{
		{name: "no filter", want: []int64{1, 2, 3, 4}},
		{name: "customer", filter: listing.OrderFilter{CustomerID: ptr(int64(1))}, want: []int64{1, 3}},
		{name: "status", filter: listing.OrderFilter{Status: ptr(domain.StatusPending)}, want: []int64{1, 4}},
		{name: "route", filter: listing.OrderFilter{RouteID: ptr(int64(3))}, want: []int64{2}},
		{
			name: "order date range is inclusive",
			filter: listing.OrderFilter{
				OrderedFrom: ptr(time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)),
				OrderedTo:   ptr(time.Date(2025, 5, 3, 9, 0, 0, 0, time.UTC)),
			},
			want: []int64{2, 3},
		},
		{
			name:   "total range",
			filter: listing.OrderFilter{MinTotal: ptr(decimal.RequireFromString("80.50")), MaxTotal: ptr(decimal.RequireFromString("600"))},
			want:   []int64{1, 2},
		},
		{name: "search matches customer name and notes", req: query.PageRequest{SearchTerm: "acme"}, want: []int64{1, 3, 4}},
		{name: "search matches email", req: query.PageRequest{SearchTerm: "BUYER@"}, want: []int64{2, 4}},
		{name: "sort by total descending", req: query.PageRequest{SortBy: "total", SortDirection: query.Descending}, want: []int64{3, 1, 2, 4}},
		{name: "sort by customer name", req: query.PageRequest{SortBy: "customerName"}, want: []int64{1, 3, 2, 4}},
		{name: "unknown sort is ignored", req: query.PageRequest{SortBy: "customer.password"}, want: []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := pager.Query(ctx, tt.req, tt.filter, "/v1/orders")

			require.NoError(t, err)
			assert.Equal(t, tt.want, listIDs(page.Items))
			assert.Equal(t, len(tt.want), page.TotalCount)
		})
	}
}

func TestOrderFilterSQL(t *testing.T) {
	filter := listing.OrderFilter{
		CustomerID: ptr(int64(9)),
		Status:     ptr(domain.StatusConfirmed),
		MinTotal:   ptr(decimal.RequireFromString("10")),
	}

	conds := filter.Conditions()

	require.Len(t, conds, 3)
	assert.Equal(t, "o.customer_id = ?", conds[0].SQL)
	assert.Equal(t, []any{int64(9)}, conds[0].Args)
	assert.Equal(t, "o.status = ?", conds[1].SQL)
	assert.Equal(t, []any{"Confirmed"}, conds[1].Args)
	assert.Equal(t, "o.total >= ?", conds[2].SQL)
	assert.Empty(t, listing.OrderFilter{}.Conditions())
}

func TestOrderFilterValues(t *testing.T) {
	filter := listing.OrderFilter{
		CustomerID:  ptr(int64(7)),
		Status:      ptr(domain.StatusPending),
		OrderedFrom: ptr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		OrderedTo:   ptr(time.Date(2025, 1, 31, 18, 30, 0, 0, time.UTC)),
		MaxTotal:    ptr(decimal.RequireFromString("99.90")),
	}

	assert.Equal(t,
		"customerId=7&maxTotal=99.9&orderedFrom=2025-01-01&orderedTo=2025-01-31T18%3A30%3A00Z&status=Pending",
		filter.Values().Encode(),
	)
}

func TestParseTime(t *testing.T) {
	date, err := listing.ParseTime("2025-02-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, "2025-02-03", listing.FormatTime(date))

	stamp, err := listing.ParseTime("2025-02-03T10:20:30Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-03T10:20:30Z", listing.FormatTime(stamp))

	_, err = listing.ParseTime("03/02/2025")
	assert.Error(t, err)
}

func TestReportFilters(t *testing.T) {
	ctx := context.Background()
	when := func(d int) time.Time { return time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC) }

	pending := []domain.PendingDelivery{
		{OrderID: 1, CustomerName: "Acme Corp", DeliveryAddress: "1 Main St", Status: domain.StatusPending, DeliveryDate: when(10), Total: decimal.RequireFromString("100")},
		{OrderID: 2, CustomerName: "Globex", DeliveryAddress: "9 Side Rd", Status: domain.StatusInTransit, DeliveryDate: when(11), Total: decimal.RequireFromString("250"), RouteID: ptr(int64(4)), RouteName: "North loop"},
		{OrderID: 3, CustomerName: "Initech", DeliveryAddress: "5 Main St", Status: domain.StatusDelivered, DeliveryDate: when(9), Total: decimal.RequireFromString("75")},
		{OrderID: 4, CustomerName: "Acme Labs", DeliveryAddress: "2 Lab Way", Status: domain.StatusCancelled, DeliveryDate: when(12), Total: decimal.RequireFromString("60")},
	}
	pager := query.NewPager[domain.PendingDelivery](query.SliceOf(pending), listing.PendingPager(nil), nil)

	t.Run("keeps only open orders", func(t *testing.T) {
		page, err := pager.Query(ctx, query.PageRequest{}, listing.PendingFilter(listing.ReportFilter{}), "")

		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalCount)
	})

	t.Run("filters by delivery window, route and customer name", func(t *testing.T) {
		filter := listing.ReportFilter{
			DeliveryFrom: ptr(when(11)),
			DeliveryTo:   ptr(when(11)),
			RouteID:      ptr(int64(4)),
			CustomerName: "glob",
			MinTotal:     ptr(decimal.RequireFromString("200")),
		}

		page, err := pager.Query(ctx, query.PageRequest{}, listing.PendingFilter(filter), "/v1/reports/pending-deliveries")

		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, int64(2), page.Items[0].OrderID)
		assert.Contains(t, page.Links.First, "customerName=glob")
	})

	t.Run("searches address and route name", func(t *testing.T) {
		page, err := pager.Query(ctx, query.PageRequest{SearchTerm: "north"}, listing.PendingFilter(listing.ReportFilter{}), "")

		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, int64(2), page.Items[0].OrderID)
	})

	t.Run("completed report keeps only delivered orders", func(t *testing.T) {
		completed := []domain.CompletedDelivery{
			{OrderID: 3, Status: domain.StatusDelivered, CustomerName: "Initech", TotalItems: 4},
			{OrderID: 5, Status: domain.StatusInTransit, CustomerName: "Initech", TotalItems: 1},
			{OrderID: 6, Status: domain.StatusDelivered, CustomerName: "Acme", TotalItems: 9},
		}
		completedPager := query.NewPager[domain.CompletedDelivery](query.SliceOf(completed), listing.CompletedPager(nil), nil)

		page, err := completedPager.Query(ctx, query.PageRequest{SortBy: "totalItems", SortDirection: query.Descending}, listing.CompletedFilter(listing.ReportFilter{}), "")

		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(6), page.Items[0].OrderID)
		assert.Equal(t, int64(3), page.Items[1].OrderID)
	})
}
