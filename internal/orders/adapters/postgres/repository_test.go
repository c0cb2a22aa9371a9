//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dejobratic/orderdesk/internal/database/dbtest"
	"github.com/dejobratic/orderdesk/internal/orders/adapters/postgres"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	pool     *pgxpool.Pool
	repo     *postgres.Repository
	customer int64
	other    int64
	route    int64
	drill    int64
	saw      int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	pool := dbtest.NewPool(t)

	f := fixture{pool: pool, repo: postgres.NewRepository(pool, nil)}
	f.customer = insertID(t, pool, `INSERT INTO customers (name, address, email) VALUES ('Acme Corp', '1 Main St', 'ops@acme.test') RETURNING id`)
	f.other = insertID(t, pool, `INSERT INTO customers (name, address, email) VALUES ('Globex', '9 Side Rd', 'hq@globex.test') RETURNING id`)
	f.route = insertID(t, pool, `INSERT INTO routes (name) VALUES ('North loop') RETURNING id`)
	f.drill = insertID(t, pool, `INSERT INTO products (name, code, unit_price) VALUES ('Drill', 'DR-1', 150) RETURNING id`)
	f.saw = insertID(t, pool, `INSERT INTO products (name, code, unit_price) VALUES ('Saw', 'SW-1', 300) RETURNING id`)
	return f
}

func insertID(t *testing.T, pool *pgxpool.Pool, sql string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, pool.QueryRow(context.Background(), sql).Scan(&id))
	return id
}

func (f fixture) draft(customerID int64) domain.OrderDraft {
	return domain.OrderDraft{
		CustomerID:   customerID,
		DeliveryDate: time.Now().UTC().Add(72 * time.Hour),
		Notes:        "call on arrival",
		Lines: []domain.LineDraft{
			{ProductID: f.drill, Quantity: 2, UnitPrice: decimal.RequireFromString("150.00")},
			{ProductID: f.saw, Quantity: 1, UnitPrice: decimal.RequireFromString("300.00")},
		},
	}
}

func (f fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestRepositoryWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created *domain.Order

	t.Run("create stores the order and its lines with derived totals", func(t *testing.T) {
		var err error
		created, err = f.repo.Create(ctx, f.draft(f.customer))

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, created.Status)
		assert.Equal(t, 1, created.Version)
		assert.True(t, created.Total.Equal(decimal.RequireFromString("600")), "total %s", created.Total)
		assert.Equal(t, "Acme Corp", created.CustomerName())
		require.Len(t, created.Lines, 2)
		assert.True(t, created.Lines[0].Subtotal.Equal(decimal.RequireFromString("300")))
		require.NotNil(t, created.Lines[1].Product)
		assert.Equal(t, "Saw", created.Lines[1].Product.Name)
	})

	t.Run("create rolls back the order when a line fails", func(t *testing.T) {
		ordersBefore := f.count(t, "orders")
		draft := f.draft(f.customer)
		draft.Lines = append(draft.Lines, domain.LineDraft{ProductID: 999999, Quantity: 1, UnitPrice: decimal.NewFromInt(1)})

		_, err := f.repo.Create(ctx, draft)

		require.ErrorIs(t, err, ports.ErrStorageFailure)
		assert.Equal(t, ordersBefore, f.count(t, "orders"))
		assert.Equal(t, 2, f.count(t, "order_lines"))
	})

	t.Run("update replaces every line and bumps the version", func(t *testing.T) {
		require.NotNil(t, created)
		draft := f.draft(f.customer)
		draft.Status = domain.StatusConfirmed
		draft.RouteID = &f.route
		draft.Lines = []domain.LineDraft{{ProductID: f.saw, Quantity: 3, UnitPrice: decimal.RequireFromString("12.34")}}
		version := created.Version
		draft.ExpectedVersion = &version

		updated, err := f.repo.Update(ctx, created.ID, draft)

		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, domain.StatusConfirmed, updated.Status)
		assert.Equal(t, "North loop", updated.RouteName())
		require.Len(t, updated.Lines, 1)
		assert.True(t, updated.Total.Equal(decimal.RequireFromString("37.02")), "total %s", updated.Total)
		assert.Equal(t, 1, f.count(t, "order_lines"))
	})

	t.Run("update rejects a stale version", func(t *testing.T) {
		draft := f.draft(f.customer)
		draft.Status = domain.StatusConfirmed
		stale := 1
		draft.ExpectedVersion = &stale

		_, err := f.repo.Update(ctx, created.ID, draft)

		assert.ErrorIs(t, err, ports.ErrStaleData)
	})

	t.Run("update keeps the order when a replacement line fails", func(t *testing.T) {
		draft := f.draft(f.customer)
		draft.Status = domain.StatusConfirmed
		draft.Lines = []domain.LineDraft{{ProductID: 999999, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}

		_, err := f.repo.Update(ctx, created.ID, draft)
		require.ErrorIs(t, err, ports.ErrStorageFailure)

		stored, err := f.repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version)
		require.Len(t, stored.Lines, 1)
		assert.Equal(t, f.saw, stored.Lines[0].ProductID)
	})

	t.Run("update of a missing order is not found", func(t *testing.T) {
		draft := f.draft(f.customer)
		draft.Status = domain.StatusPending

		_, err := f.repo.Update(ctx, 999999, draft)

		assert.ErrorIs(t, err, ports.ErrNotFound)
	})

	t.Run("change status", func(t *testing.T) {
		ok, err := f.repo.ChangeStatus(ctx, created.ID, domain.StatusInPreparation, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := f.repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInPreparation, stored.Status)
		assert.Equal(t, 3, stored.Version)
		require.NotNil(t, stored.RouteID, "route is kept when none is given")

		ok, err = f.repo.ChangeStatus(ctx, 999999, domain.StatusDelivered, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete cascades to lines", func(t *testing.T) {
		ok, err := f.repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, f.count(t, "order_lines"))

		_, err = f.repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ports.ErrNotFound)

		ok, err = f.repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepositoryListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		customer := f.customer
		if i%5 == 0 {
			customer = f.other
		}
		draft := f.draft(customer)
		draft.Notes = fmt.Sprintf("order %02d", i)
		draft.Lines = []domain.LineDraft{{ProductID: f.drill, Quantity: i, UnitPrice: decimal.NewFromInt(10)}}
		_, err := f.repo.Create(ctx, draft)
		require.NoError(t, err)
	}

	t.Run("pages in natural order", func(t *testing.T) {
		page, err := f.repo.ListOrders(ctx, query.PageRequest{Page: 3, PageSize: 10}, listing.OrderFilter{}, "/v1/orders")

		require.NoError(t, err)
		assert.Equal(t, 25, page.TotalCount)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Items, 5)
		assert.Equal(t, "order 21", page.Items[0].Notes)
		assert.True(t, page.HasPrevious)
		assert.False(t, page.HasNext)
		assert.Len(t, page.Items[0].Lines, 1)
	})

	t.Run("page past the end is empty with the real total", func(t *testing.T) {
		page, err := f.repo.ListOrders(ctx, query.PageRequest{Page: 9, PageSize: 10}, listing.OrderFilter{}, "")

		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
		assert.Equal(t, 25, page.TotalCount)
	})

	t.Run("sorts by total descending", func(t *testing.T) {
		page, err := f.repo.ListOrders(ctx, query.PageRequest{PageSize: 3, SortBy: "TOTAL", SortDirection: query.Descending}, listing.OrderFilter{}, "")

		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.True(t, page.Items[0].Total.Equal(decimal.NewFromInt(250)))
		assert.True(t, page.Items[2].Total.Equal(decimal.NewFromInt(230)))
	})

	t.Run("filters and searches together", func(t *testing.T) {
		page, err := f.repo.ListOrders(ctx,
			query.PageRequest{SearchTerm: "globex"},
			listing.OrderFilter{CustomerID: &f.other},
			"",
		)

		require.NoError(t, err)
		assert.Equal(t, 5, page.TotalCount)
		for _, o := range page.Items {
			assert.Equal(t, "Globex", o.CustomerName())
		}
	})

	t.Run("search escapes like wildcards", func(t *testing.T) {
		page, err := f.repo.ListOrders(ctx, query.PageRequest{SearchTerm: "%"}, listing.OrderFilter{}, "")

		require.NoError(t, err)
		assert.Equal(t, 0, page.TotalCount)
	})

	t.Run("filters by total range", func(t *testing.T) {
		low, high := decimal.NewFromInt(100), decimal.NewFromInt(150)
		page, err := f.repo.ListOrders(ctx, query.PageRequest{}, listing.OrderFilter{MinTotal: &low, MaxTotal: &high}, "")

		require.NoError(t, err)
		assert.Equal(t, 6, page.TotalCount)
	})
}

func TestRepositoryReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.repo.Create(ctx, f.draft(f.customer))
	require.NoError(t, err)

	delivered, err := f.repo.Create(ctx, f.draft(f.other))
	require.NoError(t, err)
	ok, err := f.repo.ChangeStatus(ctx, delivered.ID, domain.StatusDelivered, &f.route)
	require.NoError(t, err)
	require.True(t, ok)

	cancelled, err := f.repo.Create(ctx, f.draft(f.customer))
	require.NoError(t, err)
	_, err = f.repo.ChangeStatus(ctx, cancelled.ID, domain.StatusCancelled, nil)
	require.NoError(t, err)

	t.Run("pending deliveries", func(t *testing.T) {
		page, err := f.repo.PendingDeliveries(ctx, query.PageRequest{}, listing.ReportFilter{}, "")

		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		row := page.Items[0]
		assert.Equal(t, pending.ID, row.OrderID)
		assert.Equal(t, "1 Main St", row.DeliveryAddress)
		assert.InDelta(t, 3, row.DaysToDelivery, 1)
	})

	t.Run("completed deliveries", func(t *testing.T) {
		page, err := f.repo.CompletedDeliveries(ctx, query.PageRequest{SortBy: "totalItems"}, listing.ReportFilter{RouteID: &f.route}, "")

		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		row := page.Items[0]
		assert.Equal(t, delivered.ID, row.OrderID)
		assert.Equal(t, "North loop", row.RouteName)
		assert.Equal(t, 2, row.TotalProducts)
		assert.Equal(t, 3, row.TotalItems)
	})
}

func TestRepositoryCatalogLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exists, err := f.repo.CustomerExists(ctx, f.customer)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.repo.RouteExists(ctx, 424242)
	require.NoError(t, err)
	assert.False(t, exists)

	missing, err := f.repo.MissingProducts(ctx, []int64{f.drill, 77, f.saw, 42})
	require.NoError(t, err)
	assert.Equal(t, []int64{77, 42}, missing)
}
