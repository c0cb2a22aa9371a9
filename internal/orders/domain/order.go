package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	StatusPending       OrderStatus = "Pending"
	StatusConfirmed     OrderStatus = "Confirmed"
	StatusInPreparation OrderStatus = "En_Preparation"
	StatusInTransit     OrderStatus = "En_Transit"
	StatusDelivered     OrderStatus = "Delivered"
	StatusCancelled     OrderStatus = "Cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusInPreparation,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
}

// OpenStatuses are the statuses of orders still awaiting delivery.
var OpenStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusInPreparation,
	StatusInTransit,
}

var nextStatus = map[OrderStatus]OrderStatus{
	StatusPending:       StatusConfirmed,
	StatusConfirmed:     StatusInPreparation,
	StatusInPreparation: StatusInTransit,
	StatusInTransit:     StatusDelivered,
}

// ParseStatus matches value against the known status names.
func ParseStatus(value string) (OrderStatus, bool) {
	for _, status := range Statuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// IsTerminal indicates whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Orders advance one step at a time and may be cancelled until they are delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return nextStatus[s] == next
}

// NextStatuses lists the statuses s may move to, excluding s itself.
func (s OrderStatus) NextStatuses() []OrderStatus {
	if s.IsTerminal() {
		return []OrderStatus{}
	}
	next := []OrderStatus{}
	if n, ok := nextStatus[s]; ok {
		next = append(next, n)
	}
	return append(next, StatusCancelled)
}

// Customer is the party an order is delivered to.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// Route is a delivery route orders can be assigned to.
type Route struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog item referenced by order lines.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// OrderLine is one product entry of an order.
type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   *Product        `json:"product,omitempty"`
}

// Order is the aggregate root: an order header and the lines it owns.
type Order struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	RouteID      *int64          `json:"route_id,omitempty"`
	OrderDate    time.Time       `json:"order_date"`
	DeliveryDate time.Time       `json:"delivery_date"`
	Status       OrderStatus     `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	Total        decimal.Decimal `json:"total"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
	Customer     *Customer       `json:"customer,omitempty"`
	Route        *Route          `json:"route,omitempty"`
	Lines        []OrderLine     `json:"lines"`
}

// IsTerminal indicates whether the order is in a terminal state.
func (o Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// CustomerName returns the joined customer name, or "" when not loaded.
func (o Order) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Name
}

// RouteName returns the joined route name, or "" when not loaded.
func (o Order) RouteName() string {
	if o.Route == nil {
		return ""
	}
	return o.Route.Name
}

// OrderDraft is the caller-supplied content of an order before the writer
// derives subtotals, the total and timestamps.
type OrderDraft struct {
	CustomerID   int64
	RouteID      *int64
	DeliveryDate time.Time
	Status       OrderStatus
	Notes        string
	Lines        []LineDraft
	// ExpectedVersion, when set, makes an update fail if the stored order changed since it was read.
	ExpectedVersion *int
}

// LineDraft is one requested product line.
type LineDraft struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// PriceLines derives each line's subtotal and the order total.
func PriceLines(drafts []LineDraft) ([]OrderLine, decimal.Decimal) {
	lines := make([]OrderLine, len(drafts))
	total := decimal.Zero
	for i, draft := range drafts {
		subtotal := draft.UnitPrice.Mul(decimal.NewFromInt(int64(draft.Quantity)))
		lines[i] = OrderLine{
			ProductID: draft.ProductID,
			Quantity:  draft.Quantity,
			UnitPrice: draft.UnitPrice,
			Subtotal:  subtotal,
		}
		total = total.Add(subtotal)
	}
	return lines, total
}

// ProductIDs returns the distinct product ids referenced by the draft, in first-seen order.
func (d OrderDraft) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(d.Lines))
	ids := make([]int64, 0, len(d.Lines))
	for _, line := range d.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
