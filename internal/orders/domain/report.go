package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingDelivery is a report row for an order that has not been delivered yet.
type PendingDelivery struct {
	OrderID         int64           `json:"order_id"`
	CustomerName    string          `json:"customer_name"`
	DeliveryAddress string          `json:"delivery_address"`
	Email           string          `json:"email"`
	Status          OrderStatus     `json:"status"`
	DeliveryDate    time.Time       `json:"delivery_date"`
	Total           decimal.Decimal `json:"total"`
	RouteID         *int64          `json:"route_id,omitempty"`
	RouteName       string          `json:"route_name,omitempty"`
	DaysToDelivery  int             `json:"days_to_delivery"`
}

// CompletedDelivery is a report row for a delivered order.
type CompletedDelivery struct {
	OrderID         int64           `json:"order_id"`
	CustomerName    string          `json:"customer_name"`
	DeliveryAddress string          `json:"delivery_address"`
	Status          OrderStatus     `json:"status"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryDate    time.Time       `json:"delivery_date"`
	Total           decimal.Decimal `json:"total"`
	RouteID         *int64          `json:"route_id,omitempty"`
	RouteName       string          `json:"route_name,omitempty"`
	TotalProducts   int             `json:"total_products"`
	TotalItems      int             `json:"total_items"`
}

// DaysBetween counts calendar-day boundaries from now to then in now's location.
// It is negative when then is in the past.
func DaysBetween(now, then time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := then.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
