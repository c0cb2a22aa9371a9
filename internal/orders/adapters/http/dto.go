package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderdesk/internal/orders/app/commands"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/listing"
)

type lineRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	CustomerID   int64         `json:"customer_id"`
	RouteID      *int64        `json:"route_id"`
	DeliveryDate string        `json:"delivery_date"`
	Notes        string        `json:"notes"`
	Lines        []lineRequest `json:"lines"`
}

func (r createOrderRequest) command() (commands.CreateOrderCommand, error) {
	date, err := parseDeliveryDate(r.DeliveryDate)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}
	return commands.CreateOrderCommand{
		CustomerID:   r.CustomerID,
		RouteID:      r.RouteID,
		DeliveryDate: date,
		Notes:        r.Notes,
		Lines:        lineInputs(r.Lines),
	}, nil
}

type updateOrderRequest struct {
	createOrderRequest
	Status          string `json:"status"`
	ExpectedVersion *int   `json:"expected_version"`
}

func (r updateOrderRequest) command(id int64) (commands.UpdateOrderCommand, error) {
	date, err := parseDeliveryDate(r.DeliveryDate)
	if err != nil {
		return commands.UpdateOrderCommand{}, err
	}
	return commands.UpdateOrderCommand{
		OrderID:         id,
		CustomerID:      r.CustomerID,
		RouteID:         r.RouteID,
		DeliveryDate:    date,
		Status:          r.Status,
		Notes:           r.Notes,
		Lines:           lineInputs(r.Lines),
		ExpectedVersion: r.ExpectedVersion,
	}, nil
}

type changeStatusRequest struct {
	Status  string `json:"status"`
	RouteID *int64 `json:"route_id"`
}

type assignRouteRequest struct {
	RouteID int64 `json:"route_id"`
}

func lineInputs(lines []lineRequest) []commands.LineInput {
	inputs := make([]commands.LineInput, len(lines))
	for i, line := range lines {
		inputs[i] = commands.LineInput(line)
	}
	return inputs
}

func parseDeliveryDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.Invalid("delivery_date", "is required")
	}
	date, err := listing.ParseTime(value)
	if err != nil {
		return time.Time{}, domain.Invalid("delivery_date", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return date, nil
}
