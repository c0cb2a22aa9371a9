package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/shopspring/decimal"
)

const maxNotesLength = 500

// LineInput is one requested order line.
type LineInput struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

func toLineDrafts(lines []LineInput) []domain.LineDraft {
	drafts := make([]domain.LineDraft, len(lines))
	for i, line := range lines {
		drafts[i] = domain.LineDraft(line)
	}
	return drafts
}

// checkDraft validates field shapes first, then that every referenced
// customer, route and product exists.
func checkDraft(ctx context.Context, catalog ports.CatalogLookup, draft domain.OrderDraft) error {
	if draft.CustomerID <= 0 {
		return domain.Invalid("customer_id", "is required")
	}
	if len(draft.Notes) > maxNotesLength {
		return domain.Invalid("notes", "must be at most %d characters", maxNotesLength)
	}
	if len(draft.Lines) == 0 {
		return domain.Invalid("lines", "at least one line is required")
	}
	for i, line := range draft.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if line.ProductID <= 0 {
			return domain.Invalid(field+".product_id", "is required")
		}
		if line.Quantity < 1 {
			return domain.Invalid(field+".quantity", "must be at least 1")
		}
		if !line.UnitPrice.IsPositive() {
			return domain.Invalid(field+".unit_price", "must be greater than zero")
		}
		if !line.UnitPrice.Equal(line.UnitPrice.Round(2)) {
			return domain.Invalid(field+".unit_price", "must have at most two decimal places")
		}
	}

	exists, err := catalog.CustomerExists(ctx, draft.CustomerID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.Invalid("customer_id", "customer %d does not exist", draft.CustomerID)
	}

	if draft.RouteID != nil {
		if err := checkRoute(ctx, catalog, *draft.RouteID); err != nil {
			return err
		}
	}

	missing, err := catalog.MissingProducts(ctx, draft.ProductIDs())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return domain.Invalid("lines", "products %v do not exist", missing)
	}

	return nil
}

func checkRoute(ctx context.Context, catalog ports.CatalogLookup, routeID int64) error {
	exists, err := catalog.RouteExists(ctx, routeID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.Invalid("route_id", "route %d does not exist", routeID)
	}
	return nil
}

func checkFutureDelivery(date, now time.Time) error {
	if date.IsZero() {
		return domain.Invalid("delivery_date", "is required")
	}
	if !date.After(now) {
		return domain.Invalid("delivery_date", "must be in the future")
	}
	return nil
}

func checkOrderID(id int64) error {
	if id <= 0 {
		return domain.Invalid("id", "must be a positive integer")
	}
	return nil
}

func parseStatus(value string) (domain.OrderStatus, error) {
	status, ok := domain.ParseStatus(value)
	if !ok {
		return "", domain.Invalid("status", "unknown status %q", value)
	}
	return status, nil
}

func checkTransition(from, to domain.OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return domain.Invalid("status", "cannot move order from %s to %s", from, to)
	}
	return nil
}
