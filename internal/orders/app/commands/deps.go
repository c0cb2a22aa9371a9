package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/metrics"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

// Deps are the collaborators shared by every order command handler.
type Deps struct {
	Repo    ports.OrderRepository
	Catalog ports.CatalogLookup
	Events  ports.EventBus
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// publish sends an event after a committed write. A failed publish is logged
// and does not fail the command.
func (d Deps) publish(ctx context.Context, event string, orderID int64, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		d.Logger.WarnContext(ctx, "failed to publish order event",
			"event", event,
			"order_id", orderID,
			"error", err,
		)
	}
}
