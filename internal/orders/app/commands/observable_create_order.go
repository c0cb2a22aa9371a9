package commands

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/metrics"
	"github.com/dejobratic/orderdesk/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	o.logger.InfoContext(ctx, "creating order",
		"customer_id", cmd.CustomerID,
		"lines", len(cmd.Lines),
	)

	order, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		if domain.IsValidation(err) {
			o.logger.InfoContext(ctx, "order rejected", "error", err, "customer_id", cmd.CustomerID)
		} else {
			o.logger.ErrorContext(ctx, "failed to create order", "error", err, "customer_id", cmd.CustomerID)
		}
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", strconv.FormatInt(order.ID, 10)),
		attribute.String("order.customer_id", strconv.FormatInt(order.CustomerID, 10)),
		attribute.String("order.total", order.Total.StringFixed(2)),
		attribute.String("order.status", string(order.Status)),
	)

	o.logger.InfoContext(ctx, "order created successfully",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"total", order.Total.StringFixed(2),
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}
