package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/dejobratic/orderdesk/internal/kafka"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return e.observe(ctx, "EventBus.PublishOrderCreated", kafka.TopicOrderCreated, order.ID, func(ctx context.Context) error {
		return e.bus.PublishOrderCreated(ctx, order)
	})
}

func (e *ObservableEventBus) PublishOrderUpdated(ctx context.Context, order domain.Order) error {
	return e.observe(ctx, "EventBus.PublishOrderUpdated", kafka.TopicOrderUpdated, order.ID, func(ctx context.Context) error {
		return e.bus.PublishOrderUpdated(ctx, order)
	})
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	return e.observe(ctx, "EventBus.PublishOrderStatusChanged", kafka.TopicOrderStatusChanged, orderID, func(ctx context.Context) error {
		return e.bus.PublishOrderStatusChanged(ctx, orderID, status)
	}, attribute.String("order.new_status", string(status)))
}

func (e *ObservableEventBus) PublishOrderDeleted(ctx context.Context, orderID int64) error {
	return e.observe(ctx, "EventBus.PublishOrderDeleted", kafka.TopicOrderDeleted, orderID, func(ctx context.Context) error {
		return e.bus.PublishOrderDeleted(ctx, orderID)
	})
}

func (e *ObservableEventBus) observe(ctx context.Context, spanName, topic string, orderID int64, publish func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	attrs = append(attrs,
		attribute.String("order.id", strconv.FormatInt(orderID, 10)),
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	)
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	err := publish(ctx)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, topic, duration, err == nil)

	telemetry.SetSpanOutcome(span, err)
	return err
}
