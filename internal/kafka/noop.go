package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/google/uuid"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderUpdated       = "order.updated"
	TopicOrderStatusChanged = "order.status_changed"
	TopicOrderDeleted       = "order.deleted"
)

// Event is the envelope an order lifecycle message travels in.
type Event struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    int64     `json:"order_id"`
	Payload    any       `json:"payload,omitempty"`
}

// NoopEventBus logs events without sending them to Kafka. Useful for local dev before wiring Kafka.
type NoopEventBus struct {
	logger *slog.Logger
}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return n.publish(ctx, TopicOrderCreated, order.ID, order)
}

func (n *NoopEventBus) PublishOrderUpdated(ctx context.Context, order domain.Order) error {
	return n.publish(ctx, TopicOrderUpdated, order.ID, order)
}

func (n *NoopEventBus) PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	return n.publish(ctx, TopicOrderStatusChanged, orderID, map[string]string{"status": string(status)})
}

func (n *NoopEventBus) PublishOrderDeleted(ctx context.Context, orderID int64) error {
	return n.publish(ctx, TopicOrderDeleted, orderID, nil)
}

func (n *NoopEventBus) publish(ctx context.Context, topic string, orderID int64, payload any) error {
	event := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		OrderID:    orderID,
		Payload:    payload,
	}

	n.logger.DebugContext(ctx, "event::"+topic,
		"event_id", event.ID,
		"order_id", event.OrderID,
	)
	return nil
}
