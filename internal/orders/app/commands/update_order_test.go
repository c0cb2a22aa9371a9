package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/orderdesk/internal/orders/app/commands"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
)

func validUpdate(id int64) commands.UpdateOrderCommand {
	return commands.UpdateOrderCommand{
		OrderID:      id,
		CustomerID:   1,
		DeliveryDate: fixedNow.Add(24 * time.Hour),
		Lines:        validLines()[:1],
	}
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the current status when none is given", func(t *testing.T) {
		repo := newMockRepository(storedOrder(3, domain.StatusConfirmed))
		events := &mockEventBus{}
		handler := commands.NewUpdateOrderCommandHandler(newDeps(repo, events))

		order, err := handler.Handle(ctx, validUpdate(3))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.updated[0].Status != domain.StatusConfirmed {
			t.Errorf("expected status to stay %s, got %s", domain.StatusConfirmed, repo.updated[0].Status)
		}
		if order.Version != 2 {
			t.Errorf("expected version 2, got %d", order.Version)
		}
		if len(events.updated) != 1 {
			t.Errorf("expected one order.updated event, got %v", events.updated)
		}
	})

	t.Run("passes the expected version to the writer", func(t *testing.T) {
		repo := newMockRepository(storedOrder(3, domain.StatusPending))
		repo.updateFn = func(context.Context, int64, domain.OrderDraft) (*domain.Order, error) {
			return nil, ports.ErrStaleData
		}
		cmd := validUpdate(3)
		version := 1
		cmd.ExpectedVersion = &version

		_, err := commands.NewUpdateOrderCommandHandler(newDeps(repo, &mockEventBus{})).Handle(ctx, cmd)

		if !errors.Is(err, ports.ErrStaleData) {
			t.Fatalf("expected stale data, got %v", err)
		}
		if repo.updated[0].ExpectedVersion == nil || *repo.updated[0].ExpectedVersion != 1 {
			t.Error("expected version was not forwarded")
		}
	})

	t.Run("advances the status one step", func(t *testing.T) {
		repo := newMockRepository(storedOrder(3, domain.StatusConfirmed))
		cmd := validUpdate(3)
		cmd.Status = string(domain.StatusInPreparation)

		order, err := commands.NewUpdateOrderCommandHandler(newDeps(repo, &mockEventBus{})).Handle(ctx, cmd)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Status != domain.StatusInPreparation {
			t.Errorf("expected %s, got %s", domain.StatusInPreparation, order.Status)
		}
	})

	rejections := []struct {
		name    string
		current domain.OrderStatus
		mutate  func(*commands.UpdateOrderCommand)
		field   string
	}{
		{name: "unknown status", current: domain.StatusPending, mutate: func(c *commands.UpdateOrderCommand) { c.Status = "Shipped" }, field: "status"},
		{name: "skipped step", current: domain.StatusPending, mutate: func(c *commands.UpdateOrderCommand) { c.Status = string(domain.StatusInTransit) }, field: "status"},
		{name: "reopening a cancelled order", current: domain.StatusCancelled, mutate: func(c *commands.UpdateOrderCommand) { c.Status = string(domain.StatusPending) }, field: "status"},
		{name: "past delivery date on a pending order", current: domain.StatusPending, mutate: func(c *commands.UpdateOrderCommand) { c.DeliveryDate = fixedNow.Add(-time.Hour) }, field: "delivery_date"},
		{name: "empty lines", current: domain.StatusConfirmed, mutate: func(c *commands.UpdateOrderCommand) { c.Lines = nil }, field: "lines"},
	}

	for _, tc := range rejections {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			repo := newMockRepository(storedOrder(3, tc.current))
			cmd := validUpdate(3)
			tc.mutate(&cmd)

			_, err := commands.NewUpdateOrderCommandHandler(newDeps(repo, &mockEventBus{})).Handle(ctx, cmd)

			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %q, got %v", tc.field, err)
			}
			if len(repo.updated) != 0 {
				t.Error("writer must not run for invalid input")
			}
		})
	}

	t.Run("allows a past delivery date once the order left pending", func(t *testing.T) {
		repo := newMockRepository(storedOrder(3, domain.StatusInTransit))
		cmd := validUpdate(3)
		cmd.DeliveryDate = fixedNow.Add(-time.Hour)

		_, err := commands.NewUpdateOrderCommandHandler(newDeps(repo, &mockEventBus{})).Handle(ctx, cmd)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("returns not found for a missing order", func(t *testing.T) {
		_, err := commands.NewUpdateOrderCommandHandler(newDeps(newMockRepository(), &mockEventBus{})).Handle(ctx, validUpdate(8))

		if !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
