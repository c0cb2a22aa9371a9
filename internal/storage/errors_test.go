package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dejobratic/orderdesk/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestFailure(t *testing.T) {
	t.Run("returns nil for nil error", func(t *testing.T) {
		if err := storage.Failure("create order", nil); err != nil {
			t.Fatalf("expected nil, got: %v", err)
		}
	})

	t.Run("wraps driver errors without exposing them", func(t *testing.T) {
		driverErr := &pgconn.PgError{Severity: "ERROR", Code: "23503", Message: "violates foreign key constraint"}

		err := storage.Failure("create order", driverErr)

		if !errors.Is(err, storage.ErrStorageFailure) {
			t.Fatalf("expected ErrStorageFailure, got: %v", err)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			t.Fatal("expected driver error to be hidden")
		}
		if want := "storage failure: create order: ERROR: violates foreign key constraint (SQLSTATE 23503)"; err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("passes taxonomy errors through", func(t *testing.T) {
		for _, sentinel := range []error{storage.ErrNotFound, storage.ErrStaleData, storage.ErrStorageFailure} {
			wrapped := fmt.Errorf("load order: %w", sentinel)
			if err := storage.Failure("update order", wrapped); err != wrapped {
				t.Errorf("expected %v to pass through, got: %v", wrapped, err)
			}
		}
	})
}
