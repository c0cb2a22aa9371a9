//go:build integration

// Package dbtest provides a migrated PostgreSQL database for integration tests.
// One container is started per test binary; each NewPool call starts from
// empty tables.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dejobratic/orderdesk/internal/database"
)

const truncateAll = `TRUNCATE order_lines, orders, products, routes, customers, idempotency_keys RESTART IDENTITY CASCADE`

var (
	startOnce sync.Once
	connStr   string
	startErr  error
)

// NewPool returns a pool on the shared container with every table emptied.
// The container is left to the testcontainers reaper.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	startOnce.Do(func() { connStr, startErr = start(ctx) })
	if startErr != nil {
		t.Fatalf("start postgres: %v", startErr)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, truncateAll); err != nil {
		t.Fatalf("reset tables: %v", err)
	}

	return pool
}

func start(ctx context.Context) (string, error) {
	container, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("orderdesk"),
		testpostgres.WithUsername("orderdesk"),
		testpostgres.WithPassword("orderdesk"),
		testpostgres.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		return "", fmt.Errorf("run container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("connection string: %w", err)
	}

	root, err := projectRoot()
	if err != nil {
		return "", err
	}
	if _, err := database.RunMigrations(dsn, filepath.Join(root, "migrations")); err != nil {
		return "", err
	}

	return dsn, nil
}

// projectRoot walks up from the working directory to the go.mod.
func projectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", dir)
		}
		dir = parent
	}
}
