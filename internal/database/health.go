package database

import (
	"context"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckHealth pings db, giving up after two seconds.
func CheckHealth(ctx context.Context, db Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return db.Ping(ctx)
}

// HealthCheck adapts CheckHealth to readiness probes.
type HealthCheck struct {
	DB Pinger
}

func (h HealthCheck) Ping(ctx context.Context) error {
	return CheckHealth(ctx, h.DB)
}
