package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	classConnectionException = "08"
)

// TxBeginner is satisfied by pgxpool.Pool, pgx.Conn and pgx.Tx.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RetryPolicy bounds how often a transaction is re-run after a transient failure.
type RetryPolicy struct {
	MaxRetries   uint64
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// OnRetry is called before each new attempt.
	OnRetry func(err error, next time.Duration)
}

// DefaultRetryPolicy retries three times with at most ten seconds between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialDelay > 0 {
		exp.InitialInterval = p.InitialDelay
	}
	if p.MaxDelay > 0 {
		exp.MaxInterval = p.MaxDelay
	}
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// InTx runs fn inside a transaction that commits when fn returns nil and rolls
// back on any error. The whole transaction is re-run when it fails with a
// transient error; any other error is returned after the first attempt.
func InTx(ctx context.Context, db TxBeginner, policy RetryPolicy, fn func(tx pgx.Tx) error) error {
	attempt := func() error {
		err := pgx.BeginFunc(ctx, db, fn)
		if err == nil || IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.RetryNotify(attempt, policy.backOff(ctx), policy.OnRetry)
}

// IsTransient reports whether err is a failure that may succeed when the
// transaction is run again.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return true
		}
		return strings.HasPrefix(pgErr.Code, classConnectionException)
	}

	return pgconn.SafeToRetry(err)
}
