// Package postgres stores scan runs and ranked opportunities in PostgreSQL.
//
// Both stores are write-once per run: a second insert for the same run id
// fails with storage.ErrDuplicateKey and leaves the first run untouched.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"options-income-lab/internal/observability"
	"options-income-lab/internal/storage"
)

// uniqueViolation is the SQLSTATE for a primary key or unique index conflict.
const uniqueViolation = "23505"

// Pool is the connection pool shared by the postgres stores.
type Pool struct {
	*pgxpool.Pool
	metrics *observability.Metrics
}

// NewPool connects to dsn and pings the server before returning.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// WithMetrics records query latency and errors on m.
func (p *Pool) WithMetrics(m *observability.Metrics) *Pool {
	p.metrics = m
	return p
}

// Close releases every pooled connection.
func (p *Pool) Close() {
	p.Pool.Close()
}

func (p *Pool) observe(op string, start time.Time, err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordDBQuery("postgres", op, time.Since(start).Seconds(), err)
}

// inTx runs fn in a transaction, committing only when fn returns nil.
func (p *Pool) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// translate maps driver errors onto the storage sentinels; other errors are
// wrapped with what.
func translate(err error, what string) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return storage.ErrDuplicateKey
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
