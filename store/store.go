// Package store is the PostgreSQL/PostGIS backing for events and the
// attendance ledger. It supplies the capabilities the search engine and the
// ledger rely on: a GIST-indexed geography column for nearest-within-radius
// queries, a UNIQUE (event_id, participant_id) constraint enforced at insert
// time, and SQL aggregation.
//
// Every round-trip is bounded by the configured query timeout and runs
// through a circuit breaker. Timeouts, connection failures and an open
// breaker all surface as ErrTransient. A caller whose own context ends is
// handed back its context error and does not count against the breaker.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	gobreaker "github.com/sony/gobreaker/v2"

	"eventscout-backend/logging"
	"eventscout-backend/metrics"
)

const breakerName = "postgres"

type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// Connect opens a pool against dbURL and pings it.
func Connect(ctx context.Context, dbURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// New wraps pool. timeout bounds each store call.
func New(pool *pgxpool.Pool, timeout time.Duration) *Store {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Only infrastructure failures count against the breaker; duplicates
		// and missing rows are normal answers.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Store{pool: pool, timeout: timeout, breaker: cb}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// run executes fn with the query timeout, through the breaker, and returns a
// classified error. Only the query timeout is a store failure; the caller's
// own cancellation or deadline is returned as is.
func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		metrics.StoreErrors.WithLabelValues(op, "canceled").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	_, err := s.breaker.Execute(func() (struct{}, error) {
		err := fn(qctx)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return struct{}{}, classify(err)
	})
	metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues(op, errorClass(err)).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping checks connectivity within the query timeout.
func (s *Store) Ping(ctx context.Context) error {
	return s.run(ctx, "ping", func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}
