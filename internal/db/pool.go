// Package db builds the pgx connection pool.
package db

import (
	"context"
	"fmt"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// NewPoolParams configures NewPool.
type NewPoolParams struct {
	URL            string
	TracingEnabled bool
	MaxConns       int32
}

// NewPool parses the connection string and opens the pool. The first connection is
// established lazily, so a missing database surfaces on the first query or Ping.
func NewPool(ctx context.Context, params NewPoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(params.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if params.MaxConns > 0 {
		poolConfig.MaxConns = params.MaxConns
	}

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}

// RegisterPoolMetrics exposes pool statistics on the registerer.
func RegisterPoolMetrics(registerer prometheus.Registerer, pool *pgxpool.Pool, dbName string) error {
	collector := pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": dbName})
	if err := registerer.Register(collector); err != nil {
		return fmt.Errorf("register pool collector: %w", err)
	}
	return nil
}
