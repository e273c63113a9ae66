package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tune the connection pool. Zero values keep the defaults below;
// pool_* parameters in the URL take precedence over both.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

var defaultPoolOptions = PoolOptions{
	MaxConns:        10,
	MinConns:        1,
	MaxConnIdleTime: 5 * time.Minute,
	ConnectTimeout:  5 * time.Second,
}

// NewPool opens a pgx pool and verifies it with a ping before returning.
func NewPool(ctx context.Context, dbURL string, opts ...PoolOptions) (*pgxpool.Pool, error) {
	o := defaultPoolOptions
	if len(opts) > 0 {
		o = mergePoolOptions(o, opts[0])
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if !urlHasParam(dbURL, "pool_max_conns") {
		cfg.MaxConns = o.MaxConns
	}
	if !urlHasParam(dbURL, "pool_min_conns") {
		cfg.MinConns = o.MinConns
	}
	if !urlHasParam(dbURL, "pool_max_conn_idle_time") {
		cfg.MaxConnIdleTime = o.MaxConnIdleTime
	}

	ctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func mergePoolOptions(base, o PoolOptions) PoolOptions {
	if o.MaxConns > 0 {
		base.MaxConns = o.MaxConns
	}
	if o.MinConns > 0 {
		base.MinConns = o.MinConns
	}
	if o.MaxConnIdleTime > 0 {
		base.MaxConnIdleTime = o.MaxConnIdleTime
	}
	if o.ConnectTimeout > 0 {
		base.ConnectTimeout = o.ConnectTimeout
	}
	return base
}

// works for both URL and keyword/value connection strings
func urlHasParam(dbURL, name string) bool {
	return strings.Contains(dbURL, name+"=")
}
