// Package redisclient builds the shared go-redis client used for rate
// limiting and the readiness probe.
package redisclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	// Addr is host:port or a redis:// / rediss:// URL. A URL carries its own
	// password and db, which win over the fields below.
	Addr     string
	Password string
	DB       int
}

type Client struct {
	rdb *redis.Client
}

func New(cfg Config) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{rdb: redis.NewClient(opts)}, nil
}

func options(cfg Config) (*redis.Options, error) {
	var opts *redis.Options

	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}

	// fail fast; the limiter fails open when redis is slow
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	return opts, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw exposes the go-redis client to the rate limiter.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}
