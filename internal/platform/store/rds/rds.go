// Package rds opens the redis client shared by the cooldown tracker
package rds

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Config configures the redis client
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client is the go-redis client
type Client = redis.Client

// Open builds a client and verifies it with PING
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
