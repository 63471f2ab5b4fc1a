package store

import (
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/store/rds"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients, tagged component=store
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log.With().Str("component", "store").Logger()
		return nil
	}
}

// WithRedisClient adopts an existing redis client; Open then skips dialing SERVICE_REDIS_ADDR
func WithRedisClient(c *rds.Client) Option {
	return func(s *Store) error {
		s.RDS = c
		return nil
	}
}
