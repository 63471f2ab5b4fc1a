package module

import (
	"time"

	"arguxai/internal/platform/config"
)

// Options holds configuration settings for the events module
type Options struct {
	MaxBatch    int
	RecentLimit int
	ReadTimeout time.Duration
	// Mirror writes to and reads windows from clickhouse when a connection is available
	Mirror bool
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	ev := cfg.Prefix("CORE_EVENTS_")
	return Options{
		MaxBatch:    ev.MayInt("MAX_BATCH", 1000),
		RecentLimit: ev.MayInt("RECENT_LIMIT", 500),
		ReadTimeout: ev.MayDuration("READ_TIMEOUT", 15*time.Second),
		Mirror:      ev.MayBool("MIRROR", true),
	}
}
