package module

import "arguxai/internal/platform/config"

// Options holds configuration settings for the issues module
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	ic := cfg.Prefix("CORE_ISSUES_")
	return Options{
		DefaultLimit: ic.MayInt("DEFAULT_LIMIT", 50),
		MaxLimit:     ic.MayInt("MAX_LIMIT", 500),
	}
}
