package module

import (
	"time"

	"arguxai/internal/platform/config"
)

// Options holds configuration settings for the diagnosis module
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	RPS            float64
	EvidenceWindow time.Duration
}

// FromConfig extracts Options from DEEPSEEK_* and RECENT_WINDOW_MINUTES
func FromConfig(cfg config.Conf) Options {
	ds := cfg.Prefix("DEEPSEEK_")
	return Options{
		APIKey:         ds.MayString("API_KEY", ""),
		BaseURL:        ds.MayString("BASE_URL", "https://api.deepseek.com/v1"),
		Model:          ds.MayString("MODEL_CHAT", "deepseek-chat"),
		Timeout:        ds.MayDuration("TIMEOUT", 60*time.Second),
		RPS:            ds.MayFloat64("RPS", 2),
		EvidenceWindow: time.Duration(cfg.MayInt("RECENT_WINDOW_MINUTES", 30)) * time.Minute,
	}
}
