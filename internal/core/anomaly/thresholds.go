package anomaly

import (
	"time"

	perr "arguxai/internal/platform/errors"
)

// Thresholds gate escalation of a conversion drop
type Thresholds struct {
	MinDropPercent  float64 `json:"min_drop_percent"`
	MinSampleSize   int     `json:"min_sample_size"`
	SigmaThreshold  float64 `json:"sigma_threshold"`
	CooldownMinutes int     `json:"alert_cooldown_minutes"`
	Bands           Bands   `json:"severity_bands"`
}

// DefaultThresholds mirrors the documented defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDropPercent:  12,
		MinSampleSize:   100,
		SigmaThreshold:  2,
		CooldownMinutes: 5,
		Bands:           DefaultBands(),
	}
}

// Cooldown is CooldownMinutes as a duration
func (t Thresholds) Cooldown() time.Duration { return time.Duration(t.CooldownMinutes) * time.Minute }

// Validate rejects non positive thresholds and non monotonic bands
func (t Thresholds) Validate() error {
	switch {
	case !(t.MinDropPercent > 0):
		return perr.WithField(perr.Configf("min drop percent must be positive, got %v", t.MinDropPercent), "MIN_DROP_PERCENT")
	case t.MinSampleSize <= 0:
		return perr.WithField(perr.Configf("min sample size must be positive, got %d", t.MinSampleSize), "MIN_SAMPLE_SIZE")
	case !(t.SigmaThreshold > 0):
		return perr.WithField(perr.Configf("sigma threshold must be positive, got %v", t.SigmaThreshold), "SIGMA_THRESHOLD")
	case t.CooldownMinutes <= 0:
		return perr.WithField(perr.Configf("alert cooldown must be positive, got %d", t.CooldownMinutes), "ALERT_COOLDOWN_MINUTES")
	}
	return t.Bands.Validate()
}
