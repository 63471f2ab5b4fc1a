package module

import (
	"time"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/core/window"
	"arguxai/internal/platform/config"
)

// Cooldown backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options holds configuration settings for the detect module
type Options struct {
	Thresholds      anomaly.Thresholds
	BaselineHours   int
	RecentMinutes   int
	IntervalMinutes int
	Workers         int
	AutoDiagnose    bool
	CooldownBackend string
	CooldownPrefix  string
	CooldownLease   time.Duration
}

// FromConfig reads the detector thresholds and scheduler settings. Thresholds and
// windows use the strict accessors: a malformed or non positive value is a
// configuration error and the process must not start
func FromConfig(cfg config.Conf) (Options, error) {
	def := anomaly.DefaultThresholds()
	var (
		o   Options
		err error
	)
	if o.Thresholds.MinDropPercent, err = cfg.Float64("MIN_DROP_PERCENT", def.MinDropPercent); err != nil {
		return o, err
	}
	if o.Thresholds.MinSampleSize, err = cfg.Int("MIN_SAMPLE_SIZE", def.MinSampleSize); err != nil {
		return o, err
	}
	if o.Thresholds.SigmaThreshold, err = cfg.Float64("SIGMA_THRESHOLD", def.SigmaThreshold); err != nil {
		return o, err
	}
	if o.Thresholds.CooldownMinutes, err = cfg.Int("ALERT_COOLDOWN_MINUTES", def.CooldownMinutes); err != nil {
		return o, err
	}
	o.Thresholds.Bands = def.Bands
	if err = o.Thresholds.Validate(); err != nil {
		return o, err
	}

	if o.BaselineHours, err = cfg.Int("BASELINE_WINDOW_HOURS", 24); err != nil {
		return o, err
	}
	if o.RecentMinutes, err = cfg.Int("RECENT_WINDOW_MINUTES", 30); err != nil {
		return o, err
	}
	if _, err = window.NewSelector(o.BaselineHours, o.RecentMinutes); err != nil {
		return o, err
	}
	if o.IntervalMinutes, err = cfg.Int("MONITORING_INTERVAL_MINUTES", 2); err != nil {
		return o, err
	}
	if o.IntervalMinutes <= 0 {
		o.IntervalMinutes = 2
	}

	dc := cfg.Prefix("CORE_DETECT_")
	o.Workers = dc.MayInt("WORKERS", 4)
	o.AutoDiagnose = dc.MayBool("AUTO_DIAGNOSE", true)
	o.CooldownBackend = dc.MayEnum("COOLDOWN_BACKEND", BackendMemory, BackendMemory, BackendRedis)
	o.CooldownPrefix = dc.MayString("COOLDOWN_PREFIX", "arguxai:cooldown:")
	o.CooldownLease = dc.MayDuration("COOLDOWN_LEASE", 30*time.Second)
	return o, nil
}

// Interval is IntervalMinutes as a duration
func (o Options) Interval() time.Duration { return time.Duration(o.IntervalMinutes) * time.Minute }
