package module

import (
	"testing"

	"arguxai/internal/platform/config"
	perr "arguxai/internal/platform/errors"
	kit "arguxai/internal/platform/testkit"
)

func TestFromConfigDefaults(t *testing.T) {
	o, err := FromConfig(config.New())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	th := o.Thresholds
	if th.MinDropPercent != 12 || th.MinSampleSize != 100 || th.SigmaThreshold != 2 || th.CooldownMinutes != 5 {
		t.Fatalf("thresholds = %+v", th)
	}
	if o.BaselineHours != 24 || o.RecentMinutes != 30 || o.IntervalMinutes != 2 {
		t.Fatalf("windows = %+v", o)
	}
	if o.Workers != 4 || !o.AutoDiagnose || o.CooldownBackend != BackendMemory {
		t.Fatalf("scheduler = %+v", o)
	}
}

func TestFromConfigRejectsBadThresholds(t *testing.T) {
	cases := map[string]string{
		"MIN_DROP_PERCENT":       "-1",
		"MIN_SAMPLE_SIZE":        "lots",
		"SIGMA_THRESHOLD":        "0",
		"ALERT_COOLDOWN_MINUTES": "0",
		"BASELINE_WINDOW_HOURS":  "-24",
		"RECENT_WINDOW_MINUTES":  "2000",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := FromConfig(config.New()); !perr.IsCode(err, perr.ErrorCodeConfiguration) {
				t.Fatalf("%s=%s err = %v", key, val, err)
			}
		})
	}
}

func TestFromConfigBackend(t *testing.T) {
	t.Setenv("CORE_DETECT_COOLDOWN_BACKEND", "REDIS")
	o, err := FromConfig(config.New())
	if err != nil || o.CooldownBackend != BackendRedis {
		t.Fatalf("backend = %q, %v", o.CooldownBackend, err)
	}
	t.Setenv("CORE_DETECT_COOLDOWN_BACKEND", "etcd")
	kit.MustPanic(t, func() { _, _ = FromConfig(config.New()) })
}
