package domain

import (
	"context"

	"arguxai/internal/core/anomaly"
)

// RunnerPort runs detection cycles
type RunnerPort interface {
	RunCycle(ctx context.Context, trigger Trigger) (CycleReport, error)
}

// SettingsPort exposes the thresholds and windows detection runs with
type SettingsPort interface {
	Settings() Settings
}

// Settings is the validated detector configuration
type Settings struct {
	Thresholds          anomaly.Thresholds `json:"thresholds"`
	BaselineWindowHours int                `json:"baseline_window_hours"`
	RecentWindowMinutes int                `json:"recent_window_minutes"`
	IntervalMinutes     int                `json:"monitoring_interval_minutes"`
	Workers             int                `json:"workers"`
	AutoDiagnose        bool               `json:"auto_diagnose"`
	CooldownBackend     string             `json:"cooldown_backend"`
}
