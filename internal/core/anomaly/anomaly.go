// Package anomaly decides whether a recent conversion drop is large and significant enough to escalate
package anomaly

import (
	"math"
	"time"

	"arguxai/internal/core/conversion"
)

// Anomaly is a drop that cleared the sample, magnitude and significance gates
type Anomaly struct {
	FunnelStep       string    `json:"funnel_step"`
	DetectedAt       time.Time `json:"detected_at"`
	CurrentRate      float64   `json:"current_conversion_rate"`
	BaselineRate     float64   `json:"baseline_conversion_rate"`
	DropPercent      float64   `json:"drop_percentage"`
	Sigma            float64   `json:"sigma_value"`
	IsSignificant    bool      `json:"is_significant"`
	CurrentSessions  int       `json:"current_sessions"`
	BaselineSessions int       `json:"baseline_sessions"`
	Severity         Severity  `json:"severity"`
}

// Reason says which gate decided the outcome
type Reason string

// Evaluation outcomes
const (
	ReasonAnomaly            Reason = "anomaly"
	ReasonInsufficientData   Reason = "insufficient_data"
	ReasonNoDrop             Reason = "no_drop"
	ReasonDropBelowThreshold Reason = "drop_below_threshold"
	ReasonNotSignificant     Reason = "not_significant"
)

// Decision is the result of one evaluation; Anomaly is set only for ReasonAnomaly
type Decision struct {
	Reason      Reason   `json:"reason"`
	DropPercent float64  `json:"drop_percentage"`
	Sigma       float64  `json:"sigma_value"`
	Anomaly     *Anomaly `json:"anomaly,omitempty"`
}

// Escalate reports whether an anomaly was produced
func (d Decision) Escalate() bool { return d.Anomaly != nil }

// Evaluate applies the gates in order: sample sufficiency, drop direction and size, significance
func Evaluate(baseline, recent conversion.Sample, th Thresholds, now time.Time) Decision {
	if baseline.NoData() || recent.NoData() ||
		baseline.Sessions < th.MinSampleSize || recent.Sessions < th.MinSampleSize {
		return Decision{Reason: ReasonInsufficientData}
	}

	bRate, _ := baseline.Rate()
	rRate, _ := recent.Rate()
	if rRate >= bRate {
		return Decision{Reason: ReasonNoDrop}
	}

	drop := DropPercent(bRate, rRate)
	p1, _ := baseline.Fraction()
	p2, _ := recent.Fraction()
	sigma, ok := Sigma(p1, baseline.Sessions, p2, recent.Sessions)
	d := Decision{DropPercent: drop, Sigma: sigma}

	if drop < th.MinDropPercent {
		d.Reason = ReasonDropBelowThreshold
		return d
	}
	if !ok || sigma < th.SigmaThreshold {
		d.Reason = ReasonNotSignificant
		return d
	}

	bands := th.Bands
	if bands.Validate() != nil {
		bands = DefaultBands()
	}
	d.Reason = ReasonAnomaly
	d.Anomaly = &Anomaly{
		FunnelStep:       recent.FunnelStep,
		DetectedAt:       now.UTC(),
		CurrentRate:      rRate,
		BaselineRate:     bRate,
		DropPercent:      drop,
		Sigma:            sigma,
		IsSignificant:    true,
		CurrentSessions:  recent.Sessions,
		BaselineSessions: baseline.Sessions,
		Severity:         bands.For(drop),
	}
	return d
}

// DropPercent is the relative drop (base-recent)/base*100; zero base yields 0
func DropPercent(baseRate, recentRate float64) float64 {
	if baseRate <= 0 {
		return 0
	}
	return (baseRate - recentRate) / baseRate * 100
}

// StdErr is the unpooled standard error of p1-p2
func StdErr(p1 float64, n1 int, p2 float64, n2 int) float64 {
	if n1 <= 0 || n2 <= 0 {
		return 0
	}
	return math.Sqrt(p1*(1-p1)/float64(n1) + p2*(1-p2)/float64(n2))
}

// Sigma is (p1-p2)/SE; ok is false when SE is zero or not finite
func Sigma(p1 float64, n1 int, p2 float64, n2 int) (sigma float64, ok bool) {
	se := StdErr(p1, n1, p2, n2)
	if se == 0 || math.IsNaN(se) || math.IsInf(se, 0) {
		return 0, false
	}
	return (p1 - p2) / se, true
}
