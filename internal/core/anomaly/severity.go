package anomaly

import perr "arguxai/internal/platform/errors"

// Severity of an issue, derived from the relative drop
type Severity string

// Severity levels, lowest first
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists the levels in ascending order
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is a known level
func (s Severity) Valid() bool {
	for _, k := range Severities {
		if s == k {
			return true
		}
	}
	return false
}

// Bands are the lower bounds (drop %) of medium, high and critical; below Medium is low
type Bands struct {
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// DefaultBands: low <20, medium 20-39, high 40-59, critical >=60
func DefaultBands() Bands { return Bands{Medium: 20, High: 40, Critical: 60} }

// Validate requires 0 < Medium < High < Critical
func (b Bands) Validate() error {
	if !(b.Medium > 0 && b.Medium < b.High && b.High < b.Critical) {
		return perr.Configf("severity bands must satisfy 0 < medium < high < critical, got %v/%v/%v", b.Medium, b.High, b.Critical)
	}
	return nil
}

// For maps a drop percentage onto a level; the bands partition the whole range
func (b Bands) For(dropPercent float64) Severity {
	switch {
	case dropPercent >= b.Critical:
		return SeverityCritical
	case dropPercent >= b.High:
		return SeverityHigh
	case dropPercent >= b.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SeverityFor uses DefaultBands
func SeverityFor(dropPercent float64) Severity { return DefaultBands().For(dropPercent) }
