// Package window derives the baseline and recent evaluation windows
package window

import (
	"fmt"
	"time"

	perr "arguxai/internal/platform/errors"
)

// Window is the half open interval [Start, End)
type Window struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Contains reports Start <= t < End
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration is End - Start
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Overlaps reports whether the two intervals share any instant
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Selector holds validated window lengths
type Selector struct {
	baseline time.Duration
	recent   time.Duration
}

// NewSelector validates the lengths; baselineHours*60 must exceed recentMinutes
func NewSelector(baselineHours, recentMinutes int) (Selector, error) {
	switch {
	case baselineHours <= 0:
		return Selector{}, perr.WithField(perr.Configf("baseline window must be positive, got %dh", baselineHours), "BASELINE_WINDOW_HOURS")
	case recentMinutes <= 0:
		return Selector{}, perr.WithField(perr.Configf("recent window must be positive, got %dm", recentMinutes), "RECENT_WINDOW_MINUTES")
	case baselineHours*60 <= recentMinutes:
		return Selector{}, perr.WithField(
			perr.Configf("baseline window (%dh) must be longer than recent window (%dm)", baselineHours, recentMinutes),
			"BASELINE_WINDOW_HOURS")
	}
	return Selector{
		baseline: time.Duration(baselineHours) * time.Hour,
		recent:   time.Duration(recentMinutes) * time.Minute,
	}, nil
}

// Select returns (baseline, recent) for now:
// recent = [now-recent, now), baseline = [now-recent-baseline, now-recent)
func (s Selector) Select(now time.Time) (baseline, recent Window) {
	now = now.UTC()
	recent = Window{Start: now.Add(-s.recent), End: now}
	baseline = Window{Start: recent.Start.Add(-s.baseline), End: recent.Start}
	return baseline, recent
}

// Span is the union [baseline.Start, recent.End) used for a single fetch
func (s Selector) Span(now time.Time) Window {
	b, r := s.Select(now)
	return Window{Start: b.Start, End: r.End}
}

// Baseline returns the configured baseline length
func (s Selector) Baseline() time.Duration { return s.baseline }

// Recent returns the configured recent length
func (s Selector) Recent() time.Duration { return s.recent }
