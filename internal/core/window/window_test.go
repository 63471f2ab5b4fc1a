package window

import (
	"testing"
	"time"

	perr "arguxai/internal/platform/errors"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSelectBoundaries(t *testing.T) {
	s, err := NewSelector(24, 30)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	b, r := s.Select(now)

	if !r.End.Equal(now) || !r.Start.Equal(now.Add(-30*time.Minute)) {
		t.Fatalf("recent = %s", r)
	}
	if !b.End.Equal(r.Start) {
		t.Fatalf("baseline end %v != recent start %v", b.End, r.Start)
	}
	if !b.Start.Equal(r.Start.Add(-24 * time.Hour)) {
		t.Fatalf("baseline = %s", b)
	}
	if b.Overlaps(r) || r.Overlaps(b) {
		t.Fatalf("windows overlap: %s %s", b, r)
	}
	if span := s.Span(now); !span.Start.Equal(b.Start) || !span.End.Equal(now) {
		t.Fatalf("span = %s", span)
	}
}

func TestSelectNeverOverlapsAcrossConfigs(t *testing.T) {
	for h := 1; h <= 48; h += 7 {
		for m := 1; m < h*60; m += 37 {
			s, err := NewSelector(h, m)
			if err != nil {
				t.Fatalf("NewSelector(%d,%d): %v", h, m, err)
			}
			b, r := s.Select(now)
			if !b.End.Equal(r.Start) || b.Overlaps(r) {
				t.Fatalf("h=%d m=%d: %s %s", h, m, b, r)
			}
		}
	}
}

func TestContainsIsHalfOpen(t *testing.T) {
	w := Window{Start: now.Add(-time.Minute), End: now}
	if !w.Contains(w.Start) {
		t.Fatalf("start should be included")
	}
	if w.Contains(w.End) {
		t.Fatalf("end should be excluded")
	}
	if w.Contains(w.Start.Add(-time.Nanosecond)) {
		t.Fatalf("before start included")
	}
}

func TestNewSelectorRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name           string
		hours, minutes int
	}{
		{"zero baseline", 0, 30},
		{"negative recent", 24, -5},
		{"equal lengths", 1, 60},
		{"recent longer", 1, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSelector(tc.hours, tc.minutes)
			if !perr.IsCode(err, perr.ErrorCodeConfiguration) {
				t.Fatalf("err = %v, want configuration error", err)
			}
		})
	}
}
