package testkit

import (
	"testing"
	"time"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "baseline recent cooldown", "recent")
}

func TestMustNear(t *testing.T) {
	t.Parallel()
	MustNear(t, "sigma", 20.66, 20.7, 0.05)
}

func TestClock(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(start)
	c.Advance(4 * time.Minute)
	if got := c.Now(); !got.Equal(start.Add(4 * time.Minute)) {
		t.Fatalf("Now = %v", got)
	}
}
