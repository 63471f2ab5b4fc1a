// Package time holds the clock seam and epoch millisecond helpers
package time

import "time"

// Clock is the time source injected into services; tests pass a fixed clock
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC
type System struct{}

// Now returns time.Now in UTC
func (System) Now() time.Time { return time.Now().UTC() }

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// FromMillis converts epoch milliseconds to a UTC time
func FromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// Millis converts t to epoch milliseconds
func Millis(t time.Time) int64 { return t.UnixMilli() }
