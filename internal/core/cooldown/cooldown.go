// Package cooldown tracks the last escalation per funnel step so a step raises
// at most one issue per cooldown period, even under concurrent cycles.
//
// Escalation is two phase: Reserve atomically checks the cooldown and claims the
// step, then the caller either Commits with the issue's detected_at once the issue
// is stored, or Releases when the write failed so the timestamp does not advance.
package cooldown

import (
	"context"
	"errors"
	"time"
)

// ErrLeaseLost is returned by Commit when the reservation expired or was taken over
// before the issue write finished; no cooldown was recorded
var ErrLeaseLost = errors.New("cooldown reservation lease lost")

// Tracker owns per step cooldown state
type Tracker interface {
	// Reserve claims step for escalation at now. ok is false when the step is
	// cooling down or another cycle holds a reservation; until is when the
	// current cooldown ends (zero when unknown)
	Reserve(ctx context.Context, step string, now time.Time) (r Reservation, ok bool, until time.Time, err error)
	// Last returns the last committed escalation for step
	Last(ctx context.Context, step string) (time.Time, bool, error)
}

// Reservation is a claimed step awaiting the issue write
type Reservation interface {
	// Commit records detectedAt as the step's last escalation, or returns
	// ErrLeaseLost when the claim no longer holds
	Commit(ctx context.Context, detectedAt time.Time) error
	// Release drops the claim without touching the last escalation
	Release(ctx context.Context) error
}
