package cooldown

import (
	"context"
	"sync"
	"time"
)

type slot struct {
	last    time.Time
	pending bool
}

// Memory is a process local Tracker; entries are created on first escalation and never expire
type Memory struct {
	mu     sync.Mutex
	period time.Duration
	slots  map[string]*slot
}

var _ Tracker = (*Memory)(nil)

// NewMemory returns an empty tracker with the given cooldown period
func NewMemory(period time.Duration) *Memory {
	return &Memory{period: period, slots: make(map[string]*slot)}
}

// Reserve implements Tracker
func (m *Memory) Reserve(_ context.Context, step string, now time.Time) (Reservation, bool, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[step]
	if !ok {
		s = &slot{}
		m.slots[step] = s
	}
	if s.pending {
		return nil, false, time.Time{}, nil
	}
	if !s.last.IsZero() {
		if until := s.last.Add(m.period); now.Before(until) {
			return nil, false, until, nil
		}
	}
	s.pending = true
	return &memReservation{m: m, step: step}, true, time.Time{}, nil
}

// Last implements Tracker
func (m *Memory) Last(_ context.Context, step string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[step]; ok && !s.last.IsZero() {
		return s.last, true, nil
	}
	return time.Time{}, false, nil
}

// Seed records a prior escalation, e.g. an open issue loaded at startup
func (m *Memory) Seed(step string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[step]
	if !ok {
		s = &slot{}
		m.slots[step] = s
	}
	if at.After(s.last) {
		s.last = at
	}
}

type memReservation struct {
	m    *Memory
	step string
	once sync.Once
}

func (r *memReservation) Commit(_ context.Context, detectedAt time.Time) error {
	r.once.Do(func() {
		r.m.mu.Lock()
		defer r.m.mu.Unlock()
		s := r.m.slots[r.step]
		s.last = detectedAt
		s.pending = false
	})
	return nil
}

func (r *memReservation) Release(context.Context) error {
	r.once.Do(func() {
		r.m.mu.Lock()
		defer r.m.mu.Unlock()
		r.m.slots[r.step].pending = false
	})
	return nil
}
