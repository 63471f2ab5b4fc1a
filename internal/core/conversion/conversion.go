// Package conversion computes per step conversion samples from raw events
package conversion

import (
	"arguxai/internal/core/event"
	"arguxai/internal/core/window"
)

// Step is a funnel step as the calculator sees it
type Step struct {
	Name string
	// EventType qualifies a conversion; empty means any event on the step
	EventType event.Type
	// Entry is the step whose sessions form the denominator; empty means Name itself
	Entry string
}

// DenominatorStep is the funnel_step whose sessions are counted as reaching the step
func (s Step) DenominatorStep() string {
	if s.Entry != "" {
		return s.Entry
	}
	return s.Name
}

func (s Step) qualifies(e event.Event) bool {
	return e.FunnelStep == s.Name && (s.EventType == "" || e.Type == s.EventType)
}

// Sample is the ephemeral per window result; Sessions == 0 means no data, not 0%
type Sample struct {
	FunnelStep string        `json:"funnel_step"`
	Window     window.Window `json:"window"`
	Sessions   int           `json:"session_count"`
	Converted  int           `json:"converted_count"`
}

// NoData reports the zero session marker
func (s Sample) NoData() bool { return s.Sessions <= 0 }

// Rate returns converted/sessions*100; ok is false when there is no data
func (s Sample) Rate() (rate float64, ok bool) {
	if s.NoData() {
		return 0, false
	}
	return float64(s.Converted) / float64(s.Sessions) * 100, true
}

// Fraction is Rate in [0,1]
func (s Sample) Fraction() (float64, bool) {
	if s.NoData() {
		return 0, false
	}
	return float64(s.Converted) / float64(s.Sessions), true
}

// Calculate counts distinct sessions that reached the step's denominator step within w
// and, of those, the ones that also produced a qualifying event within w.
// Events outside w are ignored; duplicates only collapse into the same session.
func Calculate(step Step, w window.Window, events []event.Event) Sample {
	entry := step.DenominatorStep()
	reached := make(map[string]struct{})
	qualified := make(map[string]struct{})

	for _, e := range events {
		if e.SessionID == "" || !w.Contains(e.Time()) {
			continue
		}
		if e.FunnelStep == entry {
			reached[e.SessionID] = struct{}{}
		}
		if step.qualifies(e) {
			qualified[e.SessionID] = struct{}{}
		}
	}

	converted := 0
	for sid := range qualified {
		if _, ok := reached[sid]; ok {
			converted++
		}
	}
	return Sample{FunnelStep: step.Name, Window: w, Sessions: len(reached), Converted: converted}
}

// Pair computes baseline and recent samples from one event slice covering both windows
func Pair(step Step, baseline, recent window.Window, events []event.Event) (b, r Sample) {
	return Calculate(step, baseline, events), Calculate(step, recent, events)
}
