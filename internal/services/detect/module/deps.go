package module

import (
	"arguxai/internal/core/cooldown"
	"arguxai/internal/modkit"
	diagdom "arguxai/internal/services/diagnosis/domain"
	eventsdom "arguxai/internal/services/events/domain"
	funnelsdom "arguxai/internal/services/funnels/domain"
	issuesdom "arguxai/internal/services/issues/domain"
)

// DepsPorts carries the ports detection consumes from sibling modules
type DepsPorts struct {
	Steps   funnelsdom.StepsPort  // required
	Events  eventsdom.ReaderPort  // required
	Emitter issuesdom.EmitterPort // required
	Issues  issuesdom.ReaderPort  // optional; seeds the memory cooldown from open issues
	// Diagnoser is optional; nil disables auto diagnosis
	Diagnoser diagdom.DiagnoserPort
	// Cooldown overrides the configured backend, mostly for tests
	Cooldown cooldown.Tracker
}

// WithDepsPorts lets callers pass dependency ports without exposing modkit.WithPorts in main
func WithDepsPorts(p DepsPorts) modkit.Option { return modkit.WithPorts(p) }
