package domain

import (
	"sync"

	"arguxai/internal/core/event"
	"arguxai/internal/platform/net/http/bind"
)

var registerOnce sync.Once

// RegisterValidation installs the event_type rule on the shared validator; safe to call repeatedly
func RegisterValidation() {
	registerOnce.Do(func() {
		_ = bind.RegisterValidation("event_type", "{0} must be a known event type", func(fl bind.FieldLevel) bool {
			return event.Type(fl.Field().String()).Valid()
		})
	})
}
