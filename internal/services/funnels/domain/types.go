// Package domain defines funnels: ordered steps whose sessions feed conversion
package domain

import (
	"time"

	"arguxai/internal/core/event"
)

// Step is one funnel step; EventType empty means any event on the step qualifies
type Step struct {
	Name      string     `json:"name" validate:"required,max=64"`
	EventType event.Type `json:"event_type,omitempty" validate:"omitempty,event_type"`
	Order     int        `json:"order" validate:"gte=0"`
}

// Funnel is an ordered list of steps
type Funnel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Steps       []Step    `json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput is the create request
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description,omitempty" validate:"max=1024"`
	Steps       []Step `json:"steps" validate:"required,min=1,max=32,dive"`
}

// DefaultLogin is seeded into an empty catalog
func DefaultLogin() CreateInput {
	return CreateInput{
		Name:        "Login",
		Description: "Default login funnel",
		Steps: []Step{
			{Name: "login_page", EventType: event.PageView, Order: 1},
			{Name: "login_form", Order: 2},
			{Name: "login_button_click", EventType: event.ButtonClick, Order: 3},
			{Name: "login_complete", Order: 4},
		},
	}
}
