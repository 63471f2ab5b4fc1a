// Package event defines the funnel event record shared by ingest, detection and evidence
package event

import (
	"strings"
	"time"
)

// Type is the kind of user action an event records
type Type string

// Known event types
const (
	PageView      Type = "page_view"
	ButtonClick   Type = "button_click"
	FormSubmit    Type = "form_submit"
	OTPSent       Type = "otp_sent"
	OTPVerified   Type = "otp_verified"
	OTPFailed     Type = "otp_failed"
	Error         Type = "error"
	ResendClick   Type = "resend_click"
	LoginComplete Type = "login_complete"
	Custom        Type = "custom"
)

// Types lists every accepted Type
var Types = []Type{PageView, ButtonClick, FormSubmit, OTPSent, OTPVerified, OTPFailed, Error, ResendClick, LoginComplete, Custom}

// Valid reports whether t is a known type
func (t Type) Valid() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// Defaults applied to missing context fields on ingest
const (
	DefaultDevice     = "unknown"
	DefaultCountry    = "US"
	DefaultAppVersion = "1.0.0"
)

// Event is one immutable funnel event; Timestamp is epoch milliseconds
type Event struct {
	ID           string         `json:"id,omitempty" validate:"omitempty,uuid"`
	Type         Type           `json:"event_type" validate:"required,event_type"`
	SessionID    string         `json:"session_id" validate:"required,max=128"`
	UserID       string         `json:"user_id,omitempty" validate:"max=128"`
	Timestamp    int64          `json:"timestamp" validate:"required,gt=0"`
	FunnelStep   string         `json:"funnel_step,omitempty" validate:"max=64"`
	DeviceType   string         `json:"device_type,omitempty" validate:"max=32"`
	Country      string         `json:"country,omitempty" validate:"max=8"`
	AppVersion   string         `json:"app_version,omitempty" validate:"max=32"`
	ErrorType    string         `json:"error_type,omitempty" validate:"max=64"`
	ErrorMessage string         `json:"error_message,omitempty" validate:"max=1024"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// Time returns the event timestamp as UTC
func (e Event) Time() time.Time { return time.UnixMilli(e.Timestamp).UTC() }

// WithDefaults fills blank context fields and lowercases a client supplied id
func (e Event) WithDefaults() Event {
	e.ID = strings.ToLower(strings.TrimSpace(e.ID))
	if e.DeviceType == "" {
		e.DeviceType = DefaultDevice
	}
	if e.Country == "" {
		e.Country = DefaultCountry
	}
	if e.AppVersion == "" {
		e.AppVersion = DefaultAppVersion
	}
	return e
}
