// Package domain defines the event ingestion and window read contracts
package domain

import "arguxai/internal/core/event"

// Rejection explains why one event of a batch was not stored
type Rejection struct {
	Index     int    `json:"index"`
	SessionID string `json:"session_id,omitempty"`
	Field     string `json:"field,omitempty"`
	Reason    string `json:"reason"`
}

// IngestResult reports a batch: valid events are stored, invalid ones rejected individually
type IngestResult struct {
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
	IDs      []string    `json:"ids,omitempty"`
}

// Batch is the ingest request body
type Batch struct {
	Events []event.Event `json:"events" validate:"required,min=1"`
}
