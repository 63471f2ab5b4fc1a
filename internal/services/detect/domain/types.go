// Package domain defines the detection cycle types and ports
package domain

import (
	"time"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/core/window"
	issuesdom "arguxai/internal/services/issues/domain"
)

// Status is the per step result of a cycle
type Status string

// Step statuses
const (
	StatusDetected Status = "detected"
	StatusSkipped  Status = "skipped"
	StatusCooldown Status = "cooldown"
	StatusErrored  Status = "errored"
)

// Reasons that are not anomaly.Reason values
const (
	ReasonCooldown      = "cooldown_active"
	ReasonOpenIssue     = "open_issue_exists"
	ReasonStoreRead     = "event_store_unavailable"
	ReasonEmit          = "issue_store_unavailable"
	ReasonCooldownStore = "cooldown_store_unavailable"
	ReasonCancelled     = "cycle_cancelled"
)

// Trigger says what started a cycle
type Trigger string

// Cycle triggers
const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// Outcome is what happened to one funnel step in one cycle
type Outcome struct {
	FunnelStep    string           `json:"funnel_step"`
	Status        Status           `json:"status"`
	Reason        string           `json:"reason"`
	BaselineRate  *float64         `json:"baseline_conversion_rate,omitempty"`
	CurrentRate   *float64         `json:"current_conversion_rate,omitempty"`
	DropPercent   float64          `json:"drop_percentage,omitempty"`
	Sigma         float64          `json:"sigma_value,omitempty"`
	Anomaly       *anomaly.Anomaly `json:"anomaly,omitempty"`
	IssueID       string           `json:"issue_id,omitempty"`
	CooldownUntil *time.Time       `json:"cooldown_until,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// CycleReport is the result of one run of the detection cycle; Issues holds only newly created issues
type CycleReport struct {
	CycleID    string            `json:"cycle_id"`
	Trigger    Trigger           `json:"trigger"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Baseline   window.Window     `json:"baseline_window"`
	Recent     window.Window     `json:"recent_window"`
	Outcomes   []Outcome         `json:"outcomes"`
	Issues     []issuesdom.Issue `json:"issues"`
}

// Count returns how many outcomes have status s
func (r CycleReport) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
