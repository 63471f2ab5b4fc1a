// Package domain defines issues: escalated anomalies and their later diagnosis and links
package domain

import (
	"time"

	"arguxai/internal/core/anomaly"
)

// Status is the issue lifecycle state
type Status string

// Lifecycle: detected -> diagnosed -> resolved; resolve is allowed from any open state
const (
	StatusDetected  Status = "detected"
	StatusDiagnosed Status = "diagnosed"
	StatusResolved  Status = "resolved"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusDetected, StatusDiagnosed, StatusResolved:
		return true
	}
	return false
}

// Open reports whether the issue still blocks a new one for its step
func (s Status) Open() bool { return s != StatusResolved }

// Diagnosis is the AI root cause attached after creation
type Diagnosis struct {
	RootCause          string   `json:"root_cause"`
	Confidence         float64  `json:"confidence"`
	Explanation        string   `json:"explanation"`
	RecommendedActions []string `json:"recommended_actions"`
	CodeLocations      []string `json:"code_locations"`
	ModelUsed          string   `json:"model_used"`
	DiagnosisTimeMS    int64    `json:"diagnosis_time_ms"`
}

// Issue is a persisted anomaly
type Issue struct {
	ID               string           `json:"issue_id"`
	FunnelStep       string           `json:"funnel_step"`
	Status           Status           `json:"status"`
	Severity         anomaly.Severity `json:"severity"`
	DetectedAt       time.Time        `json:"detected_at"`
	CurrentRate      float64          `json:"current_conversion_rate"`
	BaselineRate     float64          `json:"baseline_conversion_rate"`
	DropPercent      float64          `json:"drop_percentage"`
	Sigma            float64          `json:"sigma_value"`
	IsSignificant    bool             `json:"is_significant"`
	CurrentSessions  int              `json:"current_sessions"`
	BaselineSessions int              `json:"baseline_sessions"`
	Diagnosis        *Diagnosis       `json:"diagnosis,omitempty"`
	JiraTicket       string           `json:"jira_ticket,omitempty"`
	GithubPR         string           `json:"github_pr,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ListFilter narrows List; zero values match everything
type ListFilter struct {
	Status   Status
	Severity anomaly.Severity
	Limit    int
}

// JiraLink is the PATCH body for a ticket link
type JiraLink struct {
	Ticket string `json:"jira_ticket" validate:"required,max=64"`
}

// PRLink is the PATCH body for a pull request link
type PRLink struct {
	URL string `json:"github_pr" validate:"required,url,max=512"`
}
