// Package service implements issue diagnosis: evidence from the recent window, one model call, one patch
package service

import (
	"context"
	"time"

	"arguxai/internal/adapters/ai/deepseek"
	"arguxai/internal/core/evidence"
	"arguxai/internal/core/window"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/metrics"
	"arguxai/internal/services/diagnosis/domain"
	eventsdom "arguxai/internal/services/events/domain"
	issuesdom "arguxai/internal/services/issues/domain"
)

// Config for the diagnosis service
type Config struct {
	// EvidenceWindow is how far before detected_at events are collected; defaults to 30m
	EvidenceWindow time.Duration
	// Timeout bounds one diagnosis end to end; defaults to 90s
	Timeout time.Duration
}

// Service implements domain.DiagnoserPort
type Service struct {
	Issues domain.IssuesPort
	Events eventsdom.ReaderPort
	Model  domain.ModelPort
	Cfg    Config
}

// New constructs the diagnosis service
func New(issues domain.IssuesPort, events eventsdom.ReaderPort, model domain.ModelPort, cfg Config) *Service {
	if cfg.EvidenceWindow <= 0 {
		cfg.EvidenceWindow = 30 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Service{Issues: issues, Events: events, Model: model, Cfg: cfg}
}

// Diagnose collects evidence, asks the model and attaches the answer. A model failure
// is returned as is and nothing is attached, so the call can simply be retried
func (s *Service) Diagnose(ctx context.Context, issueID string) (issuesdom.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Cfg.Timeout)
	defer cancel()
	log := logger.C(ctx).With().Str("issue_id", issueID).Logger()

	iss, err := s.Issues.Get(ctx, issueID)
	if err != nil {
		return issuesdom.Issue{}, err
	}
	if iss.Status == issuesdom.StatusResolved {
		return issuesdom.Issue{}, perr.Conflictf("issue %s is resolved", issueID)
	}

	w := window.Window{Start: iss.DetectedAt.Add(-s.Cfg.EvidenceWindow), End: iss.DetectedAt}
	events, err := s.Events.EventsInWindow(ctx, w, iss.FunnelStep)
	if err != nil {
		return issuesdom.Issue{}, perr.WithOp(err, "collect evidence")
	}
	ev := evidence.Collect(events)

	start := time.Now()
	res, err := s.Model.Diagnose(ctx, deepseek.Request{
		FunnelStep:   iss.FunnelStep,
		CurrentRate:  iss.CurrentRate,
		BaselineRate: iss.BaselineRate,
		DropPercent:  iss.DropPercent,
		Evidence:     ev,
	})
	metrics.Since(metrics.DiagnosisDuration, start)
	if err != nil {
		metrics.Diagnoses.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("diagnosis failed")
		return issuesdom.Issue{}, err
	}
	metrics.Diagnoses.WithLabelValues("ok").Inc()

	out, err := s.Issues.AttachDiagnosis(ctx, iss.ID, issuesdom.Diagnosis{
		RootCause:          res.RootCause,
		Confidence:         res.Confidence,
		Explanation:        res.Explanation,
		RecommendedActions: res.RecommendedActions,
		CodeLocations:      res.CodeLocations,
		ModelUsed:          res.ModelUsed,
		DiagnosisTimeMS:    res.DiagnosisTimeMS,
	})
	if err != nil {
		return issuesdom.Issue{}, err
	}
	log.Info().
		Str("root_cause", res.RootCause).
		Float64("confidence", res.Confidence).
		Int("sessions", ev.TotalSessions).
		Msg("issue diagnosed")
	return out, nil
}
