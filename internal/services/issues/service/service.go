// Package service implements the issue emitter and the post creation patch operations
package service

import (
	"context"
	"fmt"
	"strings"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/metrics"
	"arguxai/internal/platform/net/http/bind"
	pstrings "arguxai/internal/platform/strings"
	ptime "arguxai/internal/platform/time"
	"arguxai/internal/services/issues/domain"
)

// Config for the issues service
type Config struct {
	// DefaultLimit and MaxLimit bound List; default 50 and 500
	DefaultLimit int
	MaxLimit     int
}

// Service implements domain.EmitterPort, domain.ReaderPort and domain.PatcherPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Clock  ptime.Clock
	Cfg    Config
}

// New constructs the issues service
func New(db repokit.TxRunner, b repokit.Binder[domain.StorageRepo], clock ptime.Clock, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if clock == nil {
		clock = ptime.System{}
	}
	return &Service{DB: db, Binder: b, Clock: clock, Cfg: cfg}
}

// IssueID is issue_{detected_at ms}_{step without separators}
func IssueID(a anomaly.Anomaly) string {
	return fmt.Sprintf("issue_%d_%s", ptime.Millis(a.DetectedAt), pstrings.Compact(a.FunnelStep))
}

// Create stores a detected issue unless the step already has an open one, in which
// case that issue is returned with created false. The partial unique index catches
// a concurrent writer that passed the open check at the same time
func (s *Service) Create(ctx context.Context, a anomaly.Anomaly) (domain.Issue, bool, error) {
	if strings.TrimSpace(a.FunnelStep) == "" {
		return domain.Issue{}, false, perr.WithField(perr.InvalidArgf("anomaly has no funnel step"), "funnel_step")
	}
	if !a.Severity.Valid() {
		return domain.Issue{}, false, perr.WithField(perr.InvalidArgf("unknown severity %q", a.Severity), "severity")
	}

	now := s.Clock.Now()
	iss := domain.Issue{
		ID:               IssueID(a),
		FunnelStep:       a.FunnelStep,
		Status:           domain.StatusDetected,
		Severity:         a.Severity,
		DetectedAt:       a.DetectedAt.UTC(),
		CurrentRate:      a.CurrentRate,
		BaselineRate:     a.BaselineRate,
		DropPercent:      a.DropPercent,
		Sigma:            a.Sigma,
		IsSignificant:    a.IsSignificant,
		CurrentSessions:  a.CurrentSessions,
		BaselineSessions: a.BaselineSessions,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var (
		existing domain.Issue
		found    bool
	)
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		open, err := r.OpenByStep(ctx, a.FunnelStep)
		switch {
		case err == nil:
			existing, found = open, true
			return nil
		case !perr.IsCode(err, perr.ErrorCodeNotFound):
			return err
		}
		return r.Insert(ctx, iss)
	})
	if perr.IsDuplicateKey(err) {
		existing, err = s.open(ctx, a.FunnelStep)
		if err != nil {
			return domain.Issue{}, false, perr.Conflictf("issue for %s raced and could not be re-read: %v", a.FunnelStep, err)
		}
		found = true
	}
	if err != nil {
		return domain.Issue{}, false, err
	}
	if found {
		logger.C(ctx).Info().Str("issue_id", existing.ID).Msg("open issue already exists for step")
		return existing, false, nil
	}

	metrics.IssuesCreated.WithLabelValues(string(iss.Severity)).Inc()
	logger.C(ctx).Info().
		Str("issue_id", iss.ID).
		Str("severity", string(iss.Severity)).
		Float64("drop_percentage", iss.DropPercent).
		Float64("sigma", iss.Sigma).
		Msg("issue created")
	return iss, true, nil
}

func (s *Service) open(ctx context.Context, step string) (domain.Issue, error) {
	var iss domain.Issue
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		iss, err = s.Binder.Bind(q).OpenByStep(ctx, step)
		return err
	})
	return iss, err
}

// Get returns one issue
func (s *Service) Get(ctx context.Context, id string) (domain.Issue, error) {
	var iss domain.Issue
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		iss, err = s.Binder.Bind(q).Get(ctx, id, false)
		return err
	})
	return iss, err
}

// List returns issues newest first, filtered by status and severity
func (s *Service) List(ctx context.Context, f domain.ListFilter) ([]domain.Issue, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, perr.WithField(perr.Validationf("unknown status %q", f.Status), "status")
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return nil, perr.WithField(perr.Validationf("unknown severity %q", f.Severity), "severity")
	}
	if f.Limit <= 0 {
		f.Limit = s.Cfg.DefaultLimit
	}
	if f.Limit > s.Cfg.MaxLimit {
		f.Limit = s.Cfg.MaxLimit
	}
	var out []domain.Issue
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).List(ctx, f)
		return err
	})
	if out == nil && err == nil {
		out = []domain.Issue{}
	}
	return out, err
}

// AttachDiagnosis stores d and moves the issue to diagnosed; a resolved issue is a conflict
func (s *Service) AttachDiagnosis(ctx context.Context, id string, d domain.Diagnosis) (domain.Issue, error) {
	if strings.TrimSpace(d.RootCause) == "" {
		return domain.Issue{}, perr.WithField(perr.Validationf("diagnosis needs a root cause"), "root_cause")
	}
	return s.patch(ctx, id, func(iss *domain.Issue) error {
		if iss.Status == domain.StatusResolved {
			return perr.Conflictf("issue %s is resolved", id)
		}
		iss.Diagnosis = &d
		iss.Status = domain.StatusDiagnosed
		return nil
	})
}

// LinkJira records the ticket key
func (s *Service) LinkJira(ctx context.Context, id, ticket string) (domain.Issue, error) {
	if err := bind.Validate(domain.JiraLink{Ticket: ticket}); err != nil {
		return domain.Issue{}, err
	}
	return s.patch(ctx, id, func(iss *domain.Issue) error {
		iss.JiraTicket = ticket
		return nil
	})
}

// LinkPR records the pull request url
func (s *Service) LinkPR(ctx context.Context, id, url string) (domain.Issue, error) {
	if err := bind.Validate(domain.PRLink{URL: url}); err != nil {
		return domain.Issue{}, err
	}
	return s.patch(ctx, id, func(iss *domain.Issue) error {
		iss.GithubPR = url
		return nil
	})
}

// Resolve closes the issue; resolving twice is a no-op
func (s *Service) Resolve(ctx context.Context, id string) (domain.Issue, error) {
	return s.patch(ctx, id, func(iss *domain.Issue) error {
		iss.Status = domain.StatusResolved
		return nil
	})
}

// patch locks the row, applies fn and writes it back when something changed
func (s *Service) patch(ctx context.Context, id string, fn func(*domain.Issue) error) (domain.Issue, error) {
	var out domain.Issue
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		iss, err := r.Get(ctx, id, true)
		if err != nil {
			return err
		}
		before := fingerprint(iss)
		if err := fn(&iss); err != nil {
			return err
		}
		if fingerprint(iss) != before {
			iss.UpdatedAt = s.Clock.Now()
			if err := r.Update(ctx, iss); err != nil {
				return err
			}
		}
		out = iss
		return nil
	})
	if err == nil {
		logger.C(ctx).Debug().Str("issue_id", out.ID).Str("status", string(out.Status)).Msg("issue patched")
	}
	return out, err
}

func fingerprint(iss domain.Issue) string {
	d := ""
	if iss.Diagnosis != nil {
		d = fmt.Sprintf("%+v", *iss.Diagnosis)
	}
	return strings.Join([]string{string(iss.Status), iss.JiraTicket, iss.GithubPR, d}, "\x00")
}
