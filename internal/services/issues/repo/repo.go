// Package repo provides the postgres issue store
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/store"
	pstrings "arguxai/internal/platform/strings"
	"arguxai/internal/services/issues/domain"
)

// binder implements repokit.Binder[domain.StorageRepo]
type binder struct{}

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

type pg struct{ q repokit.Queryer }

const issueCols = `issue_id, funnel_step, status, severity, detected_at,
	current_conversion_rate, baseline_conversion_rate, drop_percentage, sigma_value, is_significant,
	current_sessions, baseline_sessions, diagnosis, jira_ticket, github_pr, created_at, updated_at`

// OpenByStep implements domain.StorageRepo
func (s *pg) OpenByStep(ctx context.Context, step string) (domain.Issue, error) {
	q := `SELECT ` + issueCols + ` FROM issues WHERE funnel_step = $1 AND status <> 'resolved'`
	iss, err := store.One(ctx, s.q, scan, q, step)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Issue{}, perr.NotFoundf("no open issue for %s", step)
	}
	return iss, perr.FromPostgres(err, "open issue by step")
}

// Insert implements domain.StorageRepo; a second open issue for the step violates
// the partial unique index and surfaces as a duplicate key error
func (s *pg) Insert(ctx context.Context, iss domain.Issue) error {
	diag, err := marshalDiagnosis(iss.Diagnosis)
	if err != nil {
		return err
	}
	const q = `INSERT INTO issues (` + issueCols + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err = s.q.Exec(ctx, q,
		iss.ID, iss.FunnelStep, string(iss.Status), string(iss.Severity), iss.DetectedAt,
		iss.CurrentRate, iss.BaselineRate, iss.DropPercent, iss.Sigma, iss.IsSignificant,
		iss.CurrentSessions, iss.BaselineSessions, diag,
		pstrings.SQLNull(iss.JiraTicket), pstrings.SQLNull(iss.GithubPR), iss.CreatedAt, iss.UpdatedAt,
	)
	return perr.FromPostgresf(err, "insert issue for %s", iss.FunnelStep)
}

// Get implements domain.StorageRepo
func (s *pg) Get(ctx context.Context, id string, forUpdate bool) (domain.Issue, error) {
	q := `SELECT ` + issueCols + ` FROM issues WHERE issue_id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	iss, err := store.One(ctx, s.q, scan, q, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Issue{}, perr.NotFoundf("issue %s not found", id)
	}
	return iss, perr.FromPostgres(err, "get issue")
}

// List implements domain.StorageRepo, newest first
func (s *pg) List(ctx context.Context, f domain.ListFilter) ([]domain.Issue, error) {
	var (
		sb    strings.Builder
		args  []any
		where []string
	)
	sb.WriteString(`SELECT ` + issueCols + ` FROM issues`)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, f.Limit)
	fmt.Fprintf(&sb, " ORDER BY detected_at DESC, issue_id LIMIT $%d", len(args))

	out, err := store.Many(ctx, s.q, scan, sb.String(), args...)
	return out, perr.FromPostgres(err, "list issues")
}

// Update writes the mutable columns
func (s *pg) Update(ctx context.Context, iss domain.Issue) error {
	diag, err := marshalDiagnosis(iss.Diagnosis)
	if err != nil {
		return err
	}
	const q = `UPDATE issues
		SET status = $2, diagnosis = $3, jira_ticket = $4, github_pr = $5, updated_at = $6
		WHERE issue_id = $1`
	err = store.ExecOne(ctx, s.q, q, iss.ID, string(iss.Status), diag,
		pstrings.SQLNull(iss.JiraTicket), pstrings.SQLNull(iss.GithubPR), iss.UpdatedAt)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("issue %s not found", iss.ID)
	}
	return perr.FromPostgres(err, "update issue")
}

func scan(r repokit.Row) (domain.Issue, error) {
	var (
		iss              domain.Issue
		status, severity string
		diag             []byte
		jira, pr         *string
	)
	if err := r.Scan(&iss.ID, &iss.FunnelStep, &status, &severity, &iss.DetectedAt,
		&iss.CurrentRate, &iss.BaselineRate, &iss.DropPercent, &iss.Sigma, &iss.IsSignificant,
		&iss.CurrentSessions, &iss.BaselineSessions, &diag, &jira, &pr, &iss.CreatedAt, &iss.UpdatedAt); err != nil {
		return domain.Issue{}, err
	}
	iss.Status = domain.Status(status)
	iss.Severity = anomaly.Severity(severity)
	iss.JiraTicket = pstrings.Deref(jira)
	iss.GithubPR = pstrings.Deref(pr)
	iss.DetectedAt = iss.DetectedAt.UTC()
	iss.CreatedAt = iss.CreatedAt.UTC()
	iss.UpdatedAt = iss.UpdatedAt.UTC()
	if len(diag) > 0 {
		iss.Diagnosis = &domain.Diagnosis{}
		if err := json.Unmarshal(diag, iss.Diagnosis); err != nil {
			return domain.Issue{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode diagnosis")
		}
	}
	return iss, nil
}

func marshalDiagnosis(d *domain.Diagnosis) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode diagnosis")
	}
	return b, nil
}
