//go:build integration_pg

package repo

import (
	"context"
	"testing"
	"time"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/store/schema"
	"arguxai/internal/platform/testkit/pgtc"
	"arguxai/internal/services/issues/domain"
)

func TestPGRoundTripAndOpenIndex(t *testing.T) {
	ctx := context.Background()
	st := pgtc.Open(t)
	if err := schema.ApplyPG(ctx, st.PG); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := domain.Issue{
		ID: "ISS-1", FunnelStep: "login_form", Status: domain.StatusDetected,
		Severity: anomaly.SeverityHigh, DetectedAt: at,
		CurrentRate: 40, BaselineRate: 80, DropPercent: 50, Sigma: 20.66, IsSignificant: true,
		CurrentSessions: 1000, BaselineSessions: 1000, CreatedAt: at, UpdatedAt: at,
	}

	err := repokit.WithTx(ctx, st.PG, func(q repokit.Queryer) error {
		return NewPG().Bind(q).Insert(ctx, iss)
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = repokit.WithTx(ctx, st.PG, func(q repokit.Queryer) error {
		dup := iss
		dup.ID = "ISS-2"
		return NewPG().Bind(q).Insert(ctx, dup)
	})
	if !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("second open issue err = %v, want duplicate_key", err)
	}

	err = repokit.WithTx(ctx, st.PG, func(q repokit.Queryer) error {
		r := NewPG().Bind(q)
		got, err := r.OpenByStep(ctx, "login_form")
		if err != nil {
			return err
		}
		if got.ID != "ISS-1" || got.Sigma != 20.66 || !got.DetectedAt.Equal(at) {
			t.Fatalf("open issue = %+v", got)
		}
		got.Status = domain.StatusResolved
		got.Diagnosis = &domain.Diagnosis{RootCause: "bad deploy", Confidence: 0.8}
		got.JiraTicket = "ARG-7"
		return r.Update(ctx, got)
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	err = repokit.WithTx(ctx, st.PG, func(q repokit.Queryer) error {
		r := NewPG().Bind(q)
		if _, err := r.OpenByStep(ctx, "login_form"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("open after resolve err = %v", err)
		}
		got, err := r.Get(ctx, "ISS-1", false)
		if err != nil {
			return err
		}
		if got.Diagnosis == nil || got.Diagnosis.RootCause != "bad deploy" || got.JiraTicket != "ARG-7" {
			t.Fatalf("resolved issue = %+v", got)
		}
		xs, err := r.List(ctx, domain.ListFilter{Status: domain.StatusResolved, Limit: 10})
		if err != nil {
			return err
		}
		if len(xs) != 1 {
			t.Fatalf("list resolved = %d", len(xs))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
}
