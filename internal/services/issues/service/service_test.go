package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	kit "arguxai/internal/platform/testkit"
	"arguxai/internal/platform/testkit/faketx"
	"arguxai/internal/services/issues/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// memRepo enforces one open issue per step like the partial unique index
type memRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.Issue
	updates int
	// hideOpen makes OpenByStep miss once, simulating a concurrent writer
	hideOpen bool
}

func newRepo() *memRepo { return &memRepo{byID: map[string]domain.Issue{}} }

func (m *memRepo) Bind(repokit.Queryer) domain.StorageRepo { return m }

func (m *memRepo) OpenByStep(_ context.Context, step string) (domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideOpen {
		m.hideOpen = false
		return domain.Issue{}, perr.NotFoundf("no open issue")
	}
	for _, iss := range m.byID {
		if iss.FunnelStep == step && iss.Status.Open() {
			return iss, nil
		}
	}
	return domain.Issue{}, perr.NotFoundf("no open issue")
}

func (m *memRepo) Insert(_ context.Context, iss domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.FunnelStep == iss.FunnelStep && o.Status.Open() {
			return perr.FromPostgres(&pgconn.PgError{Code: "23505"}, "insert issue")
		}
	}
	m.byID[iss.ID] = iss
	return nil
}

func (m *memRepo) Get(_ context.Context, id string, _ bool) (domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iss, ok := m.byID[id]
	if !ok {
		return domain.Issue{}, perr.NotFoundf("issue %s not found", id)
	}
	return iss, nil
}

func (m *memRepo) List(_ context.Context, f domain.ListFilter) ([]domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Issue
	for _, iss := range m.byID {
		if (f.Status == "" || iss.Status == f.Status) && (f.Severity == "" || iss.Severity == f.Severity) {
			out = append(out, iss)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, iss domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.byID[iss.ID] = iss
	return nil
}

func anom(step string, drop float64, at time.Time) anomaly.Anomaly {
	return anomaly.Anomaly{
		FunnelStep: step, DetectedAt: at, CurrentRate: 45, BaselineRate: 85, DropPercent: drop,
		Sigma: 20.6, IsSignificant: true, CurrentSessions: 1000, BaselineSessions: 1000,
		Severity: anomaly.SeverityFor(drop),
	}
}

func newSvc() (*Service, *memRepo) {
	r := newRepo()
	return New(faketx.New(), r, kit.NewClock(now), Config{}), r
}

func TestIssueID(t *testing.T) {
	got := IssueID(anom("login_button_click", 47, time.UnixMilli(1717243200123)))
	if got != "issue_1717243200123_loginbuttonclick" {
		t.Fatalf("IssueID = %q", got)
	}
}

func TestCreateIsIdempotentPerOpenStep(t *testing.T) {
	svc, r := newSvc()
	first, created, err := svc.Create(context.Background(), anom("login_form", 47.06, now))
	if err != nil || !created {
		t.Fatalf("first Create = %v, %v", created, err)
	}
	if first.Status != domain.StatusDetected || first.Severity != anomaly.SeverityHigh {
		t.Fatalf("first = %+v", first)
	}

	again, created, err := svc.Create(context.Background(), anom("login_form", 80, now.Add(time.Minute)))
	if err != nil || created || again.ID != first.ID {
		t.Fatalf("second Create = %+v, %v, %v", again, created, err)
	}
	if len(r.byID) != 1 {
		t.Fatalf("stored %d issues", len(r.byID))
	}

	if _, err := svc.Resolve(context.Background(), first.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, created, err := svc.Create(context.Background(), anom("login_form", 30, now.Add(time.Hour))); err != nil || !created {
		t.Fatalf("after resolve Create = %v, %v", created, err)
	}
}

func TestCreateRecoversFromDuplicateKey(t *testing.T) {
	svc, r := newSvc()
	first, _, _ := svc.Create(context.Background(), anom("login_form", 50, now))
	r.hideOpen = true
	got, created, err := svc.Create(context.Background(), anom("login_form", 50, now.Add(time.Second)))
	if err != nil || created || got.ID != first.ID {
		t.Fatalf("raced Create = %+v, %v, %v", got, created, err)
	}
}

func TestCreateRejectsBadAnomaly(t *testing.T) {
	svc, _ := newSvc()
	if _, _, err := svc.Create(context.Background(), anomaly.Anomaly{Severity: anomaly.SeverityLow}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("blank step err = %v", err)
	}
	a := anom("x", 50, now)
	a.Severity = "apocalyptic"
	if _, _, err := svc.Create(context.Background(), a); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad severity err = %v", err)
	}
}

func TestPatchLifecycle(t *testing.T) {
	svc, r := newSvc()
	iss, _, _ := svc.Create(context.Background(), anom("login_page", 65, now))
	ctx := context.Background()

	d := domain.Diagnosis{RootCause: "OTP provider timeouts", Confidence: 80, ModelUsed: "deepseek-chat"}
	got, err := svc.AttachDiagnosis(ctx, iss.ID, d)
	if err != nil || got.Status != domain.StatusDiagnosed || got.Diagnosis.RootCause != d.RootCause {
		t.Fatalf("AttachDiagnosis = %+v, %v", got, err)
	}
	if _, err := svc.AttachDiagnosis(ctx, iss.ID, domain.Diagnosis{}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("empty diagnosis err = %v", err)
	}

	if got, err = svc.LinkJira(ctx, iss.ID, "ARGUX-42"); err != nil || got.JiraTicket != "ARGUX-42" {
		t.Fatalf("LinkJira = %+v, %v", got, err)
	}
	if _, err = svc.LinkPR(ctx, iss.ID, "not a url"); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("bad pr url err = %v", err)
	}
	if got, err = svc.LinkPR(ctx, iss.ID, "https://github.com/acme/app/pull/7"); err != nil || got.GithubPR == "" {
		t.Fatalf("LinkPR = %+v, %v", got, err)
	}

	if got, err = svc.Resolve(ctx, iss.ID); err != nil || got.Status != domain.StatusResolved {
		t.Fatalf("Resolve = %+v, %v", got, err)
	}
	before := r.updates
	if _, err = svc.Resolve(ctx, iss.ID); err != nil || r.updates != before {
		t.Fatalf("second Resolve should be a no-op: %v, updates %d -> %d", err, before, r.updates)
	}
	if _, err := svc.AttachDiagnosis(ctx, iss.ID, d); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("diagnosing a resolved issue err = %v", err)
	}
	if _, err := svc.Resolve(ctx, "issue_missing"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestListFiltersAndLimits(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()
	_, _, _ = svc.Create(ctx, anom("a", 15, now))
	_, _, _ = svc.Create(ctx, anom("b", 65, now.Add(time.Minute)))
	_, _, _ = svc.Create(ctx, anom("c", 70, now.Add(2*time.Minute)))

	all, err := svc.List(ctx, domain.ListFilter{})
	if err != nil || len(all) != 3 || all[0].FunnelStep != "c" {
		t.Fatalf("List = %+v, %v", all, err)
	}
	crit, _ := svc.List(ctx, domain.ListFilter{Severity: anomaly.SeverityCritical, Limit: 1})
	if len(crit) != 1 || crit[0].FunnelStep != "c" {
		t.Fatalf("critical = %+v", crit)
	}
	if _, err := svc.List(ctx, domain.ListFilter{Status: "lost"}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("bad status err = %v", err)
	}
	none, err := svc.List(ctx, domain.ListFilter{Status: domain.StatusResolved})
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("empty list should be non nil: %#v, %v", none, err)
	}
}
