package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/core/conversion"
	"arguxai/internal/core/cooldown"
	"arguxai/internal/core/event"
	"arguxai/internal/core/window"
	perr "arguxai/internal/platform/errors"
	kit "arguxai/internal/platform/testkit"
	"arguxai/internal/services/detect/domain"
	issuesdom "arguxai/internal/services/issues/domain"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

var loginSteps = []conversion.Step{
	{Name: "login_page", EventType: event.PageView},
	{Name: "login_form", Entry: "login_page"},
}

type fakeSteps struct {
	steps []conversion.Step
	err   error
}

func (f fakeSteps) Steps(context.Context) ([]conversion.Step, error) { return f.steps, f.err }

// fakeEvents serves 1000 baseline and 1000 recent sessions relative to the clock;
// every session hits login_page and the first conv of them also hit login_form
type fakeEvents struct {
	clock      *kit.Clock
	baseConv   int
	recentConv int
	fail       map[string]error
	calls      atomic.Int32
}

func (f *fakeEvents) EventsInWindow(_ context.Context, w window.Window, steps ...string) ([]event.Event, error) {
	f.calls.Add(1)
	want := map[string]bool{}
	for _, s := range steps {
		if err := f.fail[s]; err != nil {
			return nil, err
		}
		want[s] = true
	}
	now := f.clock.Now()
	var out []event.Event
	add := func(prefix string, at time.Time, conv int) {
		for i := 0; i < 1000; i++ {
			sid := fmt.Sprintf("%s-%d", prefix, i)
			out = append(out, event.Event{Type: event.PageView, SessionID: sid, FunnelStep: "login_page", Timestamp: at.UnixMilli()})
			if i < conv {
				out = append(out, event.Event{Type: event.FormSubmit, SessionID: sid, FunnelStep: "login_form", Timestamp: at.Add(time.Second).UnixMilli()})
			}
		}
	}
	add("b", now.Add(-2*time.Hour), f.baseConv)
	add("r", now.Add(-10*time.Minute), f.recentConv)

	kept := out[:0]
	for _, e := range out {
		if want[e.FunnelStep] && w.Contains(e.Time()) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func (f *fakeEvents) Recent(context.Context, string, int) ([]event.Event, error) { return nil, nil }

// fakeEmitter keeps at most one open issue per step
type fakeEmitter struct {
	mu      sync.Mutex
	open    map[string]issuesdom.Issue
	created int
	err     error
}

func (f *fakeEmitter) Create(_ context.Context, a anomaly.Anomaly) (issuesdom.Issue, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return issuesdom.Issue{}, false, f.err
	}
	if f.open == nil {
		f.open = map[string]issuesdom.Issue{}
	}
	if iss, ok := f.open[a.FunnelStep]; ok {
		return iss, false, nil
	}
	f.created++
	iss := issuesdom.Issue{
		ID:         fmt.Sprintf("issue_%d_%s", a.DetectedAt.UnixMilli(), a.FunnelStep),
		FunnelStep: a.FunnelStep,
		Status:     issuesdom.StatusDetected,
		Severity:   a.Severity,
		DetectedAt: a.DetectedAt,
	}
	f.open[a.FunnelStep] = iss
	return iss, true, nil
}

func (f *fakeEmitter) resolveAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = nil
}

type fakeDiagnoser struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeDiagnoser) Diagnose(_ context.Context, id string) (issuesdom.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return issuesdom.Issue{ID: id}, nil
}

type rig struct {
	clock *kit.Clock
	evs   *fakeEvents
	emit  *fakeEmitter
	diag  *fakeDiagnoser
	svc   *Service
}

func newRig(t *testing.T, baseConv, recentConv int) *rig {
	t.Helper()
	sel, err := window.NewSelector(24, 30)
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	th := anomaly.DefaultThresholds()
	r := &rig{clock: kit.NewClock(t0), emit: &fakeEmitter{}, diag: &fakeDiagnoser{}}
	r.evs = &fakeEvents{clock: r.clock, baseConv: baseConv, recentConv: recentConv}
	r.svc = New(fakeSteps{steps: loginSteps}, r.evs, r.emit, cooldown.NewMemory(th.Cooldown()), r.diag, r.clock, Config{
		Thresholds:   th,
		Selector:     sel,
		Workers:      2,
		AutoDiagnose: true,
	})
	return r
}

func outcome(t *testing.T, rep domain.CycleReport, step string) domain.Outcome {
	t.Helper()
	for _, o := range rep.Outcomes {
		if o.FunnelStep == step {
			return o
		}
	}
	t.Fatalf("no outcome for %s in %+v", step, rep.Outcomes)
	return domain.Outcome{}
}

func TestRunCycleEscalatesLargeSignificantDrop(t *testing.T) {
	r := newRig(t, 850, 450)
	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerManual)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	r.svc.Wait()

	if rep.CycleID == "" || !rep.StartedAt.Equal(t0) || rep.FinishedAt.IsZero() {
		t.Fatalf("report header = %+v", rep)
	}
	if len(rep.Outcomes) != 2 {
		t.Fatalf("outcomes = %+v", rep.Outcomes)
	}

	page := outcome(t, rep, "login_page")
	if page.Status != domain.StatusSkipped || page.Reason != string(anomaly.ReasonNoDrop) {
		t.Fatalf("login_page = %+v", page)
	}

	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusDetected || form.Anomaly == nil || form.IssueID == "" {
		t.Fatalf("login_form = %+v", form)
	}
	kit.MustNear(t, "drop", form.Anomaly.DropPercent, 47.06, 0.01)
	kit.MustNear(t, "baseline rate", *form.BaselineRate, 85, 1e-9)
	kit.MustNear(t, "current rate", *form.CurrentRate, 45, 1e-9)
	if form.Anomaly.Severity != anomaly.SeverityHigh || form.Anomaly.Sigma < 2 {
		t.Fatalf("anomaly = %+v", form.Anomaly)
	}
	if !form.Anomaly.DetectedAt.Equal(t0) {
		t.Fatalf("detected_at = %v", form.Anomaly.DetectedAt)
	}

	if len(rep.Issues) != 1 || rep.Issues[0].ID != form.IssueID {
		t.Fatalf("issues = %+v", rep.Issues)
	}
	if len(r.diag.ids) != 1 || r.diag.ids[0] != form.IssueID {
		t.Fatalf("auto diagnosis = %v", r.diag.ids)
	}
}

func TestSecondCycleInsideCooldownIsSuppressed(t *testing.T) {
	r := newRig(t, 850, 450)
	if _, err := r.svc.RunCycle(context.Background(), domain.TriggerSchedule); err != nil {
		t.Fatalf("first: %v", err)
	}
	// an operator resolves the issue; only the cooldown is left guarding the step
	r.emit.resolveAll()
	r.clock.Advance(2 * time.Minute)

	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerSchedule)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusCooldown || form.Reason != domain.ReasonCooldown {
		t.Fatalf("login_form = %+v", form)
	}
	if form.CooldownUntil == nil || !form.CooldownUntil.Equal(t0.Add(5*time.Minute)) {
		t.Fatalf("cooldown until = %v", form.CooldownUntil)
	}
	if form.Anomaly == nil {
		t.Fatalf("suppressed outcome should still carry the anomaly")
	}
	if len(rep.Issues) != 0 || r.emit.created != 1 {
		t.Fatalf("issues = %d, created = %d", len(rep.Issues), r.emit.created)
	}
}

func TestPendingReservationHasNoCooldownUntil(t *testing.T) {
	r := newRig(t, 850, 450)
	ctx := context.Background()
	held, ok, _, err := r.svc.Cooldown.Reserve(ctx, "login_form", t0)
	if err != nil || !ok {
		t.Fatalf("hold reservation: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Release(ctx) }()

	rep, err := r.svc.RunCycle(ctx, domain.TriggerManual)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusCooldown || form.Reason != domain.ReasonCooldown {
		t.Fatalf("login_form = %+v", form)
	}
	if form.CooldownUntil != nil {
		t.Fatalf("cooldown until = %v, want unset while pending", *form.CooldownUntil)
	}
	if r.emit.created != 0 {
		t.Fatalf("created = %d", r.emit.created)
	}
}

type lostLease struct{ cooldown.Tracker }

func (l lostLease) Reserve(ctx context.Context, step string, now time.Time) (cooldown.Reservation, bool, time.Time, error) {
	res, ok, until, err := l.Tracker.Reserve(ctx, step, now)
	if res != nil {
		res = lostCommit{res}
	}
	return res, ok, until, err
}

type lostCommit struct{ cooldown.Reservation }

// Commit behaves like an expired lease: the claim is gone and nothing is recorded
func (c lostCommit) Commit(ctx context.Context, _ time.Time) error {
	_ = c.Reservation.Release(ctx)
	return cooldown.ErrLeaseLost
}

func TestLostLeaseStillReportsIssue(t *testing.T) {
	r := newRig(t, 850, 450)
	r.svc.Cooldown = lostLease{r.svc.Cooldown}

	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerManual)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	r.svc.Wait()
	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusDetected || len(rep.Issues) != 1 {
		t.Fatalf("login_form = %+v issues = %d", form, len(rep.Issues))
	}

	// no cooldown was recorded, so the open issue is what keeps the next cycle quiet
	rep, err = r.svc.RunCycle(context.Background(), domain.TriggerManual)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if got := outcome(t, rep, "login_form"); got.Status != domain.StatusSkipped || got.Reason != domain.ReasonOpenIssue {
		t.Fatalf("second login_form = %+v", got)
	}
}

func TestOpenIssueGuardsStepAfterCooldown(t *testing.T) {
	r := newRig(t, 850, 450)
	if _, err := r.svc.RunCycle(context.Background(), domain.TriggerSchedule); err != nil {
		t.Fatalf("first: %v", err)
	}
	r.clock.Advance(10 * time.Minute)

	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerSchedule)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusSkipped || form.Reason != domain.ReasonOpenIssue || form.IssueID == "" {
		t.Fatalf("login_form = %+v", form)
	}
	if len(rep.Issues) != 0 || r.emit.created != 1 {
		t.Fatalf("duplicate issue: issues = %d, created = %d", len(rep.Issues), r.emit.created)
	}

	// the guarded cycle must not have advanced the cooldown
	r.emit.resolveAll()
	rep, err = r.svc.RunCycle(context.Background(), domain.TriggerSchedule)
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if got := outcome(t, rep, "login_form").Status; got != domain.StatusDetected {
		t.Fatalf("after resolve status = %s", got)
	}
}

func TestFailedIssueWriteDoesNotAdvanceCooldown(t *testing.T) {
	r := newRig(t, 850, 450)
	r.emit.err = perr.Unavailablef("issue store down")

	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerSchedule)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusErrored || form.Reason != domain.ReasonEmit || form.Error == "" {
		t.Fatalf("login_form = %+v", form)
	}
	if got := outcome(t, rep, "login_page").Status; got != domain.StatusSkipped {
		t.Fatalf("login_page affected by sibling failure: %s", got)
	}

	r.emit.err = nil
	r.clock.Advance(time.Minute)
	rep, err = r.svc.RunCycle(context.Background(), domain.TriggerSchedule)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := outcome(t, rep, "login_form").Status; got != domain.StatusDetected {
		t.Fatalf("retry status = %s", got)
	}
}

func TestEventStoreFailureIsLocalToStep(t *testing.T) {
	r := newRig(t, 850, 450)
	r.svc.Steps = fakeSteps{steps: append([]conversion.Step{{Name: "checkout"}}, loginSteps...)}
	r.evs.fail = map[string]error{"checkout": errors.New("connection refused")}

	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerManual)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	co := outcome(t, rep, "checkout")
	if co.Status != domain.StatusErrored || co.Reason != domain.ReasonStoreRead {
		t.Fatalf("checkout = %+v", co)
	}
	if got := outcome(t, rep, "login_form").Status; got != domain.StatusDetected {
		t.Fatalf("login_form = %s", got)
	}
	if rep.Count(domain.StatusErrored) != 1 || rep.Count(domain.StatusDetected) != 1 {
		t.Fatalf("counts = %+v", rep.Outcomes)
	}
}

func TestSmallSamplesAreSkipped(t *testing.T) {
	r := newRig(t, 850, 450)
	r.svc.Cfg.Thresholds.MinSampleSize = 5000

	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerManual)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	for _, o := range rep.Outcomes {
		if o.Status != domain.StatusSkipped || o.Reason != string(anomaly.ReasonInsufficientData) {
			t.Fatalf("outcome = %+v", o)
		}
	}
	if r.emit.created != 0 {
		t.Fatalf("created = %d", r.emit.created)
	}
}

func TestSmallDropIsSkipped(t *testing.T) {
	r := newRig(t, 850, 800)
	rep, err := r.svc.RunCycle(context.Background(), domain.TriggerManual)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	form := outcome(t, rep, "login_form")
	if form.Status != domain.StatusSkipped || form.Reason != string(anomaly.ReasonDropBelowThreshold) {
		t.Fatalf("login_form = %+v", form)
	}
	kit.MustNear(t, "drop", form.DropPercent, 5.88, 0.01)
}

func TestStepsErrorFailsCycle(t *testing.T) {
	r := newRig(t, 850, 450)
	r.svc.Steps = fakeSteps{err: perr.Unavailablef("catalog down")}
	if _, err := r.svc.RunCycle(context.Background(), domain.TriggerManual); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if r.evs.calls.Load() != 0 {
		t.Fatalf("events read without steps")
	}
}

func TestAutoDiagnoseOff(t *testing.T) {
	r := newRig(t, 850, 450)
	r.svc.Cfg.AutoDiagnose = false
	if _, err := r.svc.RunCycle(context.Background(), domain.TriggerManual); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	r.svc.Wait()
	if len(r.diag.ids) != 0 {
		t.Fatalf("diagnosed %v", r.diag.ids)
	}
	if r.svc.Settings().AutoDiagnose {
		t.Fatalf("settings should report auto diagnosis off")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig(t, 850, 450)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.svc.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.emit.created != 0 {
		t.Fatalf("cancelled cycle should not be reported, created = %d", r.emit.created)
	}
}
