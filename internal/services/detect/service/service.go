// Package service implements the detection cycle and its scheduler loop
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"arguxai/internal/core/anomaly"
	"arguxai/internal/core/conversion"
	"arguxai/internal/core/cooldown"
	"arguxai/internal/core/window"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/metrics"
	ptime "arguxai/internal/platform/time"
	"arguxai/internal/services/detect/domain"
	diagdom "arguxai/internal/services/diagnosis/domain"
	eventsdom "arguxai/internal/services/events/domain"
	funnelsdom "arguxai/internal/services/funnels/domain"
	issuesdom "arguxai/internal/services/issues/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config for the detect service
type Config struct {
	Thresholds anomaly.Thresholds
	Selector   window.Selector
	Interval   time.Duration
	Workers    int
	// AutoDiagnose queues a diagnosis for every new issue when Diagnoser is set
	AutoDiagnose    bool
	DiagnoseTimeout time.Duration
	CooldownBackend string
	BaselineHours   int
	RecentMinutes   int
	IntervalMinutes int
}

// Service implements domain.RunnerPort and domain.SettingsPort
type Service struct {
	Steps     funnelsdom.StepsPort
	Events    eventsdom.ReaderPort
	Emitter   issuesdom.EmitterPort
	Cooldown  cooldown.Tracker
	Diagnoser diagdom.DiagnoserPort
	Clock     ptime.Clock
	Cfg       Config

	bg sync.WaitGroup
}

// New constructs the detect service; diag may be nil
func New(
	steps funnelsdom.StepsPort,
	events eventsdom.ReaderPort,
	emitter issuesdom.EmitterPort,
	cd cooldown.Tracker,
	diag diagdom.DiagnoserPort,
	clock ptime.Clock,
	cfg Config,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.DiagnoseTimeout <= 0 {
		cfg.DiagnoseTimeout = 2 * time.Minute
	}
	if clock == nil {
		clock = ptime.System{}
	}
	return &Service{
		Steps:     steps,
		Events:    events,
		Emitter:   emitter,
		Cooldown:  cd,
		Diagnoser: diag,
		Clock:     clock,
		Cfg:       cfg,
	}
}

// Settings implements domain.SettingsPort
func (s *Service) Settings() domain.Settings {
	return domain.Settings{
		Thresholds:          s.Cfg.Thresholds,
		BaselineWindowHours: s.Cfg.BaselineHours,
		RecentWindowMinutes: s.Cfg.RecentMinutes,
		IntervalMinutes:     s.Cfg.IntervalMinutes,
		Workers:             s.Cfg.Workers,
		AutoDiagnose:        s.Cfg.AutoDiagnose && s.Diagnoser != nil,
		CooldownBackend:     s.Cfg.CooldownBackend,
	}
}

// RunCycle evaluates every funnel step once against windows anchored at the same instant.
// A failing step is reported in its outcome and never aborts the others; only a failure
// to load the step list or a cancelled ctx fails the cycle
func (s *Service) RunCycle(ctx context.Context, trigger domain.Trigger) (domain.CycleReport, error) {
	start := time.Now()
	defer metrics.Since(metrics.CycleDuration, start)
	metrics.CyclesTotal.WithLabelValues(string(trigger)).Inc()

	now := s.Clock.Now().UTC()
	rep := domain.CycleReport{
		CycleID:   uuid.NewString(),
		Trigger:   trigger,
		StartedAt: now,
		Outcomes:  []domain.Outcome{},
		Issues:    []issuesdom.Issue{},
	}
	rep.Baseline, rep.Recent = s.Cfg.Selector.Select(now)
	ctx = logger.WithCycle(ctx, rep.CycleID)
	log := logger.C(ctx)

	steps, err := s.Steps.Steps(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load funnel steps")
		return rep, err
	}

	outcomes := make([]domain.Outcome, len(steps))
	created := make([]*issuesdom.Issue, len(steps))

	var g errgroup.Group
	g.SetLimit(s.Cfg.Workers)
	for i := range steps {
		g.Go(func() error {
			outcomes[i], created[i] = s.evaluate(ctx, steps[i], rep, now)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("cycle cancelled; partial result discarded")
		return rep, err
	}

	rep.Outcomes = outcomes
	for _, iss := range created {
		if iss != nil {
			rep.Issues = append(rep.Issues, *iss)
		}
	}
	sort.SliceStable(rep.Issues, func(i, j int) bool { return rep.Issues[i].FunnelStep < rep.Issues[j].FunnelStep })
	rep.FinishedAt = s.Clock.Now().UTC()

	log.Info().
		Str("trigger", string(trigger)).
		Int("steps", len(steps)).
		Int("detected", rep.Count(domain.StatusDetected)).
		Int("skipped", rep.Count(domain.StatusSkipped)).
		Int("cooldown", rep.Count(domain.StatusCooldown)).
		Int("errored", rep.Count(domain.StatusErrored)).
		Dur("took", time.Since(start)).
		Msg("detection cycle finished")

	for _, iss := range rep.Issues {
		s.diagnoseAsync(ctx, iss.ID)
	}
	return rep, nil
}

// evaluate runs read, calculate, decide and emit for one step
func (s *Service) evaluate(ctx context.Context, step conversion.Step, rep domain.CycleReport, now time.Time) (out domain.Outcome, created *issuesdom.Issue) {
	ctx = logger.WithStep(ctx, step.Name)
	log := logger.C(ctx)
	out = domain.Outcome{FunnelStep: step.Name}
	defer func() {
		metrics.StepOutcomes.WithLabelValues(step.Name, string(out.Status), out.Reason).Inc()
	}()

	if err := ctx.Err(); err != nil {
		return errored(out, domain.ReasonCancelled, err), nil
	}
	evs, err := s.Events.EventsInWindow(ctx, s.Cfg.Selector.Span(now), readSteps(step)...)
	if err != nil {
		log.Warn().Err(err).Msg("events read failed; step retried next cycle")
		return errored(out, domain.ReasonStoreRead, err), nil
	}

	base, recent := conversion.Pair(step, rep.Baseline, rep.Recent, evs)
	if r, ok := base.Rate(); ok {
		out.BaselineRate = &r
		metrics.ConversionRate.WithLabelValues(step.Name, "baseline").Set(r)
	}
	if r, ok := recent.Rate(); ok {
		out.CurrentRate = &r
		metrics.ConversionRate.WithLabelValues(step.Name, "recent").Set(r)
	}

	d := anomaly.Evaluate(base, recent, s.Cfg.Thresholds, now)
	out.Reason = string(d.Reason)
	out.DropPercent, out.Sigma = d.DropPercent, d.Sigma
	if d.Sigma != 0 {
		metrics.Sigma.WithLabelValues(step.Name).Set(d.Sigma)
	}
	if !d.Escalate() {
		out.Status = domain.StatusSkipped
		log.Debug().
			Str("reason", out.Reason).
			Int("baseline_sessions", base.Sessions).
			Int("recent_sessions", recent.Sessions).
			Msg("no anomaly")
		return out, nil
	}
	out.Anomaly = d.Anomaly

	res, ok, until, err := s.Cooldown.Reserve(ctx, step.Name, now)
	if err != nil {
		log.Warn().Err(err).Msg("cooldown reserve failed")
		return errored(out, domain.ReasonCooldownStore, err), nil
	}
	if !ok {
		out.Status = domain.StatusCooldown
		out.Reason = domain.ReasonCooldown
		// zero until: another worker holds the step's reservation
		if !until.IsZero() {
			out.CooldownUntil = ptime.Ptr(until)
		}
		log.Info().Time("until", until).Bool("pending", until.IsZero()).Msg("anomaly suppressed by cooldown")
		return out, nil
	}

	iss, isNew, err := s.Emitter.Create(ctx, *d.Anomaly)
	if err != nil {
		release(ctx, res)
		log.Error().Err(err).Msg("issue write failed; cooldown not advanced")
		return errored(out, domain.ReasonEmit, err), nil
	}
	out.IssueID = iss.ID
	if !isNew {
		release(ctx, res)
		out.Status = domain.StatusSkipped
		out.Reason = domain.ReasonOpenIssue
		log.Info().Str("issue_id", iss.ID).Msg("open issue already tracks this step")
		return out, nil
	}

	if err := res.Commit(ctx, d.Anomaly.DetectedAt); err != nil {
		log.Warn().Err(err).Str("issue_id", iss.ID).Msg("cooldown commit failed; open issue check still guards the step")
	}
	out.Status = domain.StatusDetected
	log.Info().
		Str("issue_id", iss.ID).
		Str("severity", string(iss.Severity)).
		Float64("drop_percent", d.Anomaly.DropPercent).
		Float64("sigma", d.Anomaly.Sigma).
		Msg("anomaly escalated")
	return out, &iss
}

// Run executes one cycle immediately and then one per interval until ctx is cancelled.
// Cycles never overlap; a slow cycle delays the next tick
func (s *Service) Run(ctx context.Context) error {
	log := logger.Named("scheduler")
	log.Info().Dur("interval", s.Cfg.Interval).Int("workers", s.Cfg.Workers).Msg("detection scheduler started")

	t := time.NewTicker(s.Cfg.Interval)
	defer t.Stop()
	for {
		if _, err := s.RunCycle(ctx, domain.TriggerSchedule); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("detection cycle failed")
		}
		select {
		case <-ctx.Done():
			s.Wait()
			log.Info().Msg("detection scheduler stopped")
			return nil
		case <-t.C:
		}
	}
}

// Wait blocks until queued background diagnoses finish
func (s *Service) Wait() { s.bg.Wait() }

func (s *Service) diagnoseAsync(ctx context.Context, issueID string) {
	if !s.Cfg.AutoDiagnose || s.Diagnoser == nil {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Cfg.DiagnoseTimeout)
		defer cancel()
		if _, err := s.Diagnoser.Diagnose(dctx, issueID); err != nil {
			logger.C(ctx).Warn().Err(err).Str("issue_id", issueID).Msg("auto diagnosis failed; retry via POST /issues/{id}/diagnose")
		}
	}()
}

// readSteps is the funnel_step filter for one step: itself plus its denominator step
func readSteps(step conversion.Step) []string {
	if e := step.DenominatorStep(); e != step.Name {
		return []string{e, step.Name}
	}
	return []string{step.Name}
}

func errored(out domain.Outcome, reason string, err error) domain.Outcome {
	out.Status = domain.StatusErrored
	out.Reason = reason
	out.Error = perr.WireFrom(err).Message
	return out
}

func release(ctx context.Context, r cooldown.Reservation) {
	if err := r.Release(context.WithoutCancel(ctx)); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("cooldown release failed; reservation expires with its lease")
	}
}
