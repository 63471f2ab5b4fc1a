// Package service implements event ingestion and window reads
package service

import (
	"context"
	"time"

	"arguxai/internal/core/event"
	"arguxai/internal/core/window"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/metrics"
	"arguxai/internal/platform/net/http/bind"
	ptime "arguxai/internal/platform/time"
	"arguxai/internal/services/events/domain"

	"github.com/google/uuid"
)

// Config for the events service
type Config struct {
	// MaxBatch caps events per ingest call; defaults to 1000
	MaxBatch int
	// MaxFuture and MaxPast bound accepted timestamps around now
	MaxFuture time.Duration
	MaxPast   time.Duration
	// RecentLimit caps Recent; defaults to 500
	RecentLimit int
	// ReadTimeout is the statement timeout for window reads
	ReadTimeout time.Duration
}

// Service implements domain.IngestPort and domain.ReaderPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Mirror domain.MirrorRepo
	Clock  ptime.Clock
	Cfg    Config

	reads repokit.TxRunner
	log   *logger.Logger
}

// New constructs the events service; mirror may be nil
func New(db repokit.TxRunner, b repokit.Binder[domain.StorageRepo], mirror domain.MirrorRepo, clock ptime.Clock, cfg Config) *Service {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 1000
	}
	if cfg.MaxFuture <= 0 {
		cfg.MaxFuture = 24 * time.Hour
	}
	if cfg.MaxPast <= 0 {
		cfg.MaxPast = 30 * 24 * time.Hour
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 500
	}
	if clock == nil {
		clock = ptime.System{}
	}
	domain.RegisterValidation()
	return &Service{
		DB: db, Binder: b, Mirror: mirror, Clock: clock, Cfg: cfg,
		reads: repokit.WithBeginHooks(db, repokit.ReadCommittedReadOnly(), repokit.StatementTimeout(cfg.ReadTimeout)),
		log:   logger.Named("events"),
	}
}

// IngestBatch stores every valid event and rejects the rest individually.
// An empty or oversized batch is rejected as a whole
func (s *Service) IngestBatch(ctx context.Context, events []event.Event) (domain.IngestResult, error) {
	if len(events) == 0 {
		return domain.IngestResult{}, perr.WithField(perr.Validationf("batch must contain at least one event"), "events")
	}
	if len(events) > s.Cfg.MaxBatch {
		return domain.IngestResult{}, perr.WithField(
			perr.Validationf("batch of %d exceeds the limit of %d events", len(events), s.Cfg.MaxBatch), "events")
	}

	now := s.Clock.Now()
	res := domain.IngestResult{Rejected: []domain.Rejection{}}
	valid := make([]event.Event, 0, len(events))
	for i, e := range events {
		e = e.WithDefaults()
		if err := s.check(e, now); err != nil {
			pe, _ := perr.As(err)
			rj := domain.Rejection{Index: i, SessionID: e.SessionID, Reason: err.Error()}
			if pe != nil {
				rj.Field = pe.Field()
			}
			res.Rejected = append(res.Rejected, rj)
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		valid = append(valid, e)
	}
	metrics.EventsIngested.WithLabelValues("rejected").Add(float64(len(res.Rejected)))

	if len(valid) > 0 {
		err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).Insert(ctx, valid)
		})
		if err != nil {
			return domain.IngestResult{}, err
		}
		if s.Mirror != nil {
			if err := s.Mirror.Insert(ctx, valid); err != nil {
				// postgres is the source of truth; the mirror catches up on the next batch
				logger.C(ctx).Warn().Err(err).Int("events", len(valid)).Msg("clickhouse mirror insert failed")
			}
		}
	}

	res.Accepted = len(valid)
	res.IDs = make([]string, 0, len(valid))
	for _, e := range valid {
		res.IDs = append(res.IDs, e.ID)
	}
	metrics.EventsIngested.WithLabelValues("accepted").Add(float64(res.Accepted))
	logger.C(ctx).Debug().Int("accepted", res.Accepted).Int("rejected", len(res.Rejected)).Msg("event batch ingested")
	return res, nil
}

func (s *Service) check(e event.Event, now time.Time) error {
	if err := bind.Validate(e); err != nil {
		return err
	}
	ts := e.Time()
	switch {
	case ts.After(now.Add(s.Cfg.MaxFuture)):
		return perr.WithField(perr.Validationf("timestamp is more than %s in the future", s.Cfg.MaxFuture), "timestamp")
	case ts.Before(now.Add(-s.Cfg.MaxPast)):
		return perr.WithField(perr.Validationf("timestamp is more than %s in the past", s.Cfg.MaxPast), "timestamp")
	}
	return nil
}

// EventsInWindow reads from the clickhouse mirror when present, else postgres read committed
func (s *Service) EventsInWindow(ctx context.Context, w window.Window, steps ...string) ([]event.Event, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	if s.Mirror != nil {
		return s.Mirror.InWindow(ctx, steps, w.Start, w.End)
	}
	var out []event.Event
	err := s.reads.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).InWindow(ctx, steps, w.Start, w.End)
		return err
	})
	return out, err
}

// Recent returns up to limit newest events, clamped to RecentLimit
func (s *Service) Recent(ctx context.Context, step string, limit int) ([]event.Event, error) {
	if limit <= 0 || limit > s.Cfg.RecentLimit {
		limit = s.Cfg.RecentLimit
	}
	var out []event.Event
	err := s.reads.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).Recent(ctx, step, limit)
		return err
	})
	return out, err
}
