// Package service implements the funnel catalog and the step list detection runs over
package service

import (
	"context"
	"sort"

	"arguxai/internal/core/conversion"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/net/http/bind"
	ptime "arguxai/internal/platform/time"
	evdomain "arguxai/internal/services/events/domain"
	"arguxai/internal/services/funnels/domain"

	"github.com/google/uuid"
)

// Service implements domain.CatalogPort and domain.StepsPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Clock  ptime.Clock
}

// New constructs the funnels service
func New(db repokit.TxRunner, b repokit.Binder[domain.StorageRepo], clock ptime.Clock) *Service {
	if clock == nil {
		clock = ptime.System{}
	}
	evdomain.RegisterValidation()
	return &Service{DB: db, Binder: b, Clock: clock}
}

// Create validates, normalizes step order to 1..n and stores the funnel
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (domain.Funnel, error) {
	if err := bind.Validate(in); err != nil {
		return domain.Funnel{}, err
	}
	steps, err := normalize(in.Steps)
	if err != nil {
		return domain.Funnel{}, err
	}

	now := s.Clock.Now()
	f := domain.Funnel{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Steps:       steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).Insert(ctx, f)
	})
	if err != nil {
		return domain.Funnel{}, err
	}
	logger.C(ctx).Info().Str("funnel_id", f.ID).Str("name", f.Name).Int("steps", len(steps)).Msg("funnel created")
	return f, nil
}

// normalize orders steps by Order (stable, so zero orders keep input order) and renumbers them
func normalize(in []domain.Step) ([]domain.Step, error) {
	steps := append([]domain.Step(nil), in...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	seen := make(map[string]struct{}, len(steps))
	for i := range steps {
		if _, dup := seen[steps[i].Name]; dup {
			return nil, perr.WithField(perr.Validationf("step %q appears twice", steps[i].Name), "steps")
		}
		seen[steps[i].Name] = struct{}{}
		steps[i].Order = i + 1
	}
	return steps, nil
}

// Get returns one funnel
func (s *Service) Get(ctx context.Context, id string) (domain.Funnel, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Funnel{}, perr.NotFoundf("funnel %s not found", id)
	}
	var f domain.Funnel
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		f, err = s.Binder.Bind(q).Get(ctx, id)
		return err
	})
	return f, err
}

// List returns every funnel
func (s *Service) List(ctx context.Context) ([]domain.Funnel, error) {
	var fs []domain.Funnel
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		fs, err = s.Binder.Bind(q).List(ctx)
		return err
	})
	return fs, err
}

// Delete removes a funnel
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return perr.NotFoundf("funnel %s not found", id)
	}
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).Delete(ctx, id)
	})
}

// Steps flattens every funnel into conversion steps. A step's denominator is the
// step before it; the first step counts its own sessions. A name shared by several
// funnels keeps the definition from the oldest one
func (s *Service) Steps(ctx context.Context) ([]conversion.Step, error) {
	fs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Flatten(fs), nil
}

// Flatten is Steps without the store
func Flatten(fs []domain.Funnel) []conversion.Step {
	var out []conversion.Step
	seen := make(map[string]struct{})
	for _, f := range fs {
		prev := ""
		for _, st := range f.Steps {
			if _, dup := seen[st.Name]; !dup {
				seen[st.Name] = struct{}{}
				out = append(out, conversion.Step{Name: st.Name, EventType: st.EventType, Entry: prev})
			}
			prev = st.Name
		}
	}
	return out
}

// SeedDefault stores the default login funnel when the catalog is empty
func (s *Service) SeedDefault(ctx context.Context) (bool, error) {
	var n int
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		n, err = s.Binder.Bind(q).Count(ctx)
		return err
	})
	if err != nil || n > 0 {
		return false, err
	}
	if _, err := s.Create(ctx, domain.DefaultLogin()); err != nil {
		return false, err
	}
	return true, nil
}
