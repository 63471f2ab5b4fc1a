// Package repo provides the postgres funnel catalog
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arguxai/internal/core/event"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/store"
	pstrings "arguxai/internal/platform/strings"
	"arguxai/internal/services/funnels/domain"
)

// binder implements repokit.Binder[domain.StorageRepo]
type binder struct{}

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

type pg struct{ q repokit.Queryer }

// Insert writes the funnel row and its steps; run it inside a tx
func (s *pg) Insert(ctx context.Context, f domain.Funnel) error {
	const q = `INSERT INTO funnels (id, name, description, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`
	if _, err := s.q.Exec(ctx, q, f.ID, f.Name, pstrings.SQLNull(f.Description), f.CreatedAt, f.UpdatedAt); err != nil {
		return perr.FromPostgresf(err, "insert funnel %s", f.Name)
	}
	if len(f.Steps) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO funnel_steps (funnel_id, position, name, event_type) VALUES `)
	args := make([]any, 0, len(f.Steps)*4)
	for i, st := range f.Steps {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*4 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d)", base, base+1, base+2, base+3)
		args = append(args, f.ID, st.Order, st.Name, string(st.EventType))
	}
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return perr.FromPostgresf(err, "insert steps of funnel %s", f.Name)
}

const selectFunnels = `
	SELECT f.id::text, f.name, f.description, f.created_at, f.updated_at,
		s.position, s.name, s.event_type
	FROM funnels f
	LEFT JOIN funnel_steps s ON s.funnel_id = f.id`

// Get returns one funnel with its steps
func (s *pg) Get(ctx context.Context, id string) (domain.Funnel, error) {
	rows, err := s.q.Query(ctx, selectFunnels+` WHERE f.id = $1 ORDER BY s.position`, id)
	if err != nil {
		return domain.Funnel{}, perr.FromPostgres(err, "get funnel")
	}
	fs, err := group(rows)
	if err != nil {
		return domain.Funnel{}, err
	}
	if len(fs) == 0 {
		return domain.Funnel{}, perr.NotFoundf("funnel %s not found", id)
	}
	return fs[0], nil
}

// List returns every funnel, oldest first
func (s *pg) List(ctx context.Context) ([]domain.Funnel, error) {
	rows, err := s.q.Query(ctx, selectFunnels+` ORDER BY f.created_at, f.id, s.position`)
	if err != nil {
		return nil, perr.FromPostgres(err, "list funnels")
	}
	return group(rows)
}

// Delete removes a funnel; steps cascade
func (s *pg) Delete(ctx context.Context, id string) error {
	err := store.ExecOne(ctx, s.q, `DELETE FROM funnels WHERE id = $1`, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("funnel %s not found", id)
	}
	return perr.FromPostgres(err, "delete funnel")
}

// Count returns the number of funnels
func (s *pg) Count(ctx context.Context) (int, error) {
	n, err := store.Scalar[int64](ctx, s.q, `SELECT count(*) FROM funnels`)
	return int(n), perr.FromPostgres(err, "count funnels")
}

// group folds joined rows, already ordered by funnel then position, into funnels
func group(rows repokit.Rows) ([]domain.Funnel, error) {
	defer rows.Close()
	var out []domain.Funnel
	for rows.Next() {
		var (
			f          domain.Funnel
			desc       *string
			created    time.Time
			updated    time.Time
			pos        *int
			name, kind *string
		)
		if err := rows.Scan(&f.ID, &f.Name, &desc, &created, &updated, &pos, &name, &kind); err != nil {
			return nil, perr.FromPostgres(err, "scan funnel")
		}
		if n := len(out); n == 0 || out[n-1].ID != f.ID {
			f.Description = pstrings.Deref(desc)
			f.CreatedAt, f.UpdatedAt = created.UTC(), updated.UTC()
			f.Steps = []domain.Step{}
			out = append(out, f)
		}
		if pos != nil {
			last := &out[len(out)-1]
			last.Steps = append(last.Steps, domain.Step{
				Name: pstrings.Deref(name), EventType: event.Type(pstrings.Deref(kind)), Order: *pos,
			})
		}
	}
	return out, perr.FromPostgres(rows.Err(), "iterate funnels")
}
