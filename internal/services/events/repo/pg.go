// Package repo provides the postgres and clickhouse event repositories
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arguxai/internal/core/event"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	pstrings "arguxai/internal/platform/strings"
	ptime "arguxai/internal/platform/time"
	"arguxai/internal/services/events/domain"
)

// binder implements repokit.Binder[domain.StorageRepo]
type binder struct{}

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

type pg struct{ q repokit.Queryer }

const eventCols = `id::text, event_type, session_id, user_id, ts, funnel_step,
	device_type, country, app_version, error_type, error_message, properties`

const insertArity = 12

// Insert writes xs in one multi row statement; ids must already be set
func (s *pg) Insert(ctx context.Context, xs []event.Event) error {
	if len(xs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO events
		(id, event_type, session_id, user_id, ts, funnel_step,
		 device_type, country, app_version, error_type, error_message, properties)
		VALUES `)
	args := make([]any, 0, len(xs)*insertArity)
	for i, e := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*insertArity + 1
		sb.WriteByte('(')
		for k := 0; k < insertArity; k++ {
			if k > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", base+k)
		}
		sb.WriteByte(')')

		props, err := marshalProps(e.Properties)
		if err != nil {
			return perr.WithField(perr.Wrapf(err, perr.ErrorCodeJSON, "event %d properties", i), "properties")
		}
		args = append(args,
			e.ID, string(e.Type), e.SessionID, pstrings.SQLNull(e.UserID), e.Time(), e.FunnelStep,
			e.DeviceType, e.Country, e.AppVersion, pstrings.SQLNull(e.ErrorType), pstrings.SQLNull(e.ErrorMessage), props,
		)
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)
	_, err := s.q.Exec(ctx, sb.String(), args...)
	return perr.FromPostgres(err, "insert events")
}

// InWindow returns events on steps with start <= ts < end ordered by ts
func (s *pg) InWindow(ctx context.Context, steps []string, start, end time.Time) ([]event.Event, error) {
	q := `SELECT ` + eventCols + `
		FROM events
		WHERE funnel_step = ANY($1) AND ts >= $2 AND ts < $3
		ORDER BY ts, id`
	rows, err := s.q.Query(ctx, q, steps, start, end)
	if err != nil {
		return nil, perr.FromPostgres(err, "events in window")
	}
	return collect(rows)
}

// Recent returns the newest events; a blank step matches all
func (s *pg) Recent(ctx context.Context, step string, limit int) ([]event.Event, error) {
	q := `SELECT ` + eventCols + `
		FROM events
		WHERE ($1 = '' OR funnel_step = $1)
		ORDER BY ts DESC, id
		LIMIT $2`
	rows, err := s.q.Query(ctx, q, step, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "recent events")
	}
	return collect(rows)
}

func collect(rows repokit.Rows) ([]event.Event, error) {
	defer rows.Close()
	var out []event.Event
	for rows.Next() {
		var (
			e                           event.Event
			typ                         string
			ts                          time.Time
			userID, errType, errMessage *string
			props                       []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.SessionID, &userID, &ts, &e.FunnelStep,
			&e.DeviceType, &e.Country, &e.AppVersion, &errType, &errMessage, &props); err != nil {
			return nil, perr.FromPostgres(err, "scan event")
		}
		e.Type = event.Type(typ)
		e.Timestamp = ptime.Millis(ts)
		e.UserID = pstrings.Deref(userID)
		e.ErrorType = pstrings.Deref(errType)
		e.ErrorMessage = pstrings.Deref(errMessage)
		if len(props) > 0 {
			if err := json.Unmarshal(props, &e.Properties); err != nil {
				return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode event properties")
			}
		}
		out = append(out, e)
	}
	return out, perr.FromPostgres(rows.Err(), "iterate events")
}

func marshalProps(p map[string]any) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return json.Marshal(p)
}
