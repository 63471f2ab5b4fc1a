package repo

import (
	"context"
	"encoding/json"
	"time"

	"arguxai/internal/core/event"
	"arguxai/internal/modkit/repokit"
	perr "arguxai/internal/platform/errors"
	ptime "arguxai/internal/platform/time"
	"arguxai/internal/services/events/domain"

	"github.com/google/uuid"
)

// Table is the clickhouse mirror table
const Table = "events"

// NewCH returns the clickhouse mirror; nil seam gives nil so callers can skip it
func NewCH(c repokit.Clickhouse) domain.MirrorRepo {
	if c == nil {
		return nil
	}
	return &ch{c: c}
}

type ch struct{ c repokit.Clickhouse }

// Insert appends positional rows in table column order
func (s *ch) Insert(ctx context.Context, xs []event.Event) error {
	if len(xs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(xs))
	for _, e := range xs {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return perr.InvalidArgf("event id %q: %v", e.ID, err)
		}
		props := ""
		if b, err := marshalProps(e.Properties); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "encode event properties")
		} else if b != nil {
			props = string(b)
		}
		rows = append(rows, []any{
			id, string(e.Type), e.SessionID, e.UserID, e.Time(), e.FunnelStep,
			e.DeviceType, e.Country, e.AppVersion, e.ErrorType, e.ErrorMessage, props,
		})
	}
	if err := s.c.Insert(ctx, Table, rows); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "clickhouse insert events")
	}
	return nil
}

// InWindow mirrors the postgres query; slices bind as IN lists
func (s *ch) InWindow(ctx context.Context, steps []string, start, end time.Time) ([]event.Event, error) {
	const q = `
		SELECT toString(id), event_type, session_id, user_id, ts, funnel_step,
			device_type, country, app_version, error_type, error_message, properties
		FROM events
		WHERE funnel_step IN (?) AND ts >= ? AND ts < ?
		ORDER BY ts, id`
	rows, err := s.c.Query(ctx, q, steps, start, end)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "clickhouse events in window")
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			e     event.Event
			typ   string
			ts    time.Time
			props string
		)
		if err := rows.Scan(&e.ID, &typ, &e.SessionID, &e.UserID, &ts, &e.FunnelStep,
			&e.DeviceType, &e.Country, &e.AppVersion, &e.ErrorType, &e.ErrorMessage, &props); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "clickhouse scan event")
		}
		e.Type = event.Type(typ)
		e.Timestamp = ptime.Millis(ts)
		if props != "" {
			if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
				return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode event properties")
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "clickhouse iterate events")
	}
	return out, nil
}
