// Package evidence summarizes the recent events of a degraded step for diagnosis
package evidence

import (
	"math"
	"sort"

	"arguxai/internal/core/event"
)

// Limits on list sizes
const (
	MaxTopErrors  = 5
	MaxCountries  = 3
	MaxDevices    = 2
	MaxVersions   = 3
	MaxStruggling = 10
)

// Evidence is what the AI model sees besides the rates
type Evidence struct {
	TotalSessions      int            `json:"total_sessions"`
	ErrorTypes         map[string]int `json:"error_types"`
	TopErrors          []string       `json:"top_errors"`
	AvgRetryCount      *float64       `json:"avg_retry_count,omitempty"`
	AffectedCountries  []string       `json:"affected_countries"`
	AffectedDevices    []string       `json:"affected_devices"`
	AffectedVersions   []string       `json:"affected_versions"`
	StrugglingSessions []string       `json:"struggling_session_ids"`
}

type sessionStats struct {
	errored bool
	retries int
}

// Collect groups events by session. A session struggles when it hit an error or
// clicked resend at least twice. Segment lists are ordered by event count, ties by name.
func Collect(events []event.Event) Evidence {
	sorted := append([]event.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	ev := Evidence{ErrorTypes: map[string]int{}}
	sessions := map[string]*sessionStats{}
	var order []string
	countries, devices, versions := map[string]int{}, map[string]int{}, map[string]int{}
	seenMsg := map[string]bool{}

	for _, e := range sorted {
		st, ok := sessions[e.SessionID]
		if !ok {
			st = &sessionStats{}
			sessions[e.SessionID] = st
			order = append(order, e.SessionID)
		}

		switch e.Type {
		case event.Error:
			ev.ErrorTypes[orUnknown(e.ErrorType)]++
			if e.ErrorMessage != "" && !seenMsg[e.ErrorMessage] {
				seenMsg[e.ErrorMessage] = true
				ev.TopErrors = append(ev.TopErrors, e.ErrorMessage)
			}
			st.errored = true
		case event.ResendClick:
			st.retries++
		}

		countries[orUnknown(e.Country)]++
		devices[orUnknown(e.DeviceType)]++
		versions[orUnknown(e.AppVersion)]++
	}

	ev.TotalSessions = len(sessions)
	ev.TopErrors = head(ev.TopErrors, MaxTopErrors)
	ev.AffectedCountries = topKeys(countries, MaxCountries)
	ev.AffectedDevices = topKeys(devices, MaxDevices)
	ev.AffectedVersions = topKeys(versions, MaxVersions)

	retried, retries := 0, 0
	for _, sid := range order {
		st := sessions[sid]
		if st.retries > 0 {
			retried++
			retries += st.retries
		}
		if (st.errored || st.retries >= 2) && len(ev.StrugglingSessions) < MaxStruggling {
			ev.StrugglingSessions = append(ev.StrugglingSessions, sid)
		}
	}
	if retried > 0 {
		avg := math.Round(float64(retries)/float64(retried)*10) / 10
		ev.AvgRetryCount = &avg
	}
	return ev
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func head(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

func topKeys(m map[string]int, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return head(keys, n)
}
