// Package modkit provides module wiring and core deps
package modkit

import (
	"arguxai/internal/modkit/repokit"
	"arguxai/internal/platform/config"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/store"
	"arguxai/internal/platform/store/rds"
	ptime "arguxai/internal/platform/time"
)

// Deps holds core dependencies passed to modules
// CH and RDS are nil unless enabled; modules must check
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	PG    repokit.TxRunner
	CH    store.Clickhouse
	RDS   *rds.Client
	Clock ptime.Clock
}

// FromStore fills the store backed fields from an opened store
func FromStore(st *store.Store, cfg config.Conf) Deps {
	return Deps{
		Log:   st.Log,
		Cfg:   cfg,
		PG:    st.PG,
		CH:    st.CH,
		RDS:   st.RDS,
		Clock: ptime.System{},
	}
}

// Now reads the injected clock, falling back to the system clock
func (d Deps) Now() ptime.Clock {
	if d.Clock == nil {
		return ptime.System{}
	}
	return d.Clock
}
