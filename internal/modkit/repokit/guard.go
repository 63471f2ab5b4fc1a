package repokit

import (
	"context"
	"time"

	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"
)

// Guarder pings the backends a process depends on
type Guarder interface {
	Guard(ctx context.Context) error
}

// WaitReady retries st.Guard up to attempts times, pausing every between tries.
// Each try gets its own short deadline; the last failure is returned as unavailable
func WaitReady(ctx context.Context, st Guarder, attempts int, every time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	log := logger.Named("guard")
	var err error
	for i := 1; i <= attempts; i++ {
		tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = st.Guard(tctx)
		cancel()
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("backends not ready")
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(every):
		}
	}
	return perr.Wrapf(err, perr.ErrorCodeUnavailable, "backends not ready after %d attempts", attempts)
}
