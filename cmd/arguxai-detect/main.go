// arguxai-detect runs the detection cycle on a schedule, or once with -once
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arguxai/internal/core/version"
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/module"
	"arguxai/internal/modkit/repokit"
	"arguxai/internal/platform/config"
	"arguxai/internal/platform/logger"
	"arguxai/internal/platform/store"
	"arguxai/internal/platform/store/schema"
	detectdom "arguxai/internal/services/detect/domain"
	detectmod "arguxai/internal/services/detect/module"
	"arguxai/internal/services/graph"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	var (
		once    = flag.Bool("once", false, "run a single cycle, print the report and exit")
		migrate = flag.Bool("migrate", false, "apply the embedded schema before starting")
	)
	flag.Parse()

	version.SetService("arguxai-detect")
	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "arguxai-detect", "detect"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	boot := root.Prefix("CORE_STARTUP_")
	if err := repokit.WaitReady(ctx, st, boot.MayInt("ATTEMPTS", 10), boot.MayDuration("BACKOFF", 3*time.Second)); err != nil {
		l.Fatal().Err(err).Msg("backends unavailable")
	}

	if *migrate {
		if err := schema.ApplyPG(ctx, st.PG); err != nil {
			l.Fatal().Err(err).Msg("postgres schema")
		}
		if err := schema.ApplyCH(ctx, st.CH); err != nil {
			l.Fatal().Err(err).Msg("clickhouse schema")
		}
	}

	g, err := graph.Build(modkit.FromStore(st, root))
	if err != nil {
		l.Fatal().Err(err).Msg("invalid detector configuration")
	}
	if err := g.Bootstrap(ctx); err != nil {
		l.Fatal().Err(err).Msg("bootstrap failed")
	}

	if *once {
		runner := module.MustPortsOf[detectmod.Ports](g.Detect).Runner
		rep, err := runner.RunCycle(ctx, detectdom.TriggerManual)
		g.Detect.Wait()
		if err != nil {
			l.Fatal().Err(err).Msg("detection cycle failed")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		return
	}

	if err := g.Detect.Run(ctx); err != nil {
		l.Error().Err(err).Msg("scheduler stopped")
	}
}
