// arguxai-api serves event ingestion, the issue and funnel APIs and the manual detection trigger
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"arguxai/internal/core/version"
	"arguxai/internal/modkit"
	"arguxai/internal/modkit/repokit"
	"arguxai/internal/platform/config"
	"arguxai/internal/platform/logger"
	phttp "arguxai/internal/platform/net/http"
	"arguxai/internal/platform/store"
	"arguxai/internal/platform/store/schema"
	"arguxai/internal/services/api"
	"arguxai/internal/services/graph"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	migrate := flag.Bool("migrate", false, "apply the embedded schema before serving")
	flag.Parse()

	version.SetService("arguxai-api")
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "arguxai-api", "api"), store.WithLogger(*l))
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
		l.Info().Msg("schema applied")
	}

	deps := modkit.FromStore(st, root)
	g, err := graph.Build(deps)
	if err != nil {
		l.Fatal().Err(err).Msg("invalid detector configuration")
	}
	if err := g.Bootstrap(ctx); err != nil {
		l.Fatal().Err(err).Msg("bootstrap failed")
	}

	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), deps, g, api.Options{
		Config:         apiCfg,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
	})

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
	g.Detect.Wait()
}
