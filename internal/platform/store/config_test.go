package store

import (
	"testing"

	"arguxai/internal/platform/config"
	kit "arguxai/internal/platform/testkit"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://localhost/arguxai")
	t.Setenv("SERVICE_REDIS_ENABLED", "true")
	t.Setenv("SERVICE_REDIS_ADDR", "redis:6379")

	cfg := FromEnv(config.New(), "arguxai-detect", "detect")
	if !cfg.PG.Enabled || cfg.PG.URL != "postgres://localhost/arguxai" || cfg.PG.MaxConns != 8 {
		t.Fatalf("pg = %+v", cfg.PG)
	}
	if cfg.CH.Enabled {
		t.Fatalf("clickhouse should be opt in")
	}
	if !cfg.RDS.Enabled || cfg.RDS.Addr != "redis:6379" {
		t.Fatalf("redis = %+v", cfg.RDS)
	}

	t.Setenv("SERVICE_CLICKHOUSE_ENABLED", "true")
	kit.MustPanic(t, func() { _ = FromEnv(config.New(), "arguxai-api", "api") })
}
