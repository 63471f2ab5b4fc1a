//go:build integration_pg

// Package pgtc starts a throwaway postgres container for repository integration tests
package pgtc

import (
	"context"
	"fmt"
	"testing"
	"time"

	"arguxai/internal/platform/store"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Start runs postgres:16-alpine and returns its DSN; the container stops on test cleanup
func Start(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "argux",
				"POSTGRES_PASSWORD": "argux",
				"POSTGRES_DB":       "arguxai",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://argux:argux@%s:%s/arguxai?sslmode=disable", host, port.Port())
}

// Open starts a container and returns a Store with PG enabled, closed on cleanup
func Open(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{
		AppName: "arguxai-it",
		PG:      store.PGConfig{Enabled: true, URL: Start(t), MaxConns: 4},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}
