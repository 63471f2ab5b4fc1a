package rds

import (
	"context"
	"testing"
)

func TestOpenRequiresAddr(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestOpenFailsWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Open(ctx, Config{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected ping failure")
	}
}
