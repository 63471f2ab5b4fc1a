package net

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("empty ctx = %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Fatalf("RequestID = %q", got)
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatalf("blank id should return ctx unchanged")
	}
}
