package store

import (
	"context"
	"errors"
	"testing"

	perr "arguxai/internal/platform/errors"
)

type issueRow struct {
	ID   string
	Step string
}

func scanIssue(r Row) (issueRow, error) {
	var x issueRow
	err := r.Scan(&x.ID, &x.Step)
	return x, err
}

func TestExecOne(t *testing.T) {
	ctx := context.Background()
	if err := ExecOne(ctx, &fakeQ{affected: 1}, "UPDATE issues SET status='resolved'"); err != nil {
		t.Fatalf("one row: %v", err)
	}
	if err := ExecOne(ctx, &fakeQ{affected: 0}, "UPDATE"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("zero rows should be not found, got %v", err)
	}
	if err := ExecOne(ctx, &fakeQ{affected: 3}, "UPDATE"); err == nil {
		t.Fatalf("three rows should error")
	}
	boom := errors.New("boom")
	if err := ExecOne(ctx, &fakeQ{err: boom}, "UPDATE"); !errors.Is(err, boom) {
		t.Fatalf("exec error lost: %v", err)
	}
}

func TestScalar(t *testing.T) {
	q := &fakeQ{rows: newMemRows([]string{"count"}, []any{int64(42)})}
	n, err := Scalar[int64](context.Background(), q, "SELECT count(*) FROM events")
	if err != nil || n != 42 {
		t.Fatalf("Scalar = %d, %v", n, err)
	}
}

func TestOne(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "funnel_step"}

	got, err := One(ctx, &fakeQ{rows: newMemRows(cols, []any{"issue_1_loginform", "login_form"})}, scanIssue, "SELECT")
	if err != nil || got.Step != "login_form" {
		t.Fatalf("One = %+v, %v", got, err)
	}

	if _, err := One(ctx, &fakeQ{rows: newMemRows(cols)}, scanIssue, "SELECT"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("empty should be not found, got %v", err)
	}

	two := newMemRows(cols, []any{"a", "x"}, []any{"b", "y"})
	if _, err := One(ctx, &fakeQ{rows: two}, scanIssue, "SELECT"); err == nil {
		t.Fatalf("two rows should error")
	}
	if !two.closed {
		t.Fatalf("rows not closed")
	}
}

func TestMany(t *testing.T) {
	ctx := context.Background()
	rows := newMemRows([]string{"id", "funnel_step"}, []any{"a", "login_page"}, []any{"b", "login_form"})
	got, err := Many(ctx, &fakeQ{rows: rows}, scanIssue, "SELECT")
	if err != nil || len(got) != 2 || got[1].ID != "b" {
		t.Fatalf("Many = %+v, %v", got, err)
	}

	bad := newMemRows(nil)
	bad.err = errors.New("stream broke")
	if _, err := Many(ctx, &fakeQ{rows: bad}, scanIssue, "SELECT"); err == nil {
		t.Fatalf("rows error should surface")
	}
}
