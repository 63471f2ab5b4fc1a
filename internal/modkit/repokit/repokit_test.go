package repokit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/store"
	kit "arguxai/internal/platform/testkit"
)

type recQ struct {
	sqls []string
	fail string
}

type tag struct{}

func (tag) String() string      { return "SET" }
func (tag) RowsAffected() int64 { return 0 }

func (r *recQ) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	r.sqls = append(r.sqls, sql)
	if r.fail != "" && strings.Contains(sql, r.fail) {
		return nil, errors.New("exec failed")
	}
	return tag{}, nil
}
func (r *recQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (r *recQ) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type recTx struct{ recQ }

func (t *recTx) Tx(_ context.Context, fn func(Queryer) error) error { return fn(&t.recQ) }

func TestBeginHooksRunInOrderBeforeFn(t *testing.T) {
	inner := &recTx{}
	tx := WithBeginHooks(inner, ReadCommittedReadOnly(), StatementTimeout(1500*time.Millisecond), StatementTimeout(0))

	err := WithTx(context.Background(), tx, func(q Queryer) error {
		_, err := q.Exec(context.Background(), "SELECT 1")
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	want := []string{
		"SET TRANSACTION ISOLATION LEVEL READ COMMITTED READ ONLY",
		"SET LOCAL statement_timeout = 1500",
		"SELECT 1",
	}
	if strings.Join(inner.sqls, "|") != strings.Join(want, "|") {
		t.Fatalf("sqls = %q", inner.sqls)
	}
}

func TestBeginHookErrorSkipsFn(t *testing.T) {
	inner := &recTx{recQ: recQ{fail: "statement_timeout"}}
	called := false
	err := WithBeginHooks(inner, StatementTimeout(time.Second)).Tx(context.Background(), func(Queryer) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("err = %v called = %v", err, called)
	}
}

type guardFunc func(context.Context) error

func (g guardFunc) Guard(ctx context.Context) error { return g(ctx) }

func TestWaitReady(t *testing.T) {
	calls := 0
	err := WaitReady(context.Background(), guardFunc(func(ctx context.Context) error {
		calls++
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		if calls < 3 {
			return errors.New("pg: starting")
		}
		return nil
	}), 5, time.Millisecond)
	if err != nil || calls != 3 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}

	calls = 0
	err = WaitReady(context.Background(), guardFunc(func(context.Context) error {
		calls++
		return errors.New("pg: down")
	}), 2, time.Millisecond)
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || calls != 2 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = WaitReady(ctx, guardFunc(func(context.Context) error { return errors.New("down") }), 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled err = %v", err)
	}
}

func TestMustBind(t *testing.T) {
	b := BindFunc[string](func(Queryer) string { return "bound" })
	if MustBind[string](b, &recQ{}) != "bound" {
		t.Fatalf("bind")
	}
	kit.MustPanic(t, func() { MustBind[string](b, nil) })
}
