// Package faketx is an inline TxRunner for service tests: Tx runs fn against itself
// and every Exec is recorded; Query and QueryRow are not supported
package faketx

import (
	"context"
	"errors"
	"sync"

	"arguxai/internal/platform/store"
)

// ErrUnsupported is returned by Query and QueryRow
var ErrUnsupported = errors.New("faketx: query not supported")

// Tx records transactions and statements
type Tx struct {
	mu    sync.Mutex
	execs []string
	txs   int

	// TxErr fails Tx before fn runs
	TxErr error
}

var _ store.TxRunner = (*Tx)(nil)

// New returns an empty recorder
func New() *Tx { return &Tx{} }

// Tx implements store.TxRunner
func (t *Tx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	t.mu.Lock()
	t.txs++
	err := t.TxErr
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(t)
}

// Exec implements store.RowQuerier
func (t *Tx) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.execs = append(t.execs, sql)
	return tag{}, nil
}

// Query implements store.RowQuerier
func (t *Tx) Query(context.Context, string, ...any) (store.Rows, error) { return nil, ErrUnsupported }

// QueryRow implements store.RowQuerier
func (t *Tx) QueryRow(context.Context, string, ...any) store.Row { return errRow{} }

// Txs is the number of transactions started
func (t *Tx) Txs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txs
}

// Execs returns a copy of the recorded statements
func (t *Tx) Execs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.execs...)
}

type tag struct{}

func (tag) String() string      { return "" }
func (tag) RowsAffected() int64 { return 0 }

type errRow struct{}

func (errRow) Scan(...any) error { return ErrUnsupported }
