package store

import (
	"context"
	"errors"
	"reflect"
)

// memRows is an in-memory Rows over positional values
type memRows struct {
	cols   []string
	data   [][]any
	i      int
	err    error
	closed bool
}

func newMemRows(cols []string, data ...[]any) *memRows { return &memRows{cols: cols, data: data, i: -1} }

func (r *memRows) Next() bool {
	if r.err != nil {
		return false
	}
	r.i++
	return r.i < len(r.data)
}

func (r *memRows) Scan(dest ...any) error {
	if r.i < 0 || r.i >= len(r.data) {
		return errors.New("scan out of range")
	}
	row := r.data[r.i]
	if len(row) != len(dest) {
		return errors.New("dest len mismatch")
	}
	for k := range dest {
		reflect.ValueOf(dest[k]).Elem().Set(reflect.ValueOf(row[k]))
	}
	return nil
}

func (r *memRows) Err() error        { return r.err }
func (r *memRows) Close()            { r.closed = true }
func (r *memRows) Columns() []string { return r.cols }

type fakeTag int64

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRow struct{ rows *memRows }

func (r fakeRow) Scan(dest ...any) error {
	if !r.rows.Next() {
		return errors.New("no rows")
	}
	return r.rows.Scan(dest...)
}

// fakeQ is a RowQuerier that returns canned results and records statements
type fakeQ struct {
	rows     *memRows
	affected int64
	err      error
	sqls     []string
}

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return fakeTag(f.affected), f.err
}

func (f *fakeQ) Query(_ context.Context, sql string, _ ...any) (Rows, error) {
	f.sqls = append(f.sqls, sql)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeQ) QueryRow(_ context.Context, sql string, _ ...any) Row {
	f.sqls = append(f.sqls, sql)
	return fakeRow{rows: f.rows}
}
