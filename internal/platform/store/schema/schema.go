// Package schema holds the embedded DDL for the postgres tables and the clickhouse event mirror
package schema

import (
	"context"
	_ "embed"
	"strings"

	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/store"
)

//go:embed pg.sql
var pgDDL string

//go:embed ch.sql
var chDDL string

// Statements splits a DDL script on ';' dropping blank statements
func Statements(src string) []string {
	var out []string
	for _, s := range strings.Split(src, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PG returns the postgres statements in order
func PG() []string { return Statements(pgDDL) }

// CH returns the clickhouse statements in order
func CH() []string { return Statements(chDDL) }

// ApplyPG runs every postgres statement inside one transaction; all are idempotent
func ApplyPG(ctx context.Context, tx store.TxRunner) error {
	return tx.Tx(ctx, func(q store.RowQuerier) error {
		for i, stmt := range PG() {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return perr.FromPostgresf(err, "apply pg schema statement %d", i+1)
			}
		}
		return nil
	})
}

// ApplyCH creates the clickhouse mirror table; a nil seam is a no-op
func ApplyCH(ctx context.Context, c store.Clickhouse) error {
	if c == nil {
		return nil
	}
	for i, stmt := range CH() {
		if err := c.Exec(ctx, stmt); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "apply ch schema statement %d", i+1)
		}
	}
	return nil
}
