package postgres_test

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub implements postgres.PgxPool for tests. It stubs Exec and QueryRow
// behavior and records the last statement and args.

type poolStub struct {
	execErr  error
	execTag  pgconn.CommandTag
	row      rowStub
	lastSQL  string
	lastArgs []any
	execCnt  int
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execCnt++
	p.lastSQL = sql
	p.lastArgs = args
	return p.execTag, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.lastSQL = sql
	p.lastArgs = args
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func oneRowTag() pgconn.CommandTag { return pgconn.NewCommandTag("UPDATE 1") }

func pgxNoRows() error { return pgx.ErrNoRows }
