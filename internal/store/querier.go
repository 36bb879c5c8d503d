package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// querier is satisfied by *sql.DB and *sql.Tx, so repo code runs the same
// inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querySource is anything the ent builders can render.
type querySource interface {
	Query() (string, []any)
}

type repo struct {
	q       querier
	dialect string
}

func (r *repo) sql() *entsql.DialectBuilder {
	return entsql.Dialect(r.dialect)
}

func (r *repo) exec(ctx context.Context, b querySource) (sql.Result, error) {
	query, args := b.Query()
	return r.q.ExecContext(ctx, query, args...)
}

func (r *repo) query(ctx context.Context, b querySource) (*sql.Rows, error) {
	query, args := b.Query()
	return r.q.QueryContext(ctx, query, args...)
}

func (r *repo) queryRow(ctx context.Context, b querySource) *sql.Row {
	query, args := b.Query()
	return r.q.QueryRowContext(ctx, query, args...)
}

// atomically runs fn in a transaction unless r already is one.
func (r *repo) atomically(ctx context.Context, fn func(r *repo) error) error {
	db, ok := r.q.(*sql.DB)
	if !ok {
		return fn(r)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&repo{q: tx, dialect: r.dialect}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func anys[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
