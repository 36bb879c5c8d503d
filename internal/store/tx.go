package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
)

// InLearnerTx runs fn inside a transaction serialized per learner by the
// database itself, so it also holds across processes sharing the store.
//
// On SQLite every transaction begins IMMEDIATE (see withPragmas) and takes
// the database write lock, which covers any learner. On Postgres a
// transaction-scoped advisory lock keyed on the learner id serializes only
// that learner's transactions.
func (s *Store) InLearnerTx(ctx context.Context, learnerID string, fn func(ctx context.Context, r Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin learner tx", err)
	}

	if s.dialect == dialect.Postgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, learnerID); err != nil {
			tx.Rollback()
			return wrap("lock learner", err)
		}
	}

	if err := fn(ctx, &repo{q: tx, dialect: s.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap("commit learner tx", err)
	}
	return nil
}
