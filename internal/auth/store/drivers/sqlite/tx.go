package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
)

// txStore scopes every repository to one sql.Tx.
type txStore struct {
	tx *sql.Tx
	q  *queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: newQueries(tx)}
}

func (t *txStore) Users() store.Users { return &usersRepo{q: t.q} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Ping reports whether the transaction is still usable.
func (t *txStore) Ping(ctx context.Context) error {
	var one int
	return t.tx.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

func (t *txStore) Tx(context.Context) (store.Tx, error) {
	return nil, store.ErrNestedTx
}

// WithTx runs fn inside the transaction already open, leaving commit to
// whoever started it.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

// Close leaves the outer database open; the owner commits or rolls back.
func (t *txStore) Close() error { return nil }

// ApplyMigrations is a no-op, the schema is migrated before any transaction.
func (t *txStore) ApplyMigrations() error { return nil }
