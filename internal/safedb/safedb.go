// Package safedb wraps *sql.DB so that only context-aware methods are
// reachable. Every command runs as a short-lived process with a bounded
// deadline; hiding the context-free Query/Exec variants makes it a compile
// error to issue a query that ignores that deadline.
package safedb

import (
	"context"
	"database/sql"

	"github.com/FergusFettes/llm-head/internal/errs"
)

// DB wraps *sql.DB and exposes only context-aware methods.
type DB struct {
	db *sql.DB
}

// New wraps a *sql.DB in the safe wrapper.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

// QueryContext executes a query that returns rows.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	return rows, errs.Classify(err)
}

// QueryRowContext executes a query that returns at most one row. Lock
// contention surfaces from the deferred Scan; callers classify there.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes a query that doesn't return rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	return res, errs.Classify(err)
}

// BeginTx starts a transaction. The navigator runs every operation inside
// exactly one of these so a read-modify-write of the head can never
// interleave with a concurrent writer.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	return tx, errs.Classify(err)
}

// Raw returns the underlying *sql.DB for schema setup and migrations ONLY.
func (d *DB) Raw() *sql.DB {
	return d.db
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
