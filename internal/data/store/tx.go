package store

import (
	apperrors "amcli/internal/core/errors"
	"context"
	"database/sql"
)

// Tx is an open transaction on the store connection. A Tx that is never
// committed is rolled back by Rollback, which is safe to defer: after Commit
// it does nothing.
type Tx struct {
	db   *DB
	done bool
}

// Begin opens a transaction. Transactions do not nest; a second Begin while
// one is open fails with ErrTxActive.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return nil, err
	}
	if d.tx != nil {
		return nil, ErrTxActive
	}
	if _, err := d.conn.ExecContext(ctx, "BEGIN"); err != nil {
		return nil, apperrors.StorageFailure("begin transaction", err)
	}
	d.tx = &Tx{db: d}
	return d.tx, nil
}

func (t *Tx) check() error {
	if err := t.db.usable(); err != nil {
		return err
	}
	if t.done {
		return ErrTxDone
	}
	return nil
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.db.exec(ctx, query, args...)
}

func (t *Tx) ExecBatch(ctx context.Context, script string) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if err := t.check(); err != nil {
		return err
	}
	if _, err := t.db.conn.ExecContext(ctx, script); err != nil {
		return apperrors.StorageFailure("execute batch", err)
	}
	return nil
}

func (t *Tx) Query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if err := t.check(); err != nil {
		return err
	}
	return t.db.query(ctx, query, scan, args...)
}

func (t *Tx) QueryRow(ctx context.Context, query string, dest []any, args ...any) (bool, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if err := t.check(); err != nil {
		return false, err
	}
	return t.db.queryRow(ctx, query, dest, args...)
}

// Commit makes the transaction's changes durable. A failed commit leaves the
// transaction open so the deferred Rollback can discard it.
func (t *Tx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if err := t.check(); err != nil {
		return err
	}
	if _, err := t.db.conn.ExecContext(context.Background(), "COMMIT"); err != nil {
		return apperrors.StorageFailure("commit transaction", err)
	}
	t.finish()
	return nil
}

// Rollback discards the transaction. It is a no-op once the transaction has
// finished.
func (t *Tx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done || t.db.closed {
		return nil
	}
	_, err := t.db.conn.ExecContext(context.Background(), "ROLLBACK")
	t.finish()
	if err != nil {
		return apperrors.StorageFailure("rollback transaction", err)
	}
	return nil
}

func (t *Tx) finish() {
	t.done = true
	if t.db.tx == t {
		t.db.tx = nil
	}
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on an error or a panic; panics are re-raised.
func WithTx(ctx context.Context, db *DB, fn func(*Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
