package store

import (
	apperrors "amcli/internal/core/errors"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	driverName = "sqlite"

	DefaultBusyTimeout  = 5 * time.Second
	DefaultCacheSizeKiB = 64000
)

var (
	ErrClosed   = errors.New("store is closed")
	ErrTxActive = errors.New("a transaction is already open on this connection")
	ErrTxDone   = errors.New("transaction has already been committed or rolled back")
)

type Options struct {
	BusyTimeout  time.Duration
	CacheSizeKiB int
}

func (o Options) withDefaults() Options {
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = DefaultBusyTimeout
	}
	if o.CacheSizeKiB <= 0 {
		o.CacheSizeKiB = DefaultCacheSizeKiB
	}
	return o
}

// DB owns the single connection to the local store. Every call holds mu for
// its own duration only; callers never see the lock.
type DB struct {
	path  string
	sqlDB *sql.DB
	conn  *sql.Conn

	mu     sync.Mutex
	closed bool
	tx     *Tx
}

// Open creates the store file and its parent directory when missing and
// configures the connection for a single local writer.
func Open(ctx context.Context, path string, opts Options) (*DB, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, apperrors.StorageUnavailable(path, fmt.Errorf("store path must not be empty"))
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, apperrors.StorageUnavailable(cleanPath, fmt.Errorf("store path %q is a directory, expected file", cleanPath))
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.StorageUnavailable(cleanPath, fmt.Errorf("create store directory %q: %w", dir, err))
		}
	}

	opts = opts.withDefaults()
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-%d)&_pragma=foreign_keys(ON)",
		(&url.URL{Path: cleanPath}).EscapedPath(), opts.BusyTimeout.Milliseconds(), opts.CacheSizeKiB,
	)
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, apperrors.StorageUnavailable(cleanPath, fmt.Errorf("open sqlite store: %w", err))
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, apperrors.StorageUnavailable(cleanPath, fmt.Errorf("connect sqlite store: %w", err))
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = sqlDB.Close()
		return nil, apperrors.StorageUnavailable(cleanPath, fmt.Errorf("ping sqlite store: %w", err))
	}

	return &DB{path: cleanPath, sqlDB: sqlDB, conn: conn}, nil
}

func (d *DB) Path() string {
	return d.path
}

func (d *DB) usable() error {
	if d == nil || d.closed {
		path := ""
		if d != nil {
			path = d.path
		}
		return apperrors.StorageUnavailable(path, ErrClosed)
	}
	return nil
}

// Exec runs a single statement and reports the affected row count.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return 0, err
	}
	return d.exec(ctx, query, args...)
}

// ExecBatch runs a script of semicolon separated statements.
func (d *DB) ExecBatch(ctx context.Context, script string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if _, err := d.conn.ExecContext(ctx, script); err != nil {
		return apperrors.StorageFailure("execute batch", err)
	}
	return nil
}

// Query calls scan once per result row.
func (d *DB) Query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.query(ctx, query, scan, args...)
}

// QueryRow scans the first row of the result. It reports false without an
// error when the query matches nothing.
func (d *DB) QueryRow(ctx context.Context, query string, dest []any, args ...any) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return false, err
	}
	return d.queryRow(ctx, query, dest, args...)
}

// Prepare compiles a statement bound to the store connection.
func (d *DB) Prepare(ctx context.Context, query string) (*Stmt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return nil, err
	}
	stmt, err := d.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, apperrors.StorageFailure("prepare statement", err)
	}
	return &Stmt{db: d, stmt: stmt}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if err := d.conn.PingContext(ctx); err != nil {
		return apperrors.StorageUnavailable(d.path, err)
	}
	return nil
}

// Close rolls back any open transaction and releases the connection. Calls
// made afterwards fail with ErrClosed.
func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	if d.tx != nil {
		_, _ = d.conn.ExecContext(context.Background(), "ROLLBACK")
		d.tx.done = true
		d.tx = nil
	}
	connErr := d.conn.Close()
	dbErr := d.sqlDB.Close()
	if err := errors.Join(connErr, dbErr); err != nil {
		return apperrors.StorageFailure("close store", err)
	}
	return nil
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.StorageFailure("execute statement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.StorageFailure("read affected rows", err)
	}
	return n, nil
}

func (d *DB) query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.StorageFailure("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return apperrors.StorageFailure("scan row", err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.StorageFailure("iterate rows", err)
	}
	return nil
}

func (d *DB) queryRow(ctx context.Context, query string, dest []any, args ...any) (bool, error) {
	err := d.conn.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.StorageFailure("query row", err)
	}
	return true, nil
}

// Stmt is a prepared statement that shares the store lock.
type Stmt struct {
	db   *DB
	stmt *sql.Stmt
}

func (s *Stmt) Exec(ctx context.Context, args ...any) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.usable(); err != nil {
		return 0, err
	}
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, apperrors.StorageFailure("execute prepared statement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.StorageFailure("read affected rows", err)
	}
	return n, nil
}

func (s *Stmt) Query(ctx context.Context, scan func(*sql.Rows) error, args ...any) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.usable(); err != nil {
		return err
	}
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return apperrors.StorageFailure("query prepared statement", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return apperrors.StorageFailure("scan row", err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.StorageFailure("iterate rows", err)
	}
	return nil
}

func (s *Stmt) Close() error {
	return s.stmt.Close()
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Remove deletes the store file together with its journal side files.
func Remove(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %q: %w", p, err)
		}
	}
	return nil
}
