// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package backend

import (
	"context"
	"database/sql"
	"sync"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Compile-time interface check.
var _ Adapter = (*DB)(nil)

// DB is an Adapter over database/sql. Driver packages construct it with their
// driver name, DSN and Dialect.
//
// The pool is pinned to a single connection: table locks and advisory locks
// are connection-scoped on some backends, and every statement of a store has
// to observe them.
type DB struct {
	driver  string
	dsn     string
	dbName  string
	dialect Dialect

	// OnConnectError lets a driver recover from a failed first connection,
	// e.g. by creating a missing database. It returns a replacement handle.
	OnConnectError func(ctx context.Context, err error) (*sql.DB, error)

	mu      sync.Mutex
	db      *sql.DB
	lastErr error
}

// NewDB returns an unconnected adapter.
func NewDB(driver, dsn, dbName string, dialect Dialect) *DB {
	return &DB{driver: driver, dsn: dsn, dbName: dbName, dialect: dialect}
}

// NewDBWithConn wraps an existing handle. Connect becomes a no-op.
func NewDBWithConn(db *sql.DB, dbName string, dialect Dialect) *DB {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &DB{db: db, dbName: dbName, dialect: dialect}
}

// Connect opens and verifies the connection when none exists yet.
func (d *DB) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return nil
	}

	db, err := sql.Open(d.driver, d.dsn)
	if err != nil {
		return quadrelerr.Errorf(quadrelerr.CodeBackendConnectFailure, "opening %s connection: %w", d.driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if d.OnConnectError == nil {
			return quadrelerr.Errorf(quadrelerr.CodeBackendConnectFailure, "connecting to %s: %w", d.driver, err)
		}
		db, err = d.OnConnectError(ctx, err)
		if err != nil {
			return quadrelerr.Errorf(quadrelerr.CodeBackendConnectFailure, "connecting to %s: %w", d.driver, err)
		}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	d.db = db
	return nil
}

// Close closes the underlying handle.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Handle returns the underlying handle, connecting first if needed.
func (d *DB) Handle(ctx context.Context) (*sql.DB, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db, nil
}

func (d *DB) Escape(value string) string { return d.dialect.Escape(value) }
func (d *DB) DialectName() string        { return d.dialect.Name() }
func (d *DB) DatabaseName() string       { return d.dbName }
func (d *DB) Dialect() Dialect           { return d.dialect }

func (d *DB) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

func (d *DB) record(err error) {
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
}

// Exec runs a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, stmt string, args ...any) (Result, error) {
	db, err := d.Handle(ctx)
	if err != nil {
		return Result{}, err
	}

	res, err := db.ExecContext(ctx, stmt, args...)
	d.record(err)
	if err != nil {
		return Result{}, quadrelerr.Wrap(err, quadrelerr.CodeBackendExecFailure, "executing statement",
			quadrelerr.Field("statement", stmt))
	}

	var out Result
	// Not every driver reports both values; missing ones stay zero.
	out.RowsAffected, _ = res.RowsAffected()
	out.LastInsertID, _ = res.LastInsertId()
	return out, nil
}

// FetchRows runs a query and collects every row.
func (d *DB) FetchRows(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	db, err := d.Handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	d.record(err)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeBackendQueryFailure, "running query",
			quadrelerr.Field("statement", stmt))
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeBackendQueryFailure, "reading columns")
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			d.record(err)
			return nil, quadrelerr.Wrap(err, quadrelerr.CodeBackendQueryFailure, "scanning row")
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		d.record(err)
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeBackendQueryFailure, "iterating rows")
	}
	return out, nil
}

// FetchRow returns the first row of a query, or nil.
func (d *DB) FetchRow(ctx context.Context, stmt string, args ...any) (Row, error) {
	rows, err := d.FetchRows(ctx, stmt, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// RowCount returns the number of rows a query yields.
func (d *DB) RowCount(ctx context.Context, stmt string, args ...any) (int64, error) {
	rows, err := d.FetchRows(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// ServerInfo returns the backend's version string.
func (d *DB) ServerInfo(ctx context.Context) (string, error) {
	row, err := d.FetchRow(ctx, d.dialect.VersionQuery())
	if err != nil {
		return "", err
	}
	return row.String("version"), nil
}
