// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quadrel-dev/quadrel/internal/backend"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func init() {
	backend.Register("sqlite", New)
}

// DSN returns the connection string used for a database file.
func DSN(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// New returns an unconnected SQLite adapter for cfg.Path.
func New(cfg backend.Config) (backend.Adapter, error) {
	if cfg.Path == "" {
		return nil, quadrelerr.New(quadrelerr.CodeConfigValidateInvalidValue, "sqlite adapter requires db_path")
	}
	name := cfg.Name
	if name == "" {
		name = "main"
	}
	return backend.NewDB("sqlite3", DSN(cfg.Path), name, Dialect{Lease: cfg.LockLease}), nil
}

// NewWithConn wraps an already opened SQLite handle.
func NewWithConn(db *sql.DB) backend.Adapter {
	return backend.NewDBWithConn(db, "main", Dialect{})
}
