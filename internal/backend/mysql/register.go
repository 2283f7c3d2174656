// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"strconv"

	driver "github.com/go-sql-driver/mysql"

	"github.com/quadrel-dev/quadrel/internal/backend"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// errBadDB is ER_BAD_DB_ERROR, "Unknown database".
const errBadDB = 1049

func init() {
	backend.Register("mysql", New)
}

// DriverConfig converts store configuration into a driver configuration.
func DriverConfig(cfg backend.Config) *driver.Config {
	dc := driver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	dc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	dc.DBName = cfg.Name
	dc.AllowNativePasswords = true
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc
}

// New returns an unconnected MySQL adapter. A missing database is created on
// first connect.
func New(cfg backend.Config) (backend.Adapter, error) {
	if cfg.Name == "" {
		return nil, quadrelerr.New(quadrelerr.CodeConfigValidateInvalidValue, "mysql adapter requires db_name")
	}
	dc := DriverConfig(cfg)
	db := backend.NewDB("mysql", dc.FormatDSN(), cfg.Name, Dialect{})
	db.OnConnectError = func(ctx context.Context, err error) (*sql.DB, error) {
		return createDatabase(ctx, dc, err)
	}
	return db, nil
}

func createDatabase(ctx context.Context, dc *driver.Config, cause error) (*sql.DB, error) {
	var myErr *driver.MySQLError
	if !errors.As(cause, &myErr) || myErr.Number != errBadDB {
		return nil, cause
	}

	bare := dc.Clone()
	bare.DBName = ""
	server, err := sql.Open("mysql", bare.FormatDSN())
	if err != nil {
		return nil, err
	}
	defer func() { _ = server.Close() }()

	slog.Info("creating missing database", "database", dc.DBName)
	if _, err := server.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS `"+dc.DBName+"`"); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dc.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
