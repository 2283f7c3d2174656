// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quadrel-dev/quadrel/internal/backend"
)

// Compile-time interface check.
var _ backend.Dialect = Dialect{}

// lockTable holds advisory locks; SQLite has no named-lock primitive.
// Each row carries the unix time its lease ends.
const lockTable = "quadrel_lock"

// Dialect is the SQLite flavour of backend.Dialect.
//
// SQLite ignores declared integer widths, but the declared type is kept so
// that the column type probe and widening behave as on other backends.
type Dialect struct {
	// Lease is how long an advisory lock stays taken without a release.
	// Zero means backend.DefaultLockLease.
	Lease time.Duration
	// Now replaces the clock in tests.
	Now func() time.Time
}

func (d Dialect) lease() time.Duration {
	if d.Lease <= 0 {
		return backend.DefaultLockLease
	}
	return d.Lease
}

func (d Dialect) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (Dialect) Name() string         { return "sqlite" }
func (Dialect) MinVersion() string   { return "03-07-11" }
func (Dialect) VersionQuery() string { return "SELECT sqlite_version() AS version" }

func (Dialect) Escape(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func idType(colType backend.ColumnType) string {
	if colType == backend.ColumnInt {
		return "INT"
	}
	return "MEDIUMINT"
}

func tableDDL(kind backend.TableKind, table string, colType backend.ColumnType) string {
	id := idType(colType)
	switch kind {
	case backend.KindTriple:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	t         %[2]s NOT NULL PRIMARY KEY,
	s         %[2]s NOT NULL,
	p         %[2]s NOT NULL,
	o         %[2]s NOT NULL,
	o_lang_dt %[2]s NOT NULL DEFAULT 0,
	s_type    TINYINT NOT NULL DEFAULT 0,
	o_type    TINYINT NOT NULL DEFAULT 0,
	misc      TINYINT NOT NULL DEFAULT 0
)`, table, id)
	case backend.KindG2T:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	g %[2]s NOT NULL,
	t %[2]s NOT NULL,
	UNIQUE (g, t)
)`, table, id)
	case backend.KindID2Val:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	misc     TINYINT NOT NULL DEFAULT 0,
	val      TEXT NOT NULL,
	val_type TINYINT NOT NULL DEFAULT 0
)`, table)
	case backend.KindS2Val, backend.KindO2Val:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	misc     TINYINT NOT NULL DEFAULT 0,
	val_hash BIGINT NOT NULL DEFAULT 0,
	val      TEXT NOT NULL
)`, table)
	case backend.KindSetting:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	k   CHAR(32) NOT NULL PRIMARY KEY,
	val TEXT NOT NULL
)`, table)
	}
	return ""
}

type index struct{ suffix, cols string }

func indexes(kind backend.TableKind) []index {
	switch kind {
	case backend.KindTriple:
		return []index{{"sp", "s, p"}, {"os", "o, s"}, {"po", "p, o"}}
	case backend.KindG2T:
		return []index{{"tg", "t, g"}}
	case backend.KindID2Val:
		return []index{{"v", "val"}}
	case backend.KindS2Val, backend.KindO2Val:
		return []index{{"vh", "val_hash"}, {"v", "val"}}
	}
	return nil
}

// Index names are database-global in SQLite, so they carry the table name.
func indexDDL(kind backend.TableKind, table string) []string {
	var stmts []string
	for _, ix := range indexes(kind) {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s ON %s (%s)", table, ix.suffix, table, ix.cols))
	}
	return stmts
}

func (Dialect) CreateTable(kind backend.TableKind, table string, colType backend.ColumnType) []string {
	return append([]string{tableDDL(kind, table, colType)}, indexDDL(kind, table)...)
}

// WidenTable rebuilds a table with INT id columns. The old table is dropped
// before the indexes are recreated so that index names stay free.
func (Dialect) WidenTable(kind backend.TableKind, table string) []string {
	if kind != backend.KindTriple && kind != backend.KindG2T {
		// Dictionary ids are INTEGER PRIMARY KEY, already 64-bit.
		return nil
	}
	narrow := table + "_narrow"
	return append([]string{
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", table, narrow),
		tableDDL(kind, table, backend.ColumnInt),
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", table, narrow),
		fmt.Sprintf("DROP TABLE %s", narrow),
	}, indexDDL(kind, table)...)
}

func (Dialect) DropTable(table string) string { return "DROP TABLE IF EXISTS " + table }
func (Dialect) Truncate(table string) string  { return "DELETE FROM " + table }

// RenameTable also moves the table's indexes to names derived from the new
// table name. SQLite keeps index names on rename, and a later store reusing
// the old name would otherwise find them taken.
func (Dialect) RenameTable(kind backend.TableKind, from, to string) []string {
	stmts := []string{fmt.Sprintf("ALTER TABLE %s RENAME TO %s", from, to)}
	for _, ix := range indexes(kind) {
		stmts = append(stmts, fmt.Sprintf("DROP INDEX IF EXISTS %s_%s", from, ix.suffix))
	}
	return append(stmts, indexDDL(kind, to)...)
}

func (Dialect) CopyIgnore(dst, src string) string {
	return fmt.Sprintf("INSERT OR IGNORE INTO %s SELECT * FROM %s", dst, src)
}

// BinaryEquals relies on SQLite's default BINARY collation.
func (Dialect) BinaryEquals(column string) string { return column + " = ?" }

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func (Dialect) ListTables(ctx context.Context, q backend.Querier, prefix string) ([]string, error) {
	rows, err := q.FetchRows(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ESCAPE '\' ORDER BY name`,
		likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.String("name"))
	}
	return names, nil
}

func (Dialect) Columns(ctx context.Context, q backend.Querier, table string) ([]backend.Column, error) {
	rows, err := q.FetchRows(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	cols := make([]backend.Column, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, backend.Column{Name: r.String("name"), Type: strings.ToLower(r.String("type"))})
	}
	return cols, nil
}

// AcquireLock inserts the lock row with a lease. A row whose lease has run
// out belongs to a holder that never released it and is taken over.
func (d Dialect) AcquireLock(ctx context.Context, q backend.Querier, name string) (bool, error) {
	if _, err := q.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+lockTable+` (
	name       TEXT NOT NULL PRIMARY KEY,
	expires_at INTEGER NOT NULL
)`); err != nil {
		return false, err
	}
	now := d.now()
	if _, err := q.Exec(ctx,
		`DELETE FROM `+lockTable+` WHERE name = ? AND expires_at <= ?`, name, now.Unix()); err != nil {
		return false, err
	}
	res, err := q.Exec(ctx,
		`INSERT OR IGNORE INTO `+lockTable+` (name, expires_at) VALUES (?, ?)`, name, now.Add(d.lease()).Unix())
	if err != nil {
		return false, err
	}
	return res.RowsAffected == 1, nil
}

func (Dialect) ReleaseLock(ctx context.Context, q backend.Querier, name string) error {
	_, err := q.Exec(ctx, `DELETE FROM `+lockTable+` WHERE name = ?`, name)
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return nil
	}
	return err
}

// LockTableWrite takes the database write lock; SQLite has no table locks.
func (Dialect) LockTableWrite(...string) string { return "BEGIN IMMEDIATE" }
func (Dialect) UnlockTables() string         { return "COMMIT" }

func (Dialect) Maintenance(op backend.MaintenanceOp, tables []string) []string {
	var stmts []string
	switch op {
	case backend.OpOptimize:
		for _, t := range tables {
			stmts = append(stmts, "ANALYZE "+t)
		}
	case backend.OpCheck:
		stmts = append(stmts, "PRAGMA integrity_check")
	case backend.OpRepair:
		for _, t := range tables {
			stmts = append(stmts, "REINDEX "+t)
		}
	}
	return stmts
}

func (Dialect) ProcessListQuery() string { return "" }
