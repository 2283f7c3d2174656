// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/backend"
)

// Compile-time interface check.
var _ backend.Dialect = Dialect{}

// Dialect is the MySQL/MariaDB flavour of backend.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

// MinVersion is the first release with multi-table UPDATE and JOIN support.
func (Dialect) MinVersion() string   { return "04-00-04" }
func (Dialect) VersionQuery() string { return "SELECT VERSION() AS version" }

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	`'`, `\'`,
	`"`, `\"`,
	"\x1a", `\Z`,
)

// Escape mirrors mysql_real_escape_string for the default character sets.
func (Dialect) Escape(value string) string { return escaper.Replace(value) }

const tableOptions = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

func idType(colType backend.ColumnType) string {
	if colType == backend.ColumnInt {
		return "INT UNSIGNED"
	}
	return "MEDIUMINT UNSIGNED"
}

func (Dialect) CreateTable(kind backend.TableKind, table string, colType backend.ColumnType) []string {
	id := idType(colType)
	var ddl string
	switch kind {
	case backend.KindTriple:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	t         %[2]s NOT NULL,
	s         %[2]s NOT NULL,
	p         %[2]s NOT NULL,
	o         %[2]s NOT NULL,
	o_lang_dt %[2]s NOT NULL DEFAULT 0,
	s_type    TINYINT(1) NOT NULL DEFAULT 0,
	o_type    TINYINT(1) NOT NULL DEFAULT 0,
	misc      TINYINT(1) NOT NULL DEFAULT 0,
	UNIQUE KEY (t),
	KEY sp (s, p),
	KEY os (o, s),
	KEY po (p, o)
)`, table, id)
	case backend.KindG2T:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	g %[2]s NOT NULL,
	t %[2]s NOT NULL,
	UNIQUE KEY gt (g, t),
	KEY tg (t, g)
)`, table, id)
	case backend.KindID2Val:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id       %s NOT NULL AUTO_INCREMENT PRIMARY KEY,
	misc     TINYINT(1) NOT NULL DEFAULT 0,
	val      TEXT NOT NULL,
	val_type TINYINT(1) NOT NULL DEFAULT 0,
	KEY v (val(64))
)`, table, id)
	case backend.KindS2Val, backend.KindO2Val:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id       %s NOT NULL AUTO_INCREMENT PRIMARY KEY,
	misc     TINYINT(1) NOT NULL DEFAULT 0,
	val_hash BIGINT UNSIGNED NOT NULL DEFAULT 0,
	val      TEXT NOT NULL,
	KEY vh (val_hash),
	KEY v (val(64))
)`, table, id)
	case backend.KindSetting:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	k   CHAR(32) NOT NULL,
	val TEXT NOT NULL,
	UNIQUE KEY k (k)
)`, table)
	default:
		return nil
	}
	return []string{ddl + tableOptions}
}

func (Dialect) WidenTable(kind backend.TableKind, table string) []string {
	modify := func(cols ...string) []string {
		parts := make([]string, 0, len(cols))
		for _, c := range cols {
			parts = append(parts, fmt.Sprintf("MODIFY %s INT UNSIGNED NOT NULL", c))
		}
		return []string{fmt.Sprintf("ALTER TABLE %s %s", table, strings.Join(parts, ", "))}
	}
	switch kind {
	case backend.KindTriple:
		return modify("t", "s", "p", "o", "o_lang_dt")
	case backend.KindG2T:
		return modify("g", "t")
	case backend.KindID2Val, backend.KindS2Val, backend.KindO2Val:
		return []string{fmt.Sprintf("ALTER TABLE %s MODIFY id INT UNSIGNED NOT NULL AUTO_INCREMENT", table)}
	}
	return nil
}

func (Dialect) DropTable(table string) string { return "DROP TABLE IF EXISTS " + table }
func (Dialect) Truncate(table string) string  { return "TRUNCATE " + table }

// RenameTable moves indexes along with the table; MySQL index names are
// per table.
func (Dialect) RenameTable(_ backend.TableKind, from, to string) []string {
	return []string{fmt.Sprintf("RENAME TABLE %s TO %s", from, to)}
}

func (Dialect) CopyIgnore(dst, src string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s SELECT * FROM %s", dst, src)
}

func (Dialect) BinaryEquals(column string) string { return column + " = BINARY ?" }

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func (Dialect) ListTables(ctx context.Context, q backend.Querier, prefix string) ([]string, error) {
	rows, err := q.FetchRows(ctx,
		`SELECT table_name AS name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_name LIKE ? ORDER BY table_name`,
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
	rows, err := q.FetchRows(ctx, "SHOW COLUMNS FROM "+table)
	if err != nil {
		return nil, err
	}
	cols := make([]backend.Column, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, backend.Column{Name: r.String("Field"), Type: strings.ToLower(r.String("Type"))})
	}
	return cols, nil
}

// AcquireLock makes a single non-blocking attempt; callers own the retry loop.
func (Dialect) AcquireLock(ctx context.Context, q backend.Querier, name string) (bool, error) {
	row, err := q.FetchRow(ctx, "SELECT IS_FREE_LOCK(?) AS success", name)
	if err != nil || row == nil || row.Int64("success") != 1 {
		return false, err
	}
	row, err = q.FetchRow(ctx, "SELECT GET_LOCK(?, 0) AS success", name)
	if err != nil || row == nil {
		return false, err
	}
	return row.Int64("success") == 1, nil
}

func (Dialect) ReleaseLock(ctx context.Context, q backend.Querier, name string) error {
	_, err := q.Exec(ctx, "DO RELEASE_LOCK(?)", name)
	return err
}

func (Dialect) LockTableWrite(tables ...string) string {
	return "LOCK TABLES " + strings.Join(tables, " WRITE, ") + " WRITE"
}
func (Dialect) UnlockTables() string               { return "UNLOCK TABLES" }

func (Dialect) Maintenance(op backend.MaintenanceOp, tables []string) []string {
	if len(tables) == 0 {
		return nil
	}
	return []string{strings.ToUpper(string(op)) + " TABLE " + strings.Join(tables, ", ")}
}

func (Dialect) ProcessListQuery() string { return "SHOW PROCESSLIST" }
