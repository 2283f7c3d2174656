// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package backend

import (
	"context"
	"fmt"
	"strconv"
)

// Row is a single result row keyed by column name. Byte slices returned by
// drivers are normalised to strings.
type Row map[string]any

// String returns the column value as a string, or "" when absent or NULL.
func (r Row) String(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Int64 returns the column value as an int64, or 0 when absent, NULL or not numeric.
func (r Row) Int64(col string) int64 {
	v, ok := r[col]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		n, err := strconv.ParseInt(r.String(col), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
}

// Has reports whether the row carries the column.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// Result reports the outcome of a statement that returns no rows.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Querier is the statement-level subset of an Adapter. Dialects receive it
// when they need to probe the backend.
type Querier interface {
	Exec(ctx context.Context, stmt string, args ...any) (Result, error)
	FetchRows(ctx context.Context, stmt string, args ...any) ([]Row, error)
	// FetchRow returns the first row, or nil when the statement yields none.
	FetchRow(ctx context.Context, stmt string, args ...any) (Row, error)
}

// Adapter is the narrow contract the store holds on a backend technology.
type Adapter interface {
	Querier

	Connect(ctx context.Context) error
	Close() error
	Escape(value string) string
	RowCount(ctx context.Context, stmt string, args ...any) (int64, error)
	ServerInfo(ctx context.Context) (string, error)
	DialectName() string
	DatabaseName() string
	// LastError returns the error of the most recent statement, or nil.
	LastError() error
	Dialect() Dialect
}

// TableKind identifies the shape of a store table.
type TableKind string

const (
	KindTriple  TableKind = "triple"
	KindG2T     TableKind = "g2t"
	KindID2Val  TableKind = "id2val"
	KindS2Val   TableKind = "s2val"
	KindO2Val   TableKind = "o2val"
	KindSetting TableKind = "setting"
)

// ColumnType is the integer type used for id columns.
type ColumnType string

const (
	ColumnMediumInt ColumnType = "mediumint"
	ColumnInt       ColumnType = "int"
)

// Column describes one column of an existing table.
type Column struct {
	Name string
	Type string
}

// MaintenanceOp is a table maintenance operation.
type MaintenanceOp string

const (
	OpOptimize MaintenanceOp = "optimize"
	OpCheck    MaintenanceOp = "check"
	OpRepair   MaintenanceOp = "repair"
)

// Dialect encapsulates the SQL differences between backends. Statement
// builders return plain SQL; probes run through the supplied Querier.
type Dialect interface {
	Name() string
	// MinVersion is the lowest supported server version in "%02d-%02d-%02d" form.
	MinVersion() string
	VersionQuery() string
	Escape(value string) string

	CreateTable(kind TableKind, table string, colType ColumnType) []string
	WidenTable(kind TableKind, table string) []string
	DropTable(table string) string
	Truncate(table string) string
	// RenameTable returns the statements moving table from to name to,
	// including any index renames the backend needs.
	RenameTable(kind TableKind, from, to string) []string
	// CopyIgnore copies all rows of src into dst, skipping rows that collide.
	CopyIgnore(dst, src string) string
	// BinaryEquals returns a case- and byte-sensitive predicate on column
	// with a single placeholder.
	BinaryEquals(column string) string

	ListTables(ctx context.Context, q Querier, prefix string) ([]string, error)
	Columns(ctx context.Context, q Querier, table string) ([]Column, error)

	AcquireLock(ctx context.Context, q Querier, name string) (bool, error)
	ReleaseLock(ctx context.Context, q Querier, name string) error
	// LockTableWrite returns the statement write-locking tables until
	// UnlockTables runs on the same connection.
	LockTableWrite(tables ...string) string
	UnlockTables() string

	Maintenance(op MaintenanceOp, tables []string) []string
	// ProcessListQuery returns "" when the backend has no process list.
	ProcessListQuery() string
}
