// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package mysql_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/backend/mysql"
)

func TestDriverConfig(t *testing.T) {
	dc := mysql.DriverConfig(backend.Config{
		Adapter:  "mysql",
		Host:     "db.internal",
		Port:     3307,
		User:     "arc",
		Password: "secret",
		Name:     "rdf",
	})
	assert.Equal(t, "db.internal:3307", dc.Addr)
	assert.Equal(t, "rdf", dc.DBName)
	assert.Equal(t, "arc:secret@tcp(db.internal:3307)/rdf?charset=utf8mb4", dc.FormatDSN())
}

func TestDriverConfig_Defaults(t *testing.T) {
	dc := mysql.DriverConfig(backend.Config{Name: "rdf"})
	assert.Equal(t, "localhost:3306", dc.Addr)
}

func TestNew(t *testing.T) {
	a, err := mysql.New(backend.Config{Name: "rdf", User: "arc"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", a.DialectName())
	assert.Equal(t, "rdf", a.DatabaseName())
}

func TestEscape(t *testing.T) {
	d := mysql.Dialect{}
	assert.Equal(t, `it\'s \"q\" \\ \n`, d.Escape("it's \"q\" \\ \n"))
}

func TestCreateTable(t *testing.T) {
	d := mysql.Dialect{}

	stmts := d.CreateTable(backend.KindTriple, "arc_triple", backend.ColumnMediumInt)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS arc_triple")
	assert.Contains(t, stmts[0], "t         MEDIUMINT UNSIGNED NOT NULL")
	assert.Contains(t, stmts[0], "COLLATE=utf8mb4_bin")

	stmts = d.CreateTable(backend.KindG2T, "arc_g2t", backend.ColumnInt)
	assert.Contains(t, stmts[0], "g INT UNSIGNED NOT NULL")

	stmts = d.CreateTable(backend.KindSetting, "arc_setting", backend.ColumnInt)
	assert.Contains(t, stmts[0], "k   CHAR(32) NOT NULL")

	assert.Nil(t, d.CreateTable(backend.TableKind("bogus"), "x", backend.ColumnInt))
}

func TestWidenTable(t *testing.T) {
	d := mysql.Dialect{}

	assert.Equal(t,
		[]string{"ALTER TABLE arc_g2t MODIFY g INT UNSIGNED NOT NULL, MODIFY t INT UNSIGNED NOT NULL"},
		d.WidenTable(backend.KindG2T, "arc_g2t"))
	assert.Equal(t,
		[]string{"ALTER TABLE arc_s2val MODIFY id INT UNSIGNED NOT NULL AUTO_INCREMENT"},
		d.WidenTable(backend.KindS2Val, "arc_s2val"))
	assert.Nil(t, d.WidenTable(backend.KindSetting, "arc_setting"))
}

func TestStatements(t *testing.T) {
	d := mysql.Dialect{}

	assert.Equal(t, []string{"RENAME TABLE a_triple TO b_triple"}, d.RenameTable(backend.KindTriple, "a_triple", "b_triple"))
	assert.Equal(t, "INSERT IGNORE INTO b_g2t SELECT * FROM a_g2t", d.CopyIgnore("b_g2t", "a_g2t"))
	assert.Equal(t, "val = BINARY ?", d.BinaryEquals("val"))
	assert.Equal(t, "TRUNCATE a_triple", d.Truncate("a_triple"))
	assert.Equal(t, "LOCK TABLES a_setting WRITE", d.LockTableWrite("a_setting"))
	assert.Equal(t, "LOCK TABLES a_triple WRITE, a_triple_1 WRITE", d.LockTableWrite("a_triple", "a_triple_1"))
	assert.Equal(t, "UNLOCK TABLES", d.UnlockTables())
	assert.Equal(t, "SHOW PROCESSLIST", d.ProcessListQuery())
	assert.Equal(t, "04-00-04", d.MinVersion())

	assert.Equal(t, []string{"OPTIMIZE TABLE a_triple, a_g2t"},
		d.Maintenance(backend.OpOptimize, []string{"a_triple", "a_g2t"}))
	assert.True(t, strings.HasPrefix(d.Maintenance(backend.OpRepair, []string{"x"})[0], "REPAIR TABLE"))
	assert.Nil(t, d.Maintenance(backend.OpCheck, nil))
}
