// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/backend"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// DefaultLockTimeout is the number of one-second attempts structural
// operations make for the advisory lock.
const DefaultLockTimeout = 10

var versionPattern = regexp.MustCompile(`^([0-9]+)\.([0-9]+)\.([0-9]+)`)

// DBVersion returns the backend version as "%02d-%02d-%02d", or "00-00-00"
// when the server info cannot be parsed.
func (s *Store) DBVersion(ctx context.Context) (string, error) {
	info, err := s.adapter.ServerInfo(ctx)
	if err != nil {
		return "", err
	}
	return formatVersion(info), nil
}

func formatVersion(info string) string {
	m := versionPattern.FindStringSubmatch(info)
	if m == nil {
		return "00-00-00"
	}
	parts := make([]any, 3)
	for i := range parts {
		n, _ := strconv.Atoi(m[i+1])
		parts[i] = n
	}
	return fmt.Sprintf("%02d-%02d-%02d", parts...)
}

// IsSetUp probes the setting table. It has no side effects.
func (s *Store) IsSetUp(ctx context.Context) bool {
	_, err := s.adapter.FetchRows(ctx, "SELECT 1 FROM "+s.table("setting")+" LIMIT 0")
	return err == nil
}

// SetUp creates the fixed tables unless they exist. With force the creation
// statements run regardless; they are idempotent.
func (s *Store) SetUp(ctx context.Context, force bool) error {
	return s.setUp(ctx, force, backend.ColumnMediumInt)
}

func (s *Store) setUp(ctx context.Context, force bool, colType backend.ColumnType) error {
	if !force && s.IsSetUp(ctx) {
		if s.State() == StateAbsent {
			s.restore(StateReady)
		}
		return nil
	}

	prev := s.State()
	if err := s.transitionTo(ctx, StateInitializing); err != nil {
		return err
	}

	version, err := s.DBVersion(ctx)
	if err != nil {
		s.restore(prev)
		return err
	}
	if version < s.dialect.MinVersion() {
		s.restore(prev)
		return quadrelerr.New(quadrelerr.CodeStoreSchemaIncompatible,
			fmt.Sprintf("%s version not supported, %s or higher required", s.dialect.Name(), s.dialect.MinVersion()),
			quadrelerr.Field("version", version),
			quadrelerr.Field("min_version", s.dialect.MinVersion()))
	}

	for _, t := range fixedTables {
		for _, stmt := range s.dialect.CreateTable(t.kind, s.table(t.name), colType) {
			if _, err := s.adapter.Exec(ctx, stmt); err != nil {
				s.restore(prev)
				return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaCreateFailure, "creating table",
					quadrelerr.FieldTable(s.table(t.name)))
			}
		}
	}

	s.logger.Info("store tables created", "prefix", s.TablePrefix(), "column_type", string(colType))
	s.restore(StateReady)
	return nil
}

// Reset drops every split table and empties the fixed tables. The setting
// table is kept when keepSettings is set.
func (s *Store) Reset(ctx context.Context, keepSettings bool) error {
	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaResetFailure, "reading split registry")
	}
	for _, p := range split {
		tbl := s.table(SplitTableName(p))
		if _, err := s.adapter.Exec(ctx, s.dialect.DropTable(tbl)); err != nil {
			return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaResetFailure, "dropping split table",
				quadrelerr.FieldTable(tbl), quadrelerr.FieldPredicate(p))
		}
	}
	if err := s.RemoveSetting(ctx, SettingSplitPredicates); err != nil {
		return err
	}

	for _, t := range fixedTables {
		if keepSettings && t.kind == backend.KindSetting {
			continue
		}
		if _, err := s.adapter.Exec(ctx, s.dialect.Truncate(s.table(t.name))); err != nil {
			return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaResetFailure, "truncating table",
				quadrelerr.FieldTable(s.table(t.name)))
		}
	}

	s.forgetTerms()
	s.forgetLabels()
	s.logger.Info("store reset", "keep_settings", keepSettings, "split_tables_dropped", len(split))
	return nil
}

// Drop removes the fixed tables. Split tables are left behind unless the
// store was reset first. The store cannot be used afterwards.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.transitionTo(ctx, StateDropped); err != nil {
		return err
	}
	for _, t := range fixedTables {
		if _, err := s.adapter.Exec(ctx, s.dialect.DropTable(s.table(t.name))); err != nil {
			return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaDropFailure, "dropping table",
				quadrelerr.FieldTable(s.table(t.name)))
		}
	}
	s.forgetTerms()
	s.forgetLabels()
	s.logger.Info("store dropped", "prefix", s.TablePrefix())
	return nil
}

// allTables returns the unprefixed names of the fixed and split tables.
func (s *Store) allTables(ctx context.Context) ([]string, error) {
	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return nil, err
	}
	names := Tables()
	for _, p := range split {
		names = append(names, SplitTableName(p))
	}
	return names, nil
}

// ListTables returns the backend tables carrying the store prefix.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	return s.dialect.ListTables(ctx, s.adapter, s.TablePrefix())
}

// RenameTo moves every table to the prefix of name. Tables renamed before a
// failure stay renamed; the store keeps its old name in that case.
func (s *Store) RenameTo(ctx context.Context, name string) error {
	if err := validIdent(name); err != nil {
		return err
	}
	if err := s.transitionTo(ctx, StateRenaming); err != nil {
		return err
	}
	defer s.restore(StateReady)

	tables, err := s.allTables(ctx)
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaRenameFailure, "listing tables")
	}

	oldPrefix := s.TablePrefix()
	newPrefix := prefixFor(s.opts.TablePrefix, name)
	for _, tbl := range tables {
		for _, stmt := range s.dialect.RenameTable(kindOf(tbl), oldPrefix+tbl, newPrefix+tbl) {
			if _, err := s.adapter.Exec(ctx, stmt); err != nil {
				return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaRenameFailure, backendMessage(s.adapter, err),
					quadrelerr.FieldTable(oldPrefix+tbl), quadrelerr.Field("target", newPrefix+tbl))
			}
		}
	}

	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
	s.forgetTerms()
	s.forgetLabels()
	s.logger.Info("store renamed", "from", oldPrefix, "to", newPrefix)
	return nil
}

// ReplicateTo copies the store into a fresh store called name on the same
// backend and returns the number of quads the copy holds. Rows already
// present in the destination are skipped.
func (s *Store) ReplicateTo(ctx context.Context, name string) (int64, error) {
	if err := validIdent(name); err != nil {
		return 0, err
	}
	if name == s.Name() {
		return 0, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "cannot replicate a store onto itself",
			quadrelerr.FieldStore(name))
	}

	opts := s.opts
	opts.Name = name
	dst, err := New(s.adapter, opts)
	if err != nil {
		return 0, err
	}

	colType, err := s.ColumnType(ctx)
	if err != nil {
		return 0, err
	}
	if err := dst.setUp(ctx, false, colType); err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaReplicateFailure, "preparing destination",
			quadrelerr.FieldStore(name))
	}
	if err := dst.Reset(ctx, false); err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaReplicateFailure, "resetting destination",
			quadrelerr.FieldStore(name))
	}

	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaReplicateFailure, "reading split registry")
	}
	for _, p := range split {
		for _, stmt := range s.dialect.CreateTable(backend.KindTriple, dst.table(SplitTableName(p)), colType) {
			if _, err := s.adapter.Exec(ctx, stmt); err != nil {
				return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaReplicateFailure, backendMessage(s.adapter, err),
					quadrelerr.FieldPredicate(p))
			}
		}
	}

	tables := Tables()
	for _, p := range split {
		tables = append(tables, SplitTableName(p))
	}
	for _, tbl := range tables {
		stmt := s.dialect.CopyIgnore(dst.table(tbl), s.table(tbl))
		if _, err := s.adapter.Exec(ctx, stmt); err != nil {
			return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaReplicateFailure, backendMessage(s.adapter, err),
				quadrelerr.FieldTable(s.table(tbl)))
		}
	}

	n, err := dst.TripleCount(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("store replicated", "target", name, "triples", n)
	return n, nil
}

// ColumnType reports the integer type of the id columns, probed from g2t.t.
func (s *Store) ColumnType(ctx context.Context) (backend.ColumnType, error) {
	cols, err := s.dialect.Columns(ctx, s.adapter, s.table("g2t"))
	if err != nil {
		return "", err
	}
	for _, c := range cols {
		if c.Name != "t" {
			continue
		}
		if strings.Contains(c.Type, "mediumint") {
			return backend.ColumnMediumInt, nil
		}
		return backend.ColumnInt, nil
	}
	return backend.ColumnMediumInt, nil
}

// ExtendColumns widens narrow id columns of every table without data loss.
func (s *Store) ExtendColumns(ctx context.Context) error {
	if err := s.transitionTo(ctx, StateExtending); err != nil {
		return err
	}
	defer s.restore(StateReady)

	return s.withLock(ctx, func() error { return s.extendColumns(ctx) })
}

func (s *Store) extendColumns(ctx context.Context) error {
	colType, err := s.ColumnType(ctx)
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaExtendFailure, "probing column type")
	}
	if colType == backend.ColumnInt {
		s.logger.Debug("id columns already wide")
		return nil
	}

	type target struct {
		name string
		kind backend.TableKind
	}
	var targets []target
	for _, t := range fixedTables {
		if t.kind != backend.KindSetting {
			targets = append(targets, target{t.name, t.kind})
		}
	}
	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaExtendFailure, "reading split registry")
	}
	for _, p := range split {
		targets = append(targets, target{SplitTableName(p), backend.KindTriple})
	}

	for _, t := range targets {
		for _, stmt := range s.dialect.WidenTable(t.kind, s.table(t.name)) {
			if _, err := s.adapter.Exec(ctx, stmt); err != nil {
				return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaExtendFailure, backendMessage(s.adapter, err),
					quadrelerr.FieldTable(s.table(t.name)))
			}
		}
	}
	s.logger.Info("id columns widened", "tables", len(targets))
	return nil
}

// TripleCount returns the number of stored quads.
func (s *Store) TripleCount(ctx context.Context) (int64, error) {
	row, err := s.adapter.FetchRow(ctx, "SELECT COUNT(*) AS t_count FROM "+s.table("g2t"))
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreTripleFailure, "counting triples")
	}
	if row == nil {
		return 0, nil
	}
	return row.Int64("t_count"), nil
}

// backendMessage returns the adapter's last error text, falling back to err.
func backendMessage(a backend.Adapter, err error) string {
	if last := a.LastError(); last != nil {
		return last.Error()
	}
	return err.Error()
}
