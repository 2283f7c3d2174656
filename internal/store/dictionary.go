// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"hash/crc32"
	"strconv"
	"unicode/utf8"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Role selects the dictionary table a term lives in.
type Role int

const (
	// RoleGeneric covers predicates, graphs, datatypes and language tags.
	RoleGeneric Role = iota
	RoleSubject
	RoleObject
)

func (r Role) String() string {
	switch r {
	case RoleSubject:
		return "s"
	case RoleObject:
		return "o"
	default:
		return "id"
	}
}

func (r Role) table() string {
	switch r {
	case RoleSubject:
		return "s2val"
	case RoleObject:
		return "o2val"
	default:
		return "id2val"
	}
}

const (
	termCacheLimit = 100
	// Values of this many characters or more are never cached.
	termCacheMaxValue = 100
)

func cacheable(value string) bool {
	return utf8.RuneCountInString(value) < termCacheMaxValue
}

// ValueHash returns the canonical hash stored in val_hash: the absolute
// value of the CRC32 checksum read as a signed 32-bit integer.
func ValueHash(v string) int64 {
	h := int64(int32(crc32.ChecksumIEEE([]byte(v))))
	if h < 0 {
		return -h
	}
	return h
}

// valueHashUnsigned is the hash some writers stored for checksums with the
// sign bit set.
func valueHashUnsigned(v string) (int64, bool) {
	c := crc32.ChecksumIEEE([]byte(v))
	return int64(c), c&0x80000000 != 0
}

func (s *Store) cached(role Role, value string) (int64, bool) {
	if !cacheable(value) {
		return 0, false
	}
	s.termMu.Lock()
	defer s.termMu.Unlock()
	id, ok := s.termCache[role][value]
	return id, ok
}

func (s *Store) remember(role Role, value string, id int64) {
	if !cacheable(value) {
		return
	}
	s.termMu.Lock()
	defer s.termMu.Unlock()
	if len(s.termCache[role]) > termCacheLimit {
		s.termCache[role] = nil
	}
	if s.termCache[role] == nil {
		s.termCache[role] = map[string]int64{}
	}
	s.termCache[role][value] = id
}

func (s *Store) forgetTerms() {
	s.termMu.Lock()
	s.termCache = map[Role]map[string]int64{}
	s.hashCols = map[string]bool{}
	s.termMu.Unlock()
}

// HasHashColumn reports whether a dictionary table carries val_hash. The
// probe runs once per table.
func (s *Store) HasHashColumn(ctx context.Context, table string) (bool, error) {
	if table != "s2val" && table != "o2val" {
		return false, nil
	}
	s.termMu.Lock()
	has, ok := s.hashCols[table]
	s.termMu.Unlock()
	if ok {
		return has, nil
	}

	cols, err := s.dialect.Columns(ctx, s.adapter, s.table(table))
	if err != nil {
		return false, quadrelerr.Wrap(err, quadrelerr.CodeStoreDictionaryFailure, "probing hash column",
			quadrelerr.FieldTable(table))
	}
	for _, c := range cols {
		if c.Name == "val_hash" {
			has = true
			break
		}
	}

	s.termMu.Lock()
	s.hashCols[table] = has
	s.termMu.Unlock()
	return has, nil
}

// Resolve returns the id of value in the role's dictionary. A miss is not an
// error.
func (s *Store) Resolve(ctx context.Context, value string, role Role) (int64, bool, error) {
	if id, ok := s.cached(role, value); ok {
		return id, true, nil
	}

	tbl := role.table()
	hashed, err := s.HasHashColumn(ctx, tbl)
	if err != nil {
		return 0, false, err
	}

	var id int64
	if hashed {
		id, err = s.resolveByHash(ctx, tbl, value)
	} else {
		id, err = s.resolveExact(ctx, tbl, value)
	}
	if err != nil {
		return 0, false, quadrelerr.Wrap(err, quadrelerr.CodeStoreDictionaryFailure, "resolving term",
			quadrelerr.FieldTable(tbl))
	}
	if id == 0 {
		return 0, false, nil
	}
	s.remember(role, value, id)
	return id, true, nil
}

func (s *Store) resolveByHash(ctx context.Context, tbl, value string) (int64, error) {
	stmt := "SELECT id, val FROM " + s.table(tbl) + " WHERE val_hash = ? ORDER BY id"
	rows, err := s.adapter.FetchRows(ctx, stmt, ValueHash(value))
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if r.String("val") == value {
			return r.Int64("id"), nil
		}
	}
	unsigned, signBit := valueHashUnsigned(value)
	if !signBit {
		return 0, nil
	}
	rows, err = s.adapter.FetchRows(ctx, stmt, unsigned)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if r.String("val") == value {
			return r.Int64("id"), nil
		}
	}
	return 0, nil
}

func (s *Store) resolveExact(ctx context.Context, tbl, value string) (int64, error) {
	row, err := s.adapter.FetchRow(ctx,
		"SELECT id FROM "+s.table(tbl)+" WHERE "+s.dialect.BinaryEquals("val")+" LIMIT 1", value)
	if err != nil || row == nil {
		return 0, err
	}
	return row.Int64("id"), nil
}

// Intern returns the id of value, inserting it when absent. Two processes
// interning the same new value concurrently may both insert it; lookups then
// settle on the lowest id.
func (s *Store) Intern(ctx context.Context, value string, role Role) (int64, error) {
	id, ok, err := s.Resolve(ctx, value, role)
	if err != nil || ok {
		return id, err
	}

	tbl := role.table()
	hashed, err := s.HasHashColumn(ctx, tbl)
	if err != nil {
		return 0, err
	}

	var stmt string
	var args []any
	switch {
	case hashed:
		stmt = "INSERT INTO " + s.table(tbl) + " (misc, val_hash, val) VALUES (0, ?, ?)"
		args = []any{ValueHash(value), value}
	case role == RoleGeneric:
		stmt = "INSERT INTO " + s.table(tbl) + " (misc, val, val_type) VALUES (0, ?, 0)"
		args = []any{value}
	default:
		stmt = "INSERT INTO " + s.table(tbl) + " (misc, val) VALUES (0, ?)"
		args = []any{value}
	}
	res, err := s.adapter.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreDictionaryFailure, "interning term",
			quadrelerr.FieldTable(tbl))
	}

	if res.LastInsertID == 0 {
		// Drivers without LastInsertId support.
		id, ok, err = s.Resolve(ctx, value, role)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, quadrelerr.New(quadrelerr.CodeStoreDictionaryFailure, "interned term not found",
				quadrelerr.FieldTable(tbl))
		}
		return id, nil
	}

	s.remember(role, value, res.LastInsertID)
	return res.LastInsertID, nil
}

// Dereference returns the value stored under id. Unknown ids are not an error.
func (s *Store) Dereference(ctx context.Context, id int64, role Role) (string, bool, error) {
	tbl := role.table()
	row, err := s.adapter.FetchRow(ctx, "SELECT val FROM "+s.table(tbl)+" WHERE id = ? LIMIT 1", id)
	if err != nil {
		return "", false, quadrelerr.Wrap(err, quadrelerr.CodeStoreDictionaryFailure, "dereferencing term",
			quadrelerr.FieldTable(tbl), quadrelerr.Field("id", strconv.FormatInt(id, 10)))
	}
	if row == nil {
		return "", false, nil
	}
	return row.String("val"), true, nil
}
