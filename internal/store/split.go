// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"hash/crc32"
	"slices"
	"strconv"

	"github.com/quadrel-dev/quadrel/internal/backend"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// SplitTableName returns the unprefixed name of the table holding the
// triples of predicate p once it is split.
func SplitTableName(p string) string {
	return "triple_" + strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(p))), 10)
}

// SplitPredicates returns the split registry in split order.
func (s *Store) SplitPredicates(ctx context.Context) ([]string, error) {
	return Setting[[]string](ctx, s, SettingSplitPredicates, nil)
}

// tripleTables returns the prefixed triple table followed by every split table.
func (s *Store) tripleTables(ctx context.Context) ([]string, error) {
	split, err := s.SplitPredicates(ctx)
	if err != nil {
		return nil, err
	}
	tables := []string{s.table("triple")}
	for _, p := range split {
		tables = append(tables, s.table(SplitTableName(p)))
	}
	return tables, nil
}

// tripleTableFor returns the prefixed table holding predicate p.
func (s *Store) tripleTableFor(split []string, p string) string {
	if slices.Contains(split, p) {
		return s.table(SplitTableName(p))
	}
	return s.table("triple")
}

// SplitTables moves the triples of heavily used predicates into tables of
// their own and returns the predicates split by this call. Candidates are
// the configured split predicates followed by predicates whose triple count
// exceeds the split threshold, most used first.
func (s *Store) SplitTables(ctx context.Context) ([]string, error) {
	if err := s.transitionTo(ctx, StateSplitting); err != nil {
		return nil, err
	}
	defer s.restore(StateReady)

	var added []string
	err := s.withLock(ctx, func() error {
		var err error
		added, err = s.splitTables(ctx)
		return err
	})
	return added, err
}

func (s *Store) splitTables(ctx context.Context) ([]string, error) {
	registry, err := s.SplitPredicates(ctx)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaSplitFailure, "reading split registry")
	}
	candidates, err := s.splitCandidates(ctx)
	if err != nil {
		return nil, err
	}
	colType, err := s.ColumnType(ctx)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaSplitFailure, "probing column type")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var added []string
	for _, p := range candidates {
		if slices.Contains(registry, p) {
			continue
		}
		if len(registry) >= s.opts.MaxSplitTables {
			s.logger.Warn("split table limit reached", "max", s.opts.MaxSplitTables, "predicate", p)
			break
		}
		if err := s.splitPredicate(ctx, p, colType); err != nil {
			return added, err
		}
		registry = append(registry, p)
		if err := s.SetSetting(ctx, SettingSplitPredicates, registry); err != nil {
			return added, err
		}
		added = append(added, p)
		s.logger.Info("predicate split", "predicate", p, "table", s.table(SplitTableName(p)))
	}
	return added, nil
}

func (s *Store) splitPredicate(ctx context.Context, p string, colType backend.ColumnType) error {
	tbl := s.table(SplitTableName(p))
	fail := func(err error) error {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaSplitFailure, backendMessage(s.adapter, err),
			quadrelerr.FieldPredicate(p), quadrelerr.FieldTable(tbl))
	}

	for _, stmt := range s.dialect.CreateTable(backend.KindTriple, tbl, colType) {
		if _, err := s.adapter.Exec(ctx, stmt); err != nil {
			return fail(err)
		}
	}

	pid, ok, err := s.Resolve(ctx, p, RoleGeneric)
	if err != nil {
		return fail(err)
	}
	if !ok {
		return nil
	}
	// Copy and delete run under one write lock.
	main := s.table("triple")
	err = s.withTableLock(ctx, quadrelerr.CodeStoreSchemaSplitFailure, []string{main, tbl}, func() error {
		if _, err := s.adapter.Exec(ctx, "INSERT INTO "+tbl+" SELECT * FROM "+main+" WHERE p = ?", pid); err != nil {
			return fail(err)
		}
		if _, err := s.adapter.Exec(ctx, "DELETE FROM "+main+" WHERE p = ?", pid); err != nil {
			return fail(err)
		}
		return nil
	})
	return err
}

func (s *Store) splitCandidates(ctx context.Context) ([]string, error) {
	candidates := slices.Clone(s.opts.SplitPredicates)
	if s.opts.SplitThreshold <= 0 {
		return candidates, nil
	}

	rows, err := s.adapter.FetchRows(ctx,
		"SELECT p, COUNT(*) AS n FROM "+s.table("triple")+" GROUP BY p HAVING COUNT(*) > ? ORDER BY n DESC, p",
		s.opts.SplitThreshold)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreSchemaSplitFailure, "counting predicates")
	}
	for _, r := range rows {
		p, ok, err := s.Dereference(ctx, r.Int64("p"), RoleGeneric)
		if err != nil {
			return nil, err
		}
		if ok && !slices.Contains(candidates, p) {
			candidates = append(candidates, p)
		}
	}
	return candidates, nil
}
