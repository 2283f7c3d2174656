// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/backend"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Maintenance levels select the tables processed.
const (
	LevelTriples      = 1 // triple, split tables and g2t
	LevelDictionaries = 2 // plus the *2val tables
	LevelAll          = 3 // plus setting
)

// OptimizeTables refreshes table statistics. It does nothing when
// optimization is disabled by configuration.
func (s *Store) OptimizeTables(ctx context.Context, level int) ([]backend.Row, error) {
	if s.opts.IgnoreOptimization {
		s.logger.Debug("table optimization disabled")
		return nil, nil
	}
	return s.processTables(ctx, level, backend.OpOptimize)
}

// CheckTables runs the backend's consistency check and returns its report.
func (s *Store) CheckTables(ctx context.Context, level int) ([]backend.Row, error) {
	return s.processTables(ctx, level, backend.OpCheck)
}

// RepairTables rebuilds table indexes.
func (s *Store) RepairTables(ctx context.Context, level int) ([]backend.Row, error) {
	return s.processTables(ctx, level, backend.OpRepair)
}

func (s *Store) processTables(ctx context.Context, level int, op backend.MaintenanceOp) ([]backend.Row, error) {
	if level < LevelTriples || level > LevelAll {
		return nil, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "maintenance level must be 1, 2 or 3",
			quadrelerr.Field("level", level))
	}

	names, err := s.allTables(ctx)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreMaintenanceFailure, "listing tables")
	}
	var tables []string
	for _, name := range names {
		if level < LevelAll && name == "setting" {
			continue
		}
		if level < LevelDictionaries && strings.HasSuffix(name, "val") {
			continue
		}
		tables = append(tables, s.table(name))
	}

	var report []backend.Row
	for _, stmt := range s.dialect.Maintenance(op, tables) {
		rows, err := s.adapter.FetchRows(ctx, stmt)
		if err != nil {
			return report, quadrelerr.Wrap(err, quadrelerr.CodeStoreMaintenanceFailure,
				backendMessage(s.adapter, err)+" in "+stmt, quadrelerr.Field("operation", string(op)))
		}
		report = append(report, rows...)
	}
	s.logger.Debug("tables processed", "operation", string(op), "level", level, "tables", len(tables))
	return report, nil
}

// CountProcesses returns the number of backend connections. Backends
// without a process list report the store's own connection.
func (s *Store) CountProcesses(ctx context.Context) (int64, error) {
	q := s.dialect.ProcessListQuery()
	if q == "" {
		return 1, nil
	}
	n, err := s.adapter.RowCount(ctx, q)
	if err != nil {
		return 0, quadrelerr.Wrap(err, quadrelerr.CodeStoreMaintenanceFailure, "listing processes")
	}
	return n, nil
}
