// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package trigger runs named hooks after queries of a bound type.
package trigger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/query"
)

// Store is the part of the quad store the built-in triggers use.
type Store interface {
	Name() string
	OptimizeTables(ctx context.Context, level int) ([]backend.Row, error)
	SplitTables(ctx context.Context) ([]string, error)
}

// Context describes the query a trigger fires after.
type Context struct {
	Type    query.Type
	Request *query.Request
	Store   Store
	Logger  *slog.Logger
}

// Trigger is a hook bound to one or more query types. The returned value is
// reported back with the query result.
type Trigger interface {
	Run(ctx context.Context, tc Context) (any, error)
}

// Func adapts a plain function to a Trigger.
type Func func(ctx context.Context, tc Context) (any, error)

func (f Func) Run(ctx context.Context, tc Context) (any, error) {
	return f(ctx, tc)
}

const suffix = "trigger"

// Normalize maps a configured trigger name to its registry key: lower case
// without the "Trigger" suffix, so "QueryLogTrigger" and "querylog" match.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) > len(suffix) {
		n = strings.TrimSuffix(n, suffix)
	}
	return n
}
