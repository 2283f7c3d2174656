// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package handler provides the built-in query handlers.
package handler

import (
	"context"

	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
)

// Store is the part of *store.Store the handlers use.
type Store interface {
	Match(ctx context.Context, p store.Pattern) ([]rdf.Quad, error)
	Insert(ctx context.Context, quads []rdf.Quad) (int64, error)
	DeleteGraph(ctx context.Context, graph string) (int64, error)
	DeleteQuads(ctx context.Context, quads []rdf.Quad) (int64, error)
}

// Compile-time interface check.
var _ Store = (*store.Store)(nil)

// Defaults returns a handler for every type the package implements.
// Describe and construct have no built-in handler.
func Defaults(st Store) map[query.Type]query.Handler {
	sel := &Select{Store: st}
	upd := &Update{Store: st}
	return map[query.Type]query.Handler{
		query.TypeSelect: sel,
		query.TypeAsk:    sel,
		query.TypeLoad:   upd,
		query.TypeInsert: upd,
		query.TypeDelete: &Delete{Store: st},
		query.TypeDump:   &Dump{Store: st},
	}
}
