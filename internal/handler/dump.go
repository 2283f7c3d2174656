// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package handler

import (
	"context"

	"github.com/quadrel-dev/quadrel/internal/dump"
	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
)

// Dump answers the dump shortcut with every quad of the store.
type Dump struct {
	Store Store
}

// Run returns one s, p, o, g row per stored quad.
func (h *Dump) Run(ctx context.Context, _ *query.Request) (*query.Result, error) {
	quads, err := h.Store.Match(ctx, store.Pattern{})
	if err != nil {
		return nil, err
	}
	rows := make([]query.Row, len(quads))
	for i, q := range quads {
		rows[i] = query.Row{"s": q.Subject, "p": rdf.IRI(q.Predicate), "o": q.Object, "g": rdf.IRI(q.Graph)}
	}
	return &query.Result{Variables: dump.QuadVariables, Rows: rows}, nil
}
