// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
)

const xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"

// Select answers SELECT and ASK requests by joining their triple patterns.
type Select struct {
	Store Store
}

// Run answers ASK with whether any solution exists and SELECT with the
// projected, de-duplicated and limited solutions.
func (h *Select) Run(ctx context.Context, req *query.Request) (*query.Result, error) {
	rows, err := h.solve(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Type == query.TypeAsk {
		return &query.Result{Boolean: len(rows) > 0}, nil
	}

	vars := req.Projection()
	if req.Count != "" {
		n := strconv.Itoa(len(rows))
		return &query.Result{
			Variables: vars,
			Rows:      []query.Row{{req.Count: rdf.TypedLiteral(n, xsdInteger)}},
		}, nil
	}

	out := make([]query.Row, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		projected := make(query.Row, len(vars))
		for _, v := range vars {
			if t, ok := row[v]; ok {
				projected[v] = t
			}
		}
		if req.Distinct {
			key := rowKey(vars, projected)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, projected)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return &query.Result{Variables: vars, Rows: out}, nil
}

// solve returns every solution of the request's patterns.
func (h *Select) solve(ctx context.Context, req *query.Request) ([]query.Row, error) {
	rows := []query.Row{{}}
	for _, tp := range req.Where {
		var next []query.Row
		for _, row := range rows {
			quads, err := h.match(ctx, tp, row, req.Graphs)
			if err != nil {
				return nil, err
			}
			for _, q := range quads {
				if ext, ok := extend(row, tp, q); ok {
					next = append(next, ext)
				}
			}
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return rows, nil
}

// match returns the triples matching tp under row's bindings. Triples found
// in several of the searched graphs are reported once.
func (h *Select) match(ctx context.Context, tp query.TriplePattern, row query.Row, graphs []string) ([]rdf.Quad, error) {
	var p store.Pattern
	if t, ok := resolve(tp.Subject, row); ok {
		if t.Kind == rdf.KindLiteral {
			return nil, nil
		}
		p.Subject = &t
	}
	if t, ok := resolve(tp.Predicate, row); ok {
		if t.Kind != rdf.KindIRI {
			return nil, nil
		}
		p.Predicate = t.Value
	}
	if t, ok := resolve(tp.Object, row); ok {
		p.Object = &t
	}

	if len(graphs) == 0 {
		graphs = []string{""}
	}
	var out []rdf.Quad
	seen := map[string]bool{}
	for _, g := range graphs {
		p.Graph = g
		quads, err := h.Store.Match(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, q := range quads {
			key := q.Subject.String() + " " + q.Predicate + " " + q.Object.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, q)
		}
	}
	return out, nil
}

// resolve returns the term a node stands for under row, if any.
func resolve(n query.Node, row query.Row) (rdf.Term, bool) {
	if !n.IsVar() {
		return n.Term, true
	}
	t, ok := row[n.Var]
	return t, ok
}

// extend binds the variables of tp to q on a copy of row. It fails when a
// variable occurs twice in tp with different values.
func extend(row query.Row, tp query.TriplePattern, q rdf.Quad) (query.Row, bool) {
	out := make(query.Row, len(row)+3)
	for k, v := range row {
		out[k] = v
	}
	for _, b := range []struct {
		node query.Node
		term rdf.Term
	}{
		{tp.Subject, q.Subject},
		{tp.Predicate, rdf.IRI(q.Predicate)},
		{tp.Object, q.Object},
	} {
		if !b.node.IsVar() {
			continue
		}
		if prev, ok := out[b.node.Var]; ok && prev != b.term {
			return nil, false
		}
		out[b.node.Var] = b.term
	}
	return out, true
}

func rowKey(vars []string, row query.Row) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		if t, ok := row[v]; ok {
			parts[i] = t.String()
		}
	}
	return strings.Join(parts, "\x00")
}
