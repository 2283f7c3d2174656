// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package handler

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Update answers LOAD and INSERT requests.
type Update struct {
	Store Store
	// Open reads LOAD sources. Nil means local files and file:// URLs.
	Open func(ctx context.Context, source string) (io.ReadCloser, error)
}

// Run inserts the request's template quads, or the quads read from a LOAD
// source, and reports how many were added.
func (h *Update) Run(ctx context.Context, req *query.Request) (*query.Result, error) {
	var quads []rdf.Quad
	var err error
	switch req.Type {
	case query.TypeLoad:
		quads, err = h.load(ctx, req)
	default:
		quads, err = req.Quads(req.TargetGraph)
	}
	if err != nil {
		return nil, err
	}
	added, err := h.Store.Insert(ctx, quads)
	if err != nil {
		return nil, err
	}
	return &query.Result{TripleCount: added}, nil
}

func (h *Update) load(ctx context.Context, req *query.Request) ([]rdf.Quad, error) {
	open := h.Open
	if open == nil {
		open = OpenFile
	}
	rc, err := open(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return rdf.ReadNQuads(rc, req.TargetGraph)
}

// OpenFile opens a local path or file:// URL.
func OpenFile(_ context.Context, source string) (io.ReadCloser, error) {
	path := source
	if strings.Contains(source, "://") {
		u, err := url.Parse(source)
		if err != nil || u.Scheme != "file" {
			return nil, quadrelerr.New(quadrelerr.CodeQueryExecutionFailure, "unsupported load source",
				quadrelerr.Field("source", source))
		}
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeQueryExecutionFailure, "opening load source",
			quadrelerr.Field("source", source))
	}
	return f, nil
}

// Delete answers DELETE requests: the whole target graph, or only the
// template quads when the request carries some.
type Delete struct {
	Store Store
}

// Run reports the number of triples removed.
func (h *Delete) Run(ctx context.Context, req *query.Request) (*query.Result, error) {
	var removed int64
	var err error
	if len(req.Template) > 0 {
		quads, qerr := req.Quads(req.TargetGraph)
		if qerr != nil {
			return nil, qerr
		}
		removed, err = h.Store.DeleteQuads(ctx, quads)
	} else {
		removed, err = h.Store.DeleteGraph(ctx, req.TargetGraph)
	}
	if err != nil {
		return nil, err
	}
	return &query.Result{TripleCount: removed}, nil
}
