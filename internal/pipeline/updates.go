// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package pipeline

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/dump"
	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Insert adds quads to the store. Quads without a graph go into graph.
func (p *Pipeline) Insert(ctx context.Context, quads []rdf.Quad, graph string) (*query.Envelope, error) {
	bound := make([]rdf.Quad, len(quads))
	for i, q := range quads {
		if q.Graph == "" {
			q.Graph = graph
		}
		bound[i] = q
	}

	req := &query.Request{Type: query.TypeInsert, TargetGraph: graph}
	return p.run(ctx, req, query.HandlerFunc(func(ctx context.Context, _ *query.Request) (*query.Result, error) {
		n, err := p.store.Insert(ctx, bound)
		if err != nil {
			return nil, err
		}
		return &query.Result{TripleCount: n}, nil
	}))
}

// InsertNQuads reads an N-Quads document and inserts it into graph.
func (p *Pipeline) InsertNQuads(ctx context.Context, doc string, graph string) (*query.Envelope, error) {
	quads, err := rdf.ReadNQuads(strings.NewReader(doc), graph)
	if err != nil {
		return nil, err
	}
	return p.Insert(ctx, quads, graph)
}

// Delete removes every triple of graph.
func (p *Pipeline) Delete(ctx context.Context, graph string) (*query.Envelope, error) {
	return p.RunQuery(ctx, &query.Request{Type: query.TypeDelete, TargetGraph: graph})
}

// Replace empties graph and inserts doc into it. Both envelopes are
// returned; when doc cannot be read the graph stays empty and the delete
// envelope comes back alone with the error.
func (p *Pipeline) Replace(ctx context.Context, graph, doc string) ([]*query.Envelope, error) {
	del, err := p.Delete(ctx, graph)
	if err != nil {
		return nil, err
	}
	ins, err := p.InsertNQuads(ctx, doc, graph)
	if err != nil {
		return []*query.Envelope{del}, err
	}
	return []*query.Envelope{del, ins}, nil
}

// Dump writes every quad of the store to w as a SPARQL XML result set.
func (p *Pipeline) Dump(ctx context.Context, w io.Writer) error {
	quads, err := p.store.Match(ctx, store.Pattern{})
	if err != nil {
		return err
	}
	return dump.WriteQuads(w, quads)
}

// CreateBackup writes the dump document to path, replacing any file there.
func (p *Pipeline) CreateBackup(ctx context.Context, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeDumpWriteFailure, "creating backup file",
			quadrelerr.Field("path", path))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = quadrelerr.Wrap(cerr, quadrelerr.CodeDumpWriteFailure, "closing backup file",
				quadrelerr.Field("path", path))
		}
	}()

	w := bufio.NewWriter(f)
	if err := p.Dump(ctx, w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeDumpWriteFailure, "writing backup file",
			quadrelerr.Field("path", path))
	}
	return nil
}
