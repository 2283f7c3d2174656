// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package dump writes result sets as SPARQL XML results documents. The byte
// layout is fixed: backups produced by one release must compare equal to
// those of another.
package dump

import (
	"bufio"
	"io"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// QuadVariables are the variables of a store dump.
var QuadVariables = []string{"s", "p", "o", "g"}

var escaper = strings.NewReplacer(`&`, `&amp;`, `<`, `&lt;`, `>`, `&gt;`, `"`, `&quot;`)

// Encoder streams a results document. The head is written on the first
// Encode or on Close, whichever comes first.
type Encoder struct {
	w       *bufio.Writer
	vars    []string
	started bool
	closed  bool
	err     error
}

// NewEncoder returns an encoder writing a document with the given variables.
func NewEncoder(w io.Writer, vars []string) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), vars: vars}
}

func (e *Encoder) write(parts ...string) {
	for _, p := range parts {
		if e.err != nil {
			return
		}
		_, e.err = e.w.WriteString(p)
	}
}

func (e *Encoder) start() {
	if e.started {
		return
	}
	e.started = true
	e.write("<?xml version=\"1.0\"?>\n",
		"<sparql xmlns=\"http://www.w3.org/2005/sparql-results#\">\n",
		"  <head>\n")
	for _, v := range e.vars {
		e.write("    <variable name=\"", escaper.Replace(v), "\"/>\n")
	}
	e.write("  </head>\n", "  <results>\n")
}

// Encode writes one result. Unbound variables are omitted.
func (e *Encoder) Encode(row query.Row) error {
	if e.closed {
		return quadrelerr.New(quadrelerr.CodeDumpWriteFailure, "encoder is closed")
	}
	e.start()
	e.write("    <result>\n")
	for _, v := range e.vars {
		t, ok := row[v]
		if !ok {
			continue
		}
		e.write("      <binding name=\"", escaper.Replace(v), "\">\n", "        ", term(t), "\n", "      </binding>\n")
	}
	e.write("    </result>\n")
	return e.failure()
}

// EncodeQuad writes one quad of a store dump.
func (e *Encoder) EncodeQuad(q rdf.Quad) error {
	return e.Encode(query.Row{
		"s": q.Subject,
		"p": rdf.IRI(q.Predicate),
		"o": q.Object,
		"g": rdf.IRI(q.Graph),
	})
}

// Close finishes the document and flushes it.
func (e *Encoder) Close() error {
	if e.closed {
		return e.failure()
	}
	e.start()
	e.closed = true
	e.write("  </results>\n", "</sparql>\n")
	if e.err == nil {
		e.err = e.w.Flush()
	}
	return e.failure()
}

func (e *Encoder) failure() error {
	if e.err == nil {
		return nil
	}
	return quadrelerr.Wrap(e.err, quadrelerr.CodeDumpWriteFailure, "writing results document")
}

func term(t rdf.Term) string {
	v := escaper.Replace(t.Value)
	switch t.Kind {
	case rdf.KindIRI:
		return "<uri>" + v + "</uri>"
	case rdf.KindBNode:
		return "<bnode>" + strings.TrimPrefix(v, "_:") + "</bnode>"
	}
	switch {
	case t.Lang != "":
		return "<literal xml:lang=\"" + escaper.Replace(t.Lang) + "\">" + v + "</literal>"
	case t.Datatype != "":
		return "<literal datatype=\"" + escaper.Replace(t.Datatype) + "\">" + v + "</literal>"
	}
	return "<literal>" + v + "</literal>"
}

// WriteQuads writes a complete store dump of quads.
func WriteQuads(w io.Writer, quads []rdf.Quad) error {
	enc := NewEncoder(w, QuadVariables)
	for _, q := range quads {
		if err := enc.EncodeQuad(q); err != nil {
			return err
		}
	}
	return enc.Close()
}

// WriteResult writes the rows of a handler result.
func WriteResult(w io.Writer, res *query.Result) error {
	enc := NewEncoder(w, res.Variables)
	for _, row := range res.Rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return enc.Close()
}
