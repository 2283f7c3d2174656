// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package handler_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/backend/sqlite"
	"github.com/quadrel-dev/quadrel/internal/handler"
	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	a, err := sqlite.New(backend.Config{Path: filepath.Join(t.TempDir(), "handler.db")})
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx))
	t.Cleanup(func() { _ = a.Close() })

	st, err := store.New(a, store.Options{Name: "h"})
	require.NoError(t, err)
	require.NoError(t, st.SetUp(ctx, false))
	return st
}

// run parses text and runs it through the default handler of its type.
func run(t *testing.T, st handler.Store, text string) *query.Result {
	t.Helper()
	req, err := query.Parse(text)
	require.NoError(t, err)
	h, ok := handler.Defaults(st)[req.Type]
	require.True(t, ok, "no handler for %s", req.Type)
	res, err := h.Run(context.Background(), req)
	require.NoError(t, err)
	return res
}

const people = `INSERT INTO <http://example.com/people> {
  <http://ex/alice> <http://xmlns.com/foaf/0.1/name> "Alice" ;
                    <http://xmlns.com/foaf/0.1/knows> <http://ex/bob> , <http://ex/carol> .
  <http://ex/bob>   <http://xmlns.com/foaf/0.1/name> "Bob" .
  <http://ex/carol> <http://xmlns.com/foaf/0.1/name> "Carol"@en .
}`

func TestSelect_InsertedTriple(t *testing.T) {
	st := testStore(t)
	res := run(t, st, `INSERT INTO <http://example.com/> { <http://s> <http://p1> "baz" . }`)
	assert.Equal(t, int64(1), res.TripleCount)

	res = run(t, st, "SELECT * WHERE {?s ?p ?o}")
	assert.Equal(t, []string{"s", "p", "o"}, res.Variables)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, query.Row{
		"s": rdf.IRI("http://s"),
		"p": rdf.IRI("http://p1"),
		"o": rdf.Literal("baz"),
	}, res.Rows[0])

	res = run(t, st, "DELETE FROM <http://example.com/>")
	assert.Equal(t, int64(1), res.TripleCount)

	res = run(t, st, "SELECT * WHERE {?s ?p ?o}")
	assert.Empty(t, res.Rows)
}

func TestSelect_Join(t *testing.T) {
	st := testStore(t)
	run(t, st, people)

	res := run(t, st, `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT ?friend ?name WHERE {
  <http://ex/alice> foaf:knows ?friend .
  ?friend foaf:name ?name .
}`)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, rdf.IRI("http://ex/bob"), res.Rows[0]["friend"])
	assert.Equal(t, rdf.Literal("Bob"), res.Rows[0]["name"])
	assert.Equal(t, rdf.LangLiteral("Carol", "en"), res.Rows[1]["name"])

	res = run(t, st, `SELECT ?name WHERE { ?x <http://xmlns.com/foaf/0.1/name> "Alice" . ?x <http://xmlns.com/foaf/0.1/knows> _:f . _:f <http://xmlns.com/foaf/0.1/name> ?name }`)
	assert.Len(t, res.Rows, 2, "blank nodes join like variables")
}

func TestSelect_Modifiers(t *testing.T) {
	st := testStore(t)
	run(t, st, people)

	res := run(t, st, "SELECT (COUNT(*) AS ?t_count) WHERE { ?s ?p ?o }")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, rdf.TypedLiteral("5", "http://www.w3.org/2001/XMLSchema#integer"), res.Rows[0]["t_count"])

	res = run(t, st, "SELECT DISTINCT ?s WHERE { ?s ?p ?o }")
	assert.Len(t, res.Rows, 3)

	res = run(t, st, "SELECT ?s WHERE { ?s ?p ?o } LIMIT 2")
	assert.Len(t, res.Rows, 2)

	res = run(t, st, "SELECT ?s WHERE { ?s <http://unknown> ?o }")
	assert.Empty(t, res.Rows)
}

func TestSelect_FromGraphs(t *testing.T) {
	st := testStore(t)
	run(t, st, `INSERT INTO <http://g1> { <http://s> <http://p> "shared" . <http://s> <http://p> "one" . }`)
	run(t, st, `INSERT INTO <http://g2> { <http://s> <http://p> "shared" . }`)

	assert.Len(t, run(t, st, "SELECT * WHERE { ?s ?p ?o }").Rows, 2, "a triple in two graphs is reported once")
	assert.Len(t, run(t, st, "SELECT * FROM <http://g2> WHERE { ?s ?p ?o }").Rows, 1)
	assert.Len(t, run(t, st, "SELECT * FROM <http://g1> FROM <http://g2> WHERE { ?s ?p ?o }").Rows, 2)
	assert.Empty(t, run(t, st, "SELECT * FROM <http://none> WHERE { ?s ?p ?o }").Rows)
}

func TestAsk(t *testing.T) {
	st := testStore(t)
	run(t, st, people)

	assert.True(t, run(t, st, `ASK { <http://ex/bob> ?p "Bob" }`).Boolean)
	assert.False(t, run(t, st, `ASK { <http://ex/bob> ?p "Alice" }`).Boolean)
}

func TestDelete_Template(t *testing.T) {
	st := testStore(t)
	run(t, st, people)

	res := run(t, st, `DELETE FROM <http://example.com/people> { <http://ex/bob> <http://xmlns.com/foaf/0.1/name> "Bob" }`)
	assert.Equal(t, int64(1), res.TripleCount)
	assert.Len(t, run(t, st, "SELECT * WHERE { ?s ?p ?o }").Rows, 4)
}

func TestLoad(t *testing.T) {
	st := testStore(t)
	path := filepath.Join(t.TempDir(), "data.nt")
	require.NoError(t, os.WriteFile(path, []byte(
		"<http://s> <http://p> \"a\" .\n<http://s> <http://p> \"b\" <http://other> .\n"), 0o644))

	res := run(t, st, "LOAD <file://"+path+"> INTO <http://loaded>")
	assert.Equal(t, int64(2), res.TripleCount)
	assert.Len(t, run(t, st, "SELECT * FROM <http://loaded> WHERE { ?s ?p ?o }").Rows, 1)
	assert.Len(t, run(t, st, "SELECT * FROM <http://other> WHERE { ?s ?p ?o }").Rows, 1)
}

func TestLoad_Sources(t *testing.T) {
	_, err := handler.OpenFile(context.Background(), "http://example.com/data.nt")
	assert.True(t, quadrelerr.HasCode(err, quadrelerr.CodeQueryExecutionFailure))

	_, err = handler.OpenFile(context.Background(), filepath.Join(t.TempDir(), "missing.nt"))
	assert.True(t, quadrelerr.HasCode(err, quadrelerr.CodeQueryExecutionFailure))

	st := testStore(t)
	h := &handler.Update{
		Store: st,
		Open: func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("<http://s> <http://p> <http://o> .\n")), nil
		},
	}
	req, err := query.Parse("LOAD <mem:data>")
	require.NoError(t, err)
	res, err := h.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TripleCount)

	quads, err := st.Match(context.Background(), store.Pattern{Graph: "mem:data"})
	require.NoError(t, err)
	assert.Len(t, quads, 1)
}

func TestDump(t *testing.T) {
	st := testStore(t)
	run(t, st, `INSERT INTO <http://example.com/> { <http://s> <http://p1> "baz" . }`)

	res := run(t, st, "dump")
	assert.Equal(t, []string{"s", "p", "o", "g"}, res.Variables)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, rdf.IRI("http://example.com/"), res.Rows[0]["g"])
}

func TestDefaults_NoDescribeHandler(t *testing.T) {
	hs := handler.Defaults(testStore(t))
	_, ok := hs[query.TypeDescribe]
	assert.False(t, ok)
	_, ok = hs[query.TypeConstruct]
	assert.False(t, ok)
}
