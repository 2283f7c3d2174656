// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func TestInsertMatchDelete(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	added, err := st.Insert(ctx, []rdf.Quad{sampleQuad()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	quads, err := st.Match(ctx, store.Pattern{})
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, sampleQuad(), quads[0])

	removed, err := st.DeleteGraph(ctx, "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	quads, err = st.Match(ctx, store.Pattern{})
	require.NoError(t, err)
	assert.Empty(t, quads)

	n, err := st.Adapter().RowCount(ctx, "SELECT t FROM test_triple")
	require.NoError(t, err)
	assert.Zero(t, n, "orphaned triples are removed")
}

func TestInsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	_, err := st.Insert(ctx, []rdf.Quad{sampleQuad()})
	require.NoError(t, err)
	added, err := st.Insert(ctx, []rdf.Quad{sampleQuad()})
	require.NoError(t, err)
	assert.Zero(t, added)

	n, err := st.TripleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInsert_SharedTripleAcrossGraphs(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	q1 := sampleQuad()
	q2 := sampleQuad()
	q2.Graph = "http://example.com/other"
	added, err := st.Insert(ctx, []rdf.Quad{q1, q2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	n, err := st.Adapter().RowCount(ctx, "SELECT t FROM test_triple")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "one triple row placed in two graphs")

	_, err = st.DeleteGraph(ctx, q1.Graph)
	require.NoError(t, err)

	quads, err := st.Match(ctx, store.Pattern{})
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, q2, quads[0])
}

func TestInsert_TermKinds(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	g := "http://example.com/g"

	in := []rdf.Quad{
		quad("http://s", "http://p", rdf.IRI("http://o"), g),
		{Subject: rdf.BNode("_:b1"), Predicate: "http://p", Object: rdf.BNode("_:b2"), Graph: g},
		quad("http://s", "http://label", rdf.LangLiteral("chat", "fr"), g),
		quad("http://s", "http://age", rdf.TypedLiteral("42", "http://www.w3.org/2001/XMLSchema#integer"), g),
		quad("http://s", "http://label", rdf.Literal("chat"), g),
	}
	added, err := st.Insert(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(len(in)), added)

	out, err := st.Match(ctx, store.Pattern{Graph: g})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMatch_Patterns(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	g := "http://example.com/g"

	_, err := st.Insert(ctx, []rdf.Quad{
		quad("http://a", "http://knows", rdf.IRI("http://b"), g),
		quad("http://a", "http://name", rdf.Literal("A"), g),
		quad("http://b", "http://name", rdf.Literal("B"), g),
		quad("http://b", "http://name", rdf.Literal("B"), "http://example.com/h"),
	})
	require.NoError(t, err)

	a := rdf.IRI("http://a")
	got, err := st.Match(ctx, store.Pattern{Subject: &a})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = st.Match(ctx, store.Pattern{Predicate: "http://name"})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = st.Match(ctx, store.Pattern{Predicate: "http://name", Graph: g})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	lit := rdf.Literal("B")
	got, err = st.Match(ctx, store.Pattern{Object: &lit})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// A literal and an IRI with the same text are different terms.
	asIRI := rdf.IRI("B")
	got, err = st.Match(ctx, store.Pattern{Object: &asIRI})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = st.Match(ctx, store.Pattern{Predicate: "http://unknown"})
	require.NoError(t, err)
	assert.Empty(t, got)

	graphs, err := st.Graphs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{g, "http://example.com/h"}, graphs)
}

func TestInsert_RejectsInvalidQuad(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	bad := sampleQuad()
	bad.Graph = ""
	_, err := st.Insert(ctx, []rdf.Quad{bad})
	require.Error(t, err)
	assert.True(t, quadrelerr.IsInvalidInput(err))
}

func TestDeleteGraph_Unknown(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	n, err := st.DeleteGraph(ctx, "http://nowhere/")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = st.DeleteGraph(ctx, "")
	assert.True(t, quadrelerr.IsInvalidInput(err))
}

func TestDeleteQuads(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	g1, g2 := "http://example.com/1", "http://example.com/2"
	shared := quad("http://s", "http://p", rdf.Literal("shared"), g1)
	_, err := st.Insert(ctx, []rdf.Quad{
		shared,
		quad("http://s", "http://p", rdf.Literal("shared"), g2),
		quad("http://s", "http://p", rdf.LangLiteral("only", "en"), g1),
	})
	require.NoError(t, err)

	removed, err := st.DeleteQuads(ctx, []rdf.Quad{
		shared,
		quad("http://s", "http://p", rdf.LangLiteral("only", "en"), g1),
		quad("http://unknown", "http://p", rdf.Literal("x"), g1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	quads, err := st.Match(ctx, store.Pattern{})
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, g2, quads[0].Graph, "the copy in the other graph survives")

	n, err := st.Adapter().RowCount(ctx, "SELECT t FROM test_triple")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
