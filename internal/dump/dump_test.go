// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package dump_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/dump"
	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteQuads_SingleQuad(t *testing.T) {
	var buf bytes.Buffer
	err := dump.WriteQuads(&buf, []rdf.Quad{{
		Subject:   rdf.IRI("http://s"),
		Predicate: "http://p1",
		Object:    rdf.Literal("baz"),
		Graph:     "http://example.com/",
	}})
	require.NoError(t, err)
	golden(t).Assert(t, "single_quad", buf.Bytes())
}

func TestWriteQuads_TermKinds(t *testing.T) {
	var buf bytes.Buffer
	err := dump.WriteQuads(&buf, []rdf.Quad{
		{Subject: rdf.BNode("_:b0"), Predicate: "http://p", Object: rdf.LangLiteral("chat & chien", "fr"), Graph: "http://g?a=1&b=2"},
		{Subject: rdf.IRI("http://s"), Predicate: "http://p", Object: rdf.TypedLiteral("42", "http://www.w3.org/2001/XMLSchema#integer"), Graph: "http://g"},
		{Subject: rdf.IRI("http://s"), Predicate: "http://p", Object: rdf.Literal(`<b>"bold"</b>`), Graph: "http://g"},
	})
	require.NoError(t, err)
	golden(t).Assert(t, "term_kinds", buf.Bytes())
}

func TestWriteQuads_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dump.WriteQuads(&buf, nil))
	golden(t).Assert(t, "empty", buf.Bytes())
}

func TestWriteResult_SkipsUnbound(t *testing.T) {
	var buf bytes.Buffer
	err := dump.WriteResult(&buf, &query.Result{
		Variables: []string{"s", "name"},
		Rows:      []query.Row{{"s": rdf.IRI("http://s")}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<variable name="name"/>`)
	assert.NotContains(t, buf.String(), `<binding name="name">`)
}

func TestEncoder_Closed(t *testing.T) {
	var buf bytes.Buffer
	enc := dump.NewEncoder(&buf, dump.QuadVariables)
	require.NoError(t, enc.Close())
	require.NoError(t, enc.Close(), "closing twice is harmless")

	err := enc.Encode(query.Row{})
	assert.True(t, quadrelerr.HasCode(err, quadrelerr.CodeDumpWriteFailure))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncoder_WriteFailure(t *testing.T) {
	err := dump.WriteQuads(failingWriter{}, []rdf.Quad{{
		Subject: rdf.IRI("http://s"), Predicate: "http://p", Object: rdf.Literal("o"), Graph: "http://g",
	}})
	require.Error(t, err)
	assert.True(t, quadrelerr.HasCode(err, quadrelerr.CodeDumpWriteFailure))
	assert.Contains(t, err.Error(), "disk full")
}
