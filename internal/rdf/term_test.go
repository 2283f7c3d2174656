// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package rdf_test

import (
	"testing"

	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want rdf.Term
	}{
		{"iri", "<http://s>", rdf.IRI("http://s")},
		{"bnode", "_:b0", rdf.BNode("_:b0")},
		{"plain literal", `"baz"`, rdf.Literal("baz")},
		{"lang literal", `"chat"@fr`, rdf.LangLiteral("chat", "fr")},
		{"typed literal", `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`,
			rdf.TypedLiteral("1", "http://www.w3.org/2001/XMLSchema#integer")},
		{"escaped quote", `"say \"hi\""`, rdf.Literal(`say "hi"`)},
		{"surrounding space", "  <http://x>  ", rdf.IRI("http://x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rdf.ParseTerm(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTerm_Malformed(t *testing.T) {
	for _, in := range []string{"", "http://s", `"unterminated`, `"x"@`, "_:"} {
		_, err := rdf.ParseTerm(in)
		require.Error(t, err, in)
		assert.True(t, quadrelerr.IsInvalidInput(err), in)
	}
}

func TestTerm_StringRoundTrip(t *testing.T) {
	for _, term := range []rdf.Term{
		rdf.IRI("http://example.com/a"),
		rdf.BNode("_:n1"),
		rdf.Literal("line\nbreak"),
		rdf.LangLiteral("hello", "en"),
		rdf.TypedLiteral("2", "http://www.w3.org/2001/XMLSchema#int"),
	} {
		got, err := rdf.ParseTerm(term.String())
		require.NoError(t, err)
		assert.Equal(t, term, got)
	}
}

func TestQuad_Validate(t *testing.T) {
	ok := rdf.Quad{
		Subject:   rdf.IRI("http://s"),
		Predicate: "http://p1",
		Object:    rdf.Literal("baz"),
		Graph:     "http://example.com/",
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Subject = rdf.Literal("x")
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Graph = ""
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Object = rdf.Term{Kind: rdf.KindLiteral, Value: "x", Lang: "en", Datatype: "http://d"}
	assert.Error(t, bad.Validate())
}
