// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func TestParse_Classification(t *testing.T) {
	tests := []struct {
		text string
		want query.Type
	}{
		{"SELECT * WHERE {?s ?p ?o}", query.TypeSelect},
		{"select ?s where { ?s ?p ?o . }", query.TypeSelect},
		{"ASK { ?s ?p ?o }", query.TypeAsk},
		{"DESCRIBE <http://s>", query.TypeDescribe},
		{"CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }", query.TypeConstruct},
		{"LOAD <file:///tmp/x.nt>", query.TypeLoad},
		{"INSERT INTO <http://g> { <http://s> <http://p> \"o\" }", query.TypeInsert},
		{"DELETE FROM <http://g>", query.TypeDelete},
		{"dump", query.TypeDump},
		{"DUMP everything", query.TypeDump},
		{"Dumpster", query.TypeDump},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			req, err := query.Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Type)
			assert.True(t, req.Type.Supported())
			assert.Equal(t, tt.text, req.Text)
		})
	}
}

func TestParse_UnknownTypeIsClassified(t *testing.T) {
	req, err := query.Parse("CLEAR GRAPH <http://g>")
	require.NoError(t, err)
	assert.Equal(t, query.Type("clear"), req.Type)
	assert.False(t, req.Type.Supported())
}

func TestParse_Select(t *testing.T) {
	req, err := query.Parse(`PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT DISTINCT ?s ?name FROM <http://g1> FROM <http://g2>
WHERE {
  ?s a foaf:Person ;
     foaf:name ?name , "Bob"@en .
  _:x foaf:knows ?s .
} LIMIT 10`)
	require.NoError(t, err)

	assert.True(t, req.Distinct)
	assert.Equal(t, []string{"s", "name"}, req.Vars)
	assert.Equal(t, []string{"http://g1", "http://g2"}, req.Graphs)
	assert.Equal(t, 10, req.Limit)
	require.Len(t, req.Where, 4)

	assert.Equal(t, query.Variable("s"), req.Where[0].Subject)
	assert.Equal(t, query.Fixed(rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")), req.Where[0].Predicate)
	assert.Equal(t, query.Fixed(rdf.IRI("http://xmlns.com/foaf/0.1/Person")), req.Where[0].Object)
	assert.Equal(t, query.Variable("name"), req.Where[1].Object)
	assert.Equal(t, query.Fixed(rdf.LangLiteral("Bob", "en")), req.Where[2].Object)

	assert.True(t, req.Where[3].Subject.Hidden())
	assert.Equal(t, []string{"s", "name"}, req.Variables(), "blank nodes are not projected")
}

func TestParse_SelectStarAndCount(t *testing.T) {
	req, err := query.Parse("SELECT * WHERE {?s ?p ?o.}")
	require.NoError(t, err)
	assert.Nil(t, req.Vars)
	assert.Equal(t, []string{"s", "p", "o"}, req.Projection())

	req, err = query.Parse("SELECT (COUNT(*) AS ?t_count) WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, "t_count", req.Count)
	assert.Equal(t, []string{"t_count"}, req.Projection())
}

func TestParse_Literals(t *testing.T) {
	req, err := query.Parse(`INSERT INTO <http://g> {
  <http://s> <http://p> "a \"quoted\"\nline" ;
             <http://p> 'single' ;
             <http://p> "2009-05-28"^^<http://www.w3.org/2001/XMLSchema#date> ;
             <http://p> 42, -1.5, true ;
             <http://p> _:b1 .
}`)
	require.NoError(t, err)
	quads, err := req.Quads(req.TargetGraph)
	require.NoError(t, err)
	require.Len(t, quads, 7)

	assert.Equal(t, rdf.Literal("a \"quoted\"\nline"), quads[0].Object)
	assert.Equal(t, rdf.Literal("single"), quads[1].Object)
	assert.Equal(t, rdf.TypedLiteral("2009-05-28", "http://www.w3.org/2001/XMLSchema#date"), quads[2].Object)
	assert.Equal(t, rdf.TypedLiteral("42", "http://www.w3.org/2001/XMLSchema#integer"), quads[3].Object)
	assert.Equal(t, rdf.TypedLiteral("-1.5", "http://www.w3.org/2001/XMLSchema#decimal"), quads[4].Object)
	assert.Equal(t, rdf.TypedLiteral("true", "http://www.w3.org/2001/XMLSchema#boolean"), quads[5].Object)
	assert.Equal(t, rdf.BNode("_:b1"), quads[6].Object, "template blank nodes stay terms")
	for _, q := range quads {
		assert.Equal(t, "http://g", q.Graph)
	}
}

func TestParse_DeleteAndLoad(t *testing.T) {
	req, err := query.Parse("DELETE FROM <http://example.com/>")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/", req.TargetGraph)
	assert.Empty(t, req.Template)

	req, err = query.Parse(`DELETE FROM <http://g> { <http://s> <http://p> "o" }`)
	require.NoError(t, err)
	assert.Len(t, req.Template, 1)

	req, err = query.Parse("LOAD <file:///data/a.nt>")
	require.NoError(t, err)
	assert.Equal(t, "file:///data/a.nt", req.Source)
	assert.Equal(t, "file:///data/a.nt", req.TargetGraph, "graph defaults to the source")

	req, err = query.Parse("LOAD <file:///data/a.nt> INTO <http://g>")
	require.NoError(t, err)
	assert.Equal(t, "http://g", req.TargetGraph)
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"SELECT WHERE { ?s ?p ?o }",
		"SELECT * WHERE { ?s ?p ?o",
		"SELECT * WHERE { \"lit\" ?p ?o }",
		"SELECT * WHERE { ?s ?p ?o } LIMIT x",
		"SELECT * WHERE { ?s ex:p ?o }",
		"SELECT * WHERE { <http://s ?p ?o }",
		`SELECT * WHERE { ?s ?p "unterminated }`,
		"INSERT INTO <http://g> { ?s <http://p> \"o\" }",
		"INSERT <http://g> { <http://s> <http://p> \"o\" }",
		"DELETE FROM <http://g> trailing",
		"SELECT * WHERE { ?s ?p ?o } }",
		"SELECT * WHERE { ?s ?p ?o } %",
	}
	for _, text := range tests {
		_, err := query.Parse(text)
		require.Error(t, err, text)
		assert.True(t, quadrelerr.HasCode(err, quadrelerr.CodeQueryParseInvalid), text)
	}
}

func TestEnvelope_Formats(t *testing.T) {
	var empty *query.Envelope
	assert.NotNil(t, empty.Raw())
	assert.Equal(t, []query.Row{}, empty.Rows())
	assert.Equal(t, query.Row{}, empty.Row())

	row := query.Row{"s": rdf.IRI("http://s")}
	env := &query.Envelope{
		QueryType: query.TypeSelect,
		Result:    &query.Result{Variables: []string{"s"}, Rows: []query.Row{row}},
		Request:   &query.Request{Type: query.TypeSelect},
	}
	assert.Same(t, env, env.Format(query.FormatEnvelope))
	assert.Same(t, env.Result, env.Format(query.FormatRaw))
	assert.Equal(t, []query.Row{row}, env.Format(query.FormatRows))
	assert.Equal(t, row, env.Format(query.FormatRow))
	assert.Same(t, env.Request, env.Format(query.FormatInfos))
}
