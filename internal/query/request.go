// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package query holds the request model handed to query handlers, the
// parser for the built-in query subset, and the result envelope.
package query

import (
	"strings"

	"github.com/quadrel-dev/quadrel/internal/rdf"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Type is the operation type of a request.
type Type string

const (
	TypeSelect    Type = "select"
	TypeAsk       Type = "ask"
	TypeDescribe  Type = "describe"
	TypeConstruct Type = "construct"
	TypeLoad      Type = "load"
	TypeInsert    Type = "insert"
	TypeDelete    Type = "delete"
	TypeDump      Type = "dump"
)

// SupportedTypes lists every type the pipeline accepts, in dispatch order.
var SupportedTypes = []Type{
	TypeSelect, TypeAsk, TypeDescribe, TypeConstruct,
	TypeLoad, TypeInsert, TypeDelete, TypeDump,
}

// Supported reports whether t is one of SupportedTypes.
func (t Type) Supported() bool {
	for _, s := range SupportedTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Format selects how a caller wants the envelope rendered.
type Format string

const (
	FormatEnvelope Format = ""
	FormatRaw      Format = "raw"
	FormatRows     Format = "rows"
	FormatRow      Format = "row"
	FormatInfos    Format = "infos"
)

// Node is one position of a triple pattern: a variable or a fixed term.
type Node struct {
	Var  string
	Term rdf.Term
}

func Variable(name string) Node { return Node{Var: name} }
func Fixed(t rdf.Term) Node     { return Node{Term: t} }

// IsVar reports whether the node is a variable.
func (n Node) IsVar() bool { return n.Var != "" }

// Hidden reports whether the variable stands in for a blank node and is
// therefore left out of SELECT * projections.
func (n Node) Hidden() bool { return strings.HasPrefix(n.Var, "_:") }

func (n Node) String() string {
	if n.IsVar() {
		if n.Hidden() {
			return n.Var
		}
		return "?" + n.Var
	}
	return n.Term.String()
}

// TriplePattern is a subject/predicate/object pattern.
type TriplePattern struct {
	Subject   Node
	Predicate Node
	Object    Node
}

// Request is a classified, parsed request.
type Request struct {
	Type Type
	Text string

	// Vars is the SELECT projection; nil means every visible variable.
	Vars     []string
	Distinct bool
	// Count, when set, is the alias of a COUNT(*) projection.
	Count string
	Limit int

	// Graphs restricts matching to the FROM graphs; empty means all graphs.
	Graphs      []string
	TargetGraph string
	Source      string

	Where    []TriplePattern
	Template []TriplePattern

	Format Format
}

// Variables returns the variables of Where in order of first appearance,
// hidden blank-node variables excluded.
func (r *Request) Variables() []string {
	var out []string
	seen := map[string]bool{}
	for _, tp := range r.Where {
		for _, n := range []Node{tp.Subject, tp.Predicate, tp.Object} {
			if !n.IsVar() || n.Hidden() || seen[n.Var] {
				continue
			}
			seen[n.Var] = true
			out = append(out, n.Var)
		}
	}
	return out
}

// Projection returns the variables a SELECT result carries.
func (r *Request) Projection() []string {
	if r.Count != "" {
		return []string{r.Count}
	}
	if r.Vars != nil {
		return r.Vars
	}
	return r.Variables()
}

// Quads converts the ground template into quads placed in graph.
func (r *Request) Quads(graph string) ([]rdf.Quad, error) {
	quads := make([]rdf.Quad, 0, len(r.Template))
	for _, tp := range r.Template {
		if tp.Subject.IsVar() || tp.Predicate.IsVar() || tp.Object.IsVar() {
			return nil, quadrelerr.New(quadrelerr.CodeQueryParseInvalid, "template contains variables",
				quadrelerr.FieldQueryType(string(r.Type)))
		}
		if tp.Predicate.Term.Kind != rdf.KindIRI {
			return nil, quadrelerr.New(quadrelerr.CodeQueryParseInvalid, "predicate must be an IRI",
				quadrelerr.FieldPredicate(tp.Predicate.Term.Value))
		}
		q := rdf.Quad{
			Subject:   tp.Subject.Term,
			Predicate: tp.Predicate.Term.Value,
			Object:    tp.Object.Term,
			Graph:     graph,
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
	return quads, nil
}
