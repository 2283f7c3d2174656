// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package rdf holds the term and quad value types stored by Quadrel.
package rdf

import (
	"strings"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Kind is the term kind persisted in the s_type and o_type columns.
type Kind int

const (
	KindIRI     Kind = 0
	KindBNode   Kind = 1
	KindLiteral Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "uri"
	case KindBNode:
		return "bnode"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is an RDF value. Lang and Datatype are only meaningful for literals
// and are mutually exclusive.
type Term struct {
	Kind     Kind   `json:"kind"`
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func IRI(v string) Term     { return Term{Kind: KindIRI, Value: v} }
func BNode(v string) Term   { return Term{Kind: KindBNode, Value: v} }
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Lang: lang}
}

func TypedLiteral(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// LangOrDatatype returns the language tag or datatype IRI of a literal, or "".
func (t Term) LangOrDatatype() string {
	if t.Lang != "" {
		return t.Lang
	}
	return t.Datatype
}

// String renders the term in N-Triples notation.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBNode:
		if strings.HasPrefix(t.Value, "_:") {
			return t.Value
		}
		return "_:" + t.Value
	default:
		s := `"` + literalEscaper.Replace(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	}
}

var (
	literalEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	literalUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
)

// ParseTerm reads a single term in N-Triples notation.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") && len(s) >= 2:
		return IRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:") && len(s) > 2:
		return BNode(s), nil
	case strings.HasPrefix(s, `"`):
		end := closingQuote(s)
		if end < 0 {
			break
		}
		t := Literal(literalUnescaper.Replace(s[1:end]))
		rest := s[end+1:]
		switch {
		case rest == "":
			return t, nil
		case strings.HasPrefix(rest, "@") && len(rest) > 1:
			t.Lang = rest[1:]
			return t, nil
		case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
			t.Datatype = rest[3 : len(rest)-1]
			return t, nil
		}
	}
	return Term{}, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "malformed term",
		quadrelerr.Field("term", s))
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// Quad is a triple placed in a named graph.
type Quad struct {
	Subject   Term   `json:"s"`
	Predicate string `json:"p"`
	Object    Term   `json:"o"`
	Graph     string `json:"g"`
}

// Validate rejects quads that cannot be stored.
func (q Quad) Validate() error {
	switch {
	case q.Subject.Value == "":
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "quad subject is empty")
	case q.Subject.Kind == KindLiteral:
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "quad subject must not be a literal",
			quadrelerr.Field("subject", q.Subject.Value))
	case q.Predicate == "":
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "quad predicate is empty")
	case q.Graph == "":
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "quad graph is empty")
	case q.Object.Lang != "" && q.Object.Datatype != "":
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "literal carries both language and datatype",
			quadrelerr.Field("object", q.Object.Value))
	}
	return nil
}

func (q Quad) String() string {
	return q.Subject.String() + " <" + q.Predicate + "> " + q.Object.String() + " <" + q.Graph + "> ."
}
