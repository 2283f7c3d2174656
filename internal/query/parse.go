// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package query

import (
	"strconv"
	"strings"

	"github.com/quadrel-dev/quadrel/internal/rdf"
)

const (
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// IsDump reports whether text uses the dump shortcut.
func IsDump(text string) bool {
	return len(text) >= 4 && strings.EqualFold(text[:4], "dump")
}

// Parse classifies text and parses the built-in subset:
//
//	SELECT [DISTINCT] (* | ?v ... | (COUNT(*) AS ?n)) [FROM <g>]... [WHERE] { triples } [LIMIT n]
//	ASK [FROM <g>]... [WHERE] { triples }
//	INSERT INTO <g> { triples }
//	DELETE FROM <g> [{ triples }]
//	LOAD <source> [INTO <g>]
//
// Requests of any other type are classified but not parsed further; an
// unknown leading keyword yields a request whose Type is not Supported.
func Parse(text string) (*Request, error) {
	if IsDump(text) {
		return &Request{Type: TypeDump, Text: text}, nil
	}

	p := &parser{lex: lexer{src: text}, prefixes: map[string]string{}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.prologue(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokWord {
		return nil, p.errorf("expected query keyword, got %s", p.tok)
	}

	req := &Request{Type: Type(strings.ToLower(p.tok.val)), Text: text}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var err error
	switch req.Type {
	case TypeSelect:
		err = p.selectQuery(req)
	case TypeAsk:
		err = p.askQuery(req)
	case TypeInsert:
		err = p.insertQuery(req)
	case TypeDelete:
		err = p.deleteQuery(req)
	case TypeLoad:
		err = p.loadQuery(req)
	default:
		return req, nil
	}
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s after query", p.tok)
	}
	return req, nil
}

type parser struct {
	lex      lexer
	tok      token
	prefixes map[string]string
}

func (p *parser) errorf(format string, args ...any) error {
	return p.lex.errorf(p.tok.pos, format, args...)
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) accept(kind tokenKind, val string) (bool, error) {
	if !p.tok.is(kind, val) {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) expect(kind tokenKind, val string) error {
	ok, err := p.accept(kind, val)
	if err != nil {
		return err
	}
	if !ok {
		return p.errorf("expected %q, got %s", val, p.tok)
	}
	return nil
}

func (p *parser) iri() (string, error) {
	switch p.tok.kind {
	case tokIRI:
		v := p.tok.val
		return v, p.advance()
	case tokPName:
		v, err := p.expand(p.tok.val)
		if err != nil {
			return "", err
		}
		return v, p.advance()
	}
	return "", p.errorf("expected IRI, got %s", p.tok)
}

func (p *parser) expand(pname string) (string, error) {
	i := strings.IndexByte(pname, ':')
	ns, ok := p.prefixes[pname[:i]]
	if !ok {
		return "", p.errorf("undeclared prefix %q", pname[:i])
	}
	return ns + pname[i+1:], nil
}

func (p *parser) prologue() error {
	for p.tok.is(tokWord, "PREFIX") {
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.kind != tokPName || !strings.HasSuffix(p.tok.val, ":") {
			return p.errorf("expected prefix name, got %s", p.tok)
		}
		name := strings.TrimSuffix(p.tok.val, ":")
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.kind != tokIRI {
			return p.errorf("expected namespace IRI, got %s", p.tok)
		}
		p.prefixes[name] = p.tok.val
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) selectQuery(req *Request) error {
	var err error
	if req.Distinct, err = p.accept(tokWord, "DISTINCT"); err != nil {
		return err
	}

	switch {
	case p.tok.is(tokPunct, "*"):
		if err := p.advance(); err != nil {
			return err
		}
	case p.tok.is(tokPunct, "("):
		if req.Count, err = p.countProjection(); err != nil {
			return err
		}
	default:
		for p.tok.kind == tokVar {
			req.Vars = append(req.Vars, p.tok.val)
			if err := p.advance(); err != nil {
				return err
			}
		}
		if len(req.Vars) == 0 {
			return p.errorf("expected projection, got %s", p.tok)
		}
	}

	if err := p.dataset(req); err != nil {
		return err
	}
	if req.Where, err = p.where(); err != nil {
		return err
	}

	if ok, err := p.accept(tokWord, "LIMIT"); err != nil || !ok {
		return err
	}
	if p.tok.kind != tokNumber {
		return p.errorf("expected limit, got %s", p.tok)
	}
	n, convErr := strconv.Atoi(p.tok.val)
	if convErr != nil || n < 0 {
		return p.errorf("invalid limit %s", p.tok)
	}
	req.Limit = n
	return p.advance()
}

func (p *parser) countProjection() (string, error) {
	for _, want := range []struct {
		kind tokenKind
		val  string
	}{{tokPunct, "("}, {tokWord, "COUNT"}, {tokPunct, "("}, {tokPunct, "*"}, {tokPunct, ")"}, {tokWord, "AS"}} {
		if err := p.expect(want.kind, want.val); err != nil {
			return "", err
		}
	}
	if p.tok.kind != tokVar {
		return "", p.errorf("expected count alias, got %s", p.tok)
	}
	alias := p.tok.val
	if err := p.advance(); err != nil {
		return "", err
	}
	return alias, p.expect(tokPunct, ")")
}

func (p *parser) askQuery(req *Request) error {
	if err := p.dataset(req); err != nil {
		return err
	}
	var err error
	req.Where, err = p.where()
	return err
}

func (p *parser) dataset(req *Request) error {
	for p.tok.is(tokWord, "FROM") {
		if err := p.advance(); err != nil {
			return err
		}
		g, err := p.iri()
		if err != nil {
			return err
		}
		req.Graphs = append(req.Graphs, g)
	}
	return nil
}

func (p *parser) where() ([]TriplePattern, error) {
	if _, err := p.accept(tokWord, "WHERE"); err != nil {
		return nil, err
	}
	return p.group(true)
}

func (p *parser) insertQuery(req *Request) error {
	if err := p.expect(tokWord, "INTO"); err != nil {
		return err
	}
	g, err := p.iri()
	if err != nil {
		return err
	}
	req.TargetGraph = g
	if req.Template, err = p.group(false); err != nil {
		return err
	}
	_, err = req.Quads(g)
	return err
}

func (p *parser) deleteQuery(req *Request) error {
	if err := p.expect(tokWord, "FROM"); err != nil {
		return err
	}
	g, err := p.iri()
	if err != nil {
		return err
	}
	req.TargetGraph = g
	if !p.tok.is(tokPunct, "{") {
		return nil
	}
	if req.Template, err = p.group(false); err != nil {
		return err
	}
	_, err = req.Quads(g)
	return err
}

func (p *parser) loadQuery(req *Request) error {
	src, err := p.iri()
	if err != nil {
		return err
	}
	req.Source = src
	req.TargetGraph = src
	if ok, err := p.accept(tokWord, "INTO"); err != nil || !ok {
		return err
	}
	req.TargetGraph, err = p.iri()
	return err
}

// group parses { triples }. In patterns, blank nodes become hidden
// variables.
func (p *parser) group(pattern bool) ([]TriplePattern, error) {
	if err := p.expect(tokPunct, "{"); err != nil {
		return nil, err
	}
	var out []TriplePattern
	for !p.tok.is(tokPunct, "}") {
		subj, err := p.node(pattern)
		if err != nil {
			return nil, err
		}
		if !subj.IsVar() && subj.Term.Kind == rdf.KindLiteral {
			return nil, p.errorf("literal in subject position")
		}
		if out, err = p.predicateObjects(out, subj, pattern); err != nil {
			return nil, err
		}
		if _, err := p.accept(tokPunct, "."); err != nil {
			return nil, err
		}
	}
	return out, p.advance()
}

func (p *parser) predicateObjects(out []TriplePattern, subj Node, pattern bool) ([]TriplePattern, error) {
	for {
		pred, err := p.verb()
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.node(pattern)
			if err != nil {
				return nil, err
			}
			out = append(out, TriplePattern{Subject: subj, Predicate: pred, Object: obj})
			if ok, err := p.accept(tokPunct, ","); err != nil {
				return nil, err
			} else if !ok {
				break
			}
		}
		if ok, err := p.accept(tokPunct, ";"); err != nil || !ok {
			return out, err
		}
		if p.tok.is(tokPunct, ".") || p.tok.is(tokPunct, "}") {
			return out, nil
		}
	}
}

func (p *parser) verb() (Node, error) {
	switch {
	case p.tok.kind == tokVar:
		n := Variable(p.tok.val)
		return n, p.advance()
	case p.tok.kind == tokWord && p.tok.val == "a":
		return Fixed(rdf.IRI(rdfType)), p.advance()
	}
	iri, err := p.iri()
	if err != nil {
		return Node{}, err
	}
	return Fixed(rdf.IRI(iri)), nil
}

func (p *parser) node(pattern bool) (Node, error) {
	t := p.tok
	switch t.kind {
	case tokVar:
		return Variable(t.val), p.advance()
	case tokBNode:
		if pattern {
			return Variable(t.val), p.advance()
		}
		return Fixed(rdf.BNode(t.val)), p.advance()
	case tokIRI, tokPName:
		iri, err := p.iri()
		return Fixed(rdf.IRI(iri)), err
	case tokNumber:
		dt := xsdInteger
		if strings.Contains(t.val, ".") {
			dt = xsdDecimal
		}
		return Fixed(rdf.TypedLiteral(t.val, dt)), p.advance()
	case tokWord:
		if t.val == "true" || t.val == "false" {
			return Fixed(rdf.TypedLiteral(t.val, xsdBoolean)), p.advance()
		}
	case tokString:
		return p.literal()
	}
	return Node{}, p.errorf("expected term, got %s", t)
}

func (p *parser) literal() (Node, error) {
	lit := rdf.Literal(p.tok.val)
	if err := p.advance(); err != nil {
		return Node{}, err
	}
	switch p.tok.kind {
	case tokLangTag:
		lit.Lang = p.tok.val
		return Fixed(lit), p.advance()
	case tokDatatypeMark:
		if err := p.advance(); err != nil {
			return Node{}, err
		}
		dt, err := p.iri()
		lit.Datatype = dt
		return Fixed(lit), err
	}
	return Fixed(lit), nil
}
