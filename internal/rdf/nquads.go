// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package rdf

import (
	"bufio"
	"io"
	"strings"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// ReadNQuads reads N-Triples or N-Quads statements. Triples without a graph
// term are placed in defaultGraph.
func ReadNQuads(r io.Reader, defaultGraph string) ([]Quad, error) {
	var quads []Quad
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		q, err := parseStatement(text, defaultGraph)
		if err != nil {
			return nil, quadrelerr.With(err, quadrelerr.Field("line", line))
		}
		quads = append(quads, q)
	}
	if err := sc.Err(); err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeStoreInvalidInput, "reading statements")
	}
	return quads, nil
}

func parseStatement(text, defaultGraph string) (Quad, error) {
	var terms []Term
	rest := text
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" || rest[0] == '.' {
			break
		}
		t, tail, err := scanTerm(rest)
		if err != nil {
			return Quad{}, err
		}
		terms = append(terms, t)
		rest = tail
	}
	if strings.TrimSpace(strings.TrimPrefix(rest, ".")) != "" || !strings.HasPrefix(rest, ".") {
		return Quad{}, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "statement must end with '.'",
			quadrelerr.Field("statement", text))
	}
	if len(terms) != 3 && len(terms) != 4 {
		return Quad{}, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "statement needs three or four terms",
			quadrelerr.Field("statement", text))
	}
	if terms[1].Kind != KindIRI {
		return Quad{}, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "predicate must be an IRI",
			quadrelerr.Field("statement", text))
	}
	q := Quad{Subject: terms[0], Predicate: terms[1].Value, Object: terms[2], Graph: defaultGraph}
	if len(terms) == 4 {
		if terms[3].Kind != KindIRI {
			return Quad{}, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "graph must be an IRI",
				quadrelerr.Field("statement", text))
		}
		q.Graph = terms[3].Value
	}
	return q, q.Validate()
}

// scanTerm reads the term at the start of s and returns the remainder.
func scanTerm(s string) (Term, string, error) {
	end := -1
	switch {
	case strings.HasPrefix(s, "<"):
		end = strings.IndexByte(s, '>') + 1
	case strings.HasPrefix(s, "_:"):
		end = strings.IndexAny(s, " \t")
		if end < 0 {
			end = len(s)
		}
	case strings.HasPrefix(s, `"`):
		if q := closingQuote(s); q > 0 {
			end = q + 1
			switch rest := s[end:]; {
			case strings.HasPrefix(rest, "@"):
				n := 1
				for n < len(rest) && isLangChar(rest[n]) {
					n++
				}
				end += n
			case strings.HasPrefix(rest, "^^<"):
				if gt := strings.IndexByte(rest, '>'); gt > 0 {
					end += gt + 1
				}
			}
		}
	}
	if end <= 0 {
		return Term{}, "", quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "malformed term",
			quadrelerr.Field("term", s))
	}
	t, err := ParseTerm(s[:end])
	return t, s[end:], err
}

func isLangChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}
