// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package query

import (
	"fmt"
	"strings"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokBNode
	tokString
	tokLangTag
	tokDatatypeMark
	tokNumber
	tokWord
	tokPunct
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func (t token) is(kind tokenKind, val string) bool {
	return t.kind == kind && strings.EqualFold(t.val, val)
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q", t.val)
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return quadrelerr.New(quadrelerr.CodeQueryParseInvalid, fmt.Sprintf(format, args...),
		quadrelerr.Field("position", pos))
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= 0x80
}

func isNameChar(c byte) bool { return isNameStart(c) || isDigit(c) || c == '-' }

func (l *lexer) name() string {
	start := l.pos
	for l.pos < len(l.src) && isNameChar(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	rest := l.src[l.pos:]
	c := rest[0]

	switch {
	case c == '<':
		end := strings.IndexAny(rest, "> \t\n")
		if end < 0 || rest[end] != '>' {
			return token{}, l.errorf(start, "unterminated IRI")
		}
		l.pos += end + 1
		return token{tokIRI, rest[1:end], start}, nil

	case c == '?' || c == '$':
		l.pos++
		v := l.name()
		if v == "" {
			return token{}, l.errorf(start, "empty variable name")
		}
		return token{tokVar, v, start}, nil

	case c == '"' || c == '\'':
		return l.quoted(c)

	case c == '@':
		l.pos++
		tag := l.name()
		if tag == "" {
			return token{}, l.errorf(start, "empty language tag")
		}
		return token{tokLangTag, tag, start}, nil

	case strings.HasPrefix(rest, "^^"):
		l.pos += 2
		return token{tokDatatypeMark, "^^", start}, nil

	case strings.HasPrefix(rest, "_:"):
		l.pos += 2
		label := l.name()
		if label == "" {
			return token{}, l.errorf(start, "empty blank node label")
		}
		return token{tokBNode, "_:" + label, start}, nil

	case strings.IndexByte("{}.;,()*", c) >= 0:
		l.pos++
		return token{tokPunct, string(c), start}, nil

	case isDigit(c) || (c == '-' || c == '+') && len(rest) > 1 && isDigit(rest[1]):
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
		return token{tokNumber, l.src[start:l.pos], start}, nil

	case c == ':':
		l.pos++
		return token{tokPName, ":" + l.name(), start}, nil

	case isNameStart(c):
		word := l.name()
		if l.pos < len(l.src) && l.src[l.pos] == ':' {
			l.pos++
			return token{tokPName, word + ":" + l.name(), start}, nil
		}
		return token{tokWord, word, start}, nil
	}

	return token{}, l.errorf(start, "unexpected character %q", c)
}

func (l *lexer) quoted(q byte) (token, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case q:
			l.pos++
			return token{tokString, b.String(), start}, nil
		case '\n':
			return token{}, l.errorf(start, "line break in string")
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, l.errorf(start, "unterminated string")
			}
			l.pos++
			switch e := l.src[l.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\'', '\\':
				b.WriteByte(e)
			default:
				return token{}, l.errorf(l.pos-1, "unknown escape \\%c", e)
			}
		default:
			b.WriteByte(c)
		}
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated string")
}
