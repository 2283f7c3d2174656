// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package query

import (
	"context"
	"time"

	"github.com/quadrel-dev/quadrel/internal/rdf"
)

// Handler runs requests of one type.
type Handler interface {
	Run(ctx context.Context, req *Request) (*Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (*Result, error)

func (f HandlerFunc) Run(ctx context.Context, req *Request) (*Result, error) { return f(ctx, req) }

// Row binds variable names to terms.
type Row map[string]rdf.Term

// Result is what a handler returns.
type Result struct {
	Variables []string `json:"variables,omitempty"`
	Rows      []Row    `json:"rows,omitempty"`
	// Boolean is the answer of an ASK request.
	Boolean bool `json:"boolean,omitempty"`
	// TripleCount is the number of triples an update added or removed.
	TripleCount int64 `json:"t_count,omitempty"`
}

// TriggerResult is the outcome of one trigger run.
type TriggerResult struct {
	Trigger string `json:"trigger"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Envelope wraps a handler result with request metadata.
type Envelope struct {
	QueryType      Type            `json:"query_type"`
	Result         *Result         `json:"result"`
	QueryTime      time.Duration   `json:"query_time"`
	TriggerResults []TriggerResult `json:"trigger_results,omitempty"`
	// Request is the parsed request; it is the whole answer for FormatInfos.
	Request *Request `json:"-"`
}

// Raw returns the handler result, never nil.
func (e *Envelope) Raw() *Result {
	if e == nil || e.Result == nil {
		return &Result{}
	}
	return e.Result
}

// Rows returns the result rows, never nil.
func (e *Envelope) Rows() []Row {
	if rows := e.Raw().Rows; rows != nil {
		return rows
	}
	return []Row{}
}

// Row returns the first result row, or an empty row.
func (e *Envelope) Row() Row {
	if rows := e.Rows(); len(rows) > 0 {
		return rows[0]
	}
	return Row{}
}

// Format renders the envelope the way f asks for.
func (e *Envelope) Format(f Format) any {
	switch f {
	case FormatRaw:
		return e.Raw()
	case FormatRows:
		return e.Rows()
	case FormatRow:
		return e.Row()
	case FormatInfos:
		return e.Request
	}
	return e
}
