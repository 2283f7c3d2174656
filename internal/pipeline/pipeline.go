// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package pipeline routes queries and updates to their handlers, brackets
// selects with a queue ticket and runs the triggers bound to each type.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/quadrel-dev/quadrel/internal/handler"
	"github.com/quadrel-dev/quadrel/internal/metrics"
	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/store"
	"github.com/quadrel-dev/quadrel/internal/trigger"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Options configures a Pipeline. Every field is optional.
type Options struct {
	// Handlers overrides the built-in handlers per type.
	Handlers map[query.Type]query.Handler
	// Triggers resolves the names in Bindings. Nil means an empty registry.
	Triggers *trigger.Registry
	Bindings trigger.Bindings
	// Metrics may be nil; observations are then dropped.
	Metrics *metrics.Metrics
	// Logger defaults to the store's logger.
	Logger *slog.Logger
}

// Pipeline runs queries and updates against one store.
type Pipeline struct {
	store    *store.Store
	handlers map[query.Type]query.Handler
	triggers *trigger.Registry
	bindings trigger.Bindings
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New returns a pipeline over st with the built-in handlers, overridden by
// opts.Handlers.
func New(st *store.Store, opts Options) *Pipeline {
	handlers := handler.Defaults(st)
	for t, h := range opts.Handlers {
		handlers[t] = h
	}

	triggers := opts.Triggers
	if triggers == nil {
		triggers = trigger.NewRegistry()
	}

	logger := opts.Logger
	if logger == nil {
		logger = st.Logger()
	}

	return &Pipeline{
		store:    st,
		handlers: handlers,
		triggers: triggers,
		bindings: opts.Bindings,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "pipeline"),
	}
}

// Store returns the store the pipeline writes to.
func (p *Pipeline) Store() *store.Store { return p.store }

// Query parses text and runs it. Types outside query.SupportedTypes are
// rejected before the backend is touched.
func (p *Pipeline) Query(ctx context.Context, text string) (*query.Envelope, error) {
	req, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	if !req.Type.Supported() {
		return nil, quadrelerr.New(quadrelerr.CodeQueryTypeUnsupported, "unsupported query type",
			quadrelerr.FieldQueryType(string(req.Type)))
	}
	return p.RunQuery(ctx, req)
}

// RunQuery dispatches req to the handler for its type.
func (p *Pipeline) RunQuery(ctx context.Context, req *query.Request) (*query.Envelope, error) {
	h, ok := p.handlers[req.Type]
	if !ok {
		return nil, quadrelerr.New(quadrelerr.CodeQueryHandlerNotFound, "no handler for query type",
			quadrelerr.FieldQueryType(string(req.Type)))
	}
	return p.run(ctx, req, h)
}

// run executes h for req. Selects issued with query text hold a queue
// ticket for the duration of the handler. Triggers run whatever the
// handler's outcome; on failure the envelope comes back without a Result
// next to the error.
func (p *Pipeline) run(ctx context.Context, req *query.Request, h query.Handler) (*query.Envelope, error) {
	start := time.Now()

	queued := req.Type == query.TypeSelect && req.Text != ""
	var ticket store.Ticket
	if queued {
		var err error
		ticket, err = p.store.GetQueueTicket(ctx)
		if err != nil {
			return nil, err
		}
		if !ticket.Held() {
			p.logger.Warn("running select without a queue ticket")
			p.metrics.QueueBypassed()
		}
	}

	res, err := h.Run(ctx, req)

	if queued {
		if rerr := p.store.RemoveQueueTicket(ctx, ticket); rerr != nil {
			p.logger.Warn("removing queue ticket", "ticket", string(ticket), "error", rerr)
		}
	}

	triggerResults := p.ProcessTriggers(ctx, req)

	elapsed := time.Since(start)
	p.metrics.ObserveQuery(string(req.Type), elapsed, err)
	if err != nil {
		p.logger.Debug("query failed", "type", req.Type, "error", err)
		return &query.Envelope{
			QueryType:      req.Type,
			QueryTime:      elapsed,
			TriggerResults: triggerResults,
			Request:        req,
		}, err
	}

	switch req.Type {
	case query.TypeInsert, query.TypeLoad:
		p.metrics.TriplesInserted(res.TripleCount)
	case query.TypeDelete:
		p.metrics.TriplesDeleted(res.TripleCount)
	}

	return &query.Envelope{
		QueryType:      req.Type,
		Result:         res,
		QueryTime:      elapsed,
		TriggerResults: triggerResults,
		Request:        req,
	}, nil
}
