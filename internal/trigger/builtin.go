// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package trigger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// BuiltinConfig configures the triggers shipped with the store.
type BuiltinConfig struct {
	// QueryLogPath is the file the querylog trigger appends to.
	QueryLogPath string
}

// RegisterBuiltins adds querylog, optimize and split to r.
func RegisterBuiltins(r *Registry, cfg BuiltinConfig) {
	r.Register("querylog", &QueryLog{Path: cfg.QueryLogPath})
	r.Register("optimize", Func(Optimize))
	r.Register("split", Func(Split))
}

const queryLogTimeFormat = "2006-01-02T15:04:05Z"

// QueryLog appends each query to a log file as "<UTC timestamp> : <query>"
// followed by a blank line.
type QueryLog struct {
	Path string
	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

func (q *QueryLog) Run(_ context.Context, tc Context) (any, error) {
	if q.Path == "" {
		return nil, quadrelerr.New(quadrelerr.CodeTriggerRunFailure, "query log path not configured",
			quadrelerr.FieldTrigger("querylog"))
	}
	now := time.Now
	if q.Now != nil {
		now = q.Now
	}

	entry := now().UTC().Format(queryLogTimeFormat) + " : " + describe(tc) + "\n\n"

	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := os.OpenFile(q.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeTriggerRunFailure, "opening query log",
			quadrelerr.FieldTrigger("querylog"), quadrelerr.Field("path", q.Path))
	}
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeTriggerRunFailure, "writing query log",
			quadrelerr.FieldTrigger("querylog"), quadrelerr.Field("path", q.Path))
	}
	if err := f.Close(); err != nil {
		return nil, quadrelerr.Wrap(err, quadrelerr.CodeTriggerRunFailure, "closing query log",
			quadrelerr.FieldTrigger("querylog"))
	}
	return nil, nil
}

// describe returns the query text, or a short form for requests built
// without one.
func describe(tc Context) string {
	if tc.Request != nil && tc.Request.Text != "" {
		return tc.Request.Text
	}
	if tc.Request != nil && tc.Request.TargetGraph != "" {
		return fmt.Sprintf("%s <%s>", tc.Type, tc.Request.TargetGraph)
	}
	return string(tc.Type)
}

// Optimize runs table optimization on the triple tables and reports how many
// tables were processed.
func Optimize(ctx context.Context, tc Context) (any, error) {
	rows, err := tc.Store.OptimizeTables(ctx, store.LevelTriples)
	if err != nil {
		return nil, err
	}
	return len(rows), nil
}

// Split moves frequent predicates into their own tables and returns the
// predicates split off by this run.
func Split(ctx context.Context, tc Context) (any, error) {
	added, err := tc.Store.SplitTables(ctx)
	if err != nil {
		return nil, err
	}
	return added, nil
}
