// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package pipeline

import (
	"context"

	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/trigger"
)

type inTriggersKey struct{}

// ProcessTriggers runs the triggers bound to req's type in order. Queries
// issued by a trigger do not fire triggers themselves. Unknown triggers are
// skipped and failures are recorded in the results, never returned.
func (p *Pipeline) ProcessTriggers(ctx context.Context, req *query.Request) []query.TriggerResult {
	if ctx.Value(inTriggersKey{}) != nil {
		return nil
	}
	names := p.bindings.For(req.Type)
	if len(names) == 0 {
		return nil
	}
	ctx = context.WithValue(ctx, inTriggersKey{}, true)

	tc := trigger.Context{
		Type:    req.Type,
		Request: req,
		Store:   p.store,
		Logger:  p.logger,
	}

	results := make([]query.TriggerResult, 0, len(names))
	for _, name := range names {
		t, err := p.triggers.Get(name)
		if err != nil {
			p.logger.Debug("skipping unknown trigger", "trigger", name, "type", req.Type)
			continue
		}

		value, err := t.Run(ctx, tc)
		p.metrics.ObserveTrigger(trigger.Normalize(name), err)

		r := query.TriggerResult{Trigger: trigger.Normalize(name), Value: value}
		if err != nil {
			p.logger.Warn("trigger failed", "trigger", name, "type", req.Type, "error", err)
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}
