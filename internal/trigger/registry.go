// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package trigger

import (
	"sort"
	"sync"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Registry holds the triggers available to bindings, keyed by normalized
// name.
type Registry struct {
	mu       sync.RWMutex
	triggers map[string]Trigger
}

func NewRegistry() *Registry {
	return &Registry{triggers: make(map[string]Trigger)}
}

// Register adds t under name, replacing any trigger already registered
// under the same normalized name.
func (r *Registry) Register(name string, t Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.triggers[Normalize(name)] = t
}

func (r *Registry) Get(name string) (Trigger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.triggers[Normalize(name)]
	if !ok {
		return nil, quadrelerr.New(quadrelerr.CodeTriggerNotFound, "trigger not registered",
			quadrelerr.FieldTrigger(name))
	}

	return t, nil
}

// Names lists the registered triggers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.triggers))
	for n := range r.triggers {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}
