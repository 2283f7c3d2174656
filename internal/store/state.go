// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// State is the schema lifecycle state of a store.
type State int

const (
	StateAbsent State = iota
	StateInitializing
	StateReady
	StateSplitting
	StateExtending
	StateRenaming
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSplitting:
		return "splitting"
	case StateExtending:
		return "extending"
	case StateRenaming:
		return "renaming"
	case StateDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// validTransitions defines allowed state transitions as an adjacency list.
// Failed operations return to the state they started from.
var validTransitions = map[State]map[State]bool{
	StateAbsent: {
		StateInitializing: true,
		StateDropped:      true,
	},
	StateInitializing: {
		StateReady:  true,
		StateAbsent: true,
	},
	StateReady: {
		StateInitializing: true,
		StateSplitting:    true,
		StateExtending:    true,
		StateRenaming:     true,
		StateDropped:      true,
	},
	StateSplitting: {
		StateReady: true,
	},
	StateExtending: {
		StateReady: true,
	},
	StateRenaming: {
		StateReady: true,
	},
	StateDropped: {},
}

// ValidTransition returns true if transitioning from one state to another is allowed.
func ValidTransition(from, to State) bool {
	allowed, exists := validTransitions[from][to]
	return exists && allowed
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// transitionTo moves the store to a new state. A store opened before its
// tables were created by another process is promoted to ready first.
func (s *Store) transitionTo(ctx context.Context, to State) error {
	if s.State() == StateAbsent && to != StateInitializing && s.IsSetUp(ctx) {
		s.mu.Lock()
		if s.state == StateAbsent {
			s.state = StateReady
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ValidTransition(s.state, to) {
		if s.state == StateAbsent {
			return quadrelerr.New(quadrelerr.CodeStoreSchemaNotReady, "store is not set up",
				quadrelerr.FieldStore(s.name), quadrelerr.Field("target", to.String()))
		}
		return quadrelerr.Errorf(quadrelerr.CodeStoreLifecycleInvalid,
			"invalid state transition: %s -> %s", s.state, to)
	}

	s.logger.Debug("store state transition", "from", s.state.String(), "to", to.String())
	s.state = to
	return nil
}

// restore forces a state after a structural operation ends.
func (s *Store) restore(to State) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
}
