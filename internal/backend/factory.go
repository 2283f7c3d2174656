// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// DefaultAdapter is used when Config.Adapter is empty.
const DefaultAdapter = "sqlite"

// Config carries the connection settings of the db_* configuration keys.
type Config struct {
	Adapter  string // "sqlite" (default) or "mysql".
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Path     string // SQLite database file.
	// LockLease bounds how long a SQLite advisory lock outlives a holder
	// that never released it. Zero means DefaultLockLease.
	LockLease time.Duration
}

// DefaultLockLease is the advisory lock lease on backends without
// session-scoped locks.
const DefaultLockLease = 5 * time.Minute

// Factory builds an unconnected Adapter from configuration.
type Factory func(cfg Config) (Adapter, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// Register registers a factory for a named backend. Driver packages call this
// from init(). This function is goroutine-safe.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Registered returns the sorted names of all registered backends.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveAdapter returns the effective backend name.
func resolveAdapter(cfg Config) string {
	if cfg.Adapter == "" {
		return DefaultAdapter
	}
	return cfg.Adapter
}

// New builds the adapter selected by cfg without connecting.
func New(cfg Config) (Adapter, error) {
	name := resolveAdapter(cfg)

	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, quadrelerr.New(quadrelerr.CodeBackendUnsupported,
			"unsupported backend adapter: "+name,
			quadrelerr.Field("adapter", name),
			quadrelerr.Field("supported", Registered()),
		)
	}

	return factory(cfg)
}

// Open builds the adapter selected by cfg and connects it.
func Open(ctx context.Context, cfg Config) (Adapter, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
