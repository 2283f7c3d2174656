// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

// Package store maps RDF quads onto relational tables: the term dictionary,
// schema lifecycle, advisory locking, the query queue and settings.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quadrel-dev/quadrel/internal/backend"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

const (
	DefaultMaxSplitTables = 10
	DefaultQueuePoll      = 100 * time.Millisecond
	DefaultQueueWait      = 30 * time.Second
	DefaultLockRetry      = time.Second
)

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Name        string // store_name
	TablePrefix string // db_table_prefix

	QueueQueries    bool
	QueuePoll       time.Duration
	QueueWait       time.Duration
	LockRetry       time.Duration
	// LockTimeout is the number of retries structural operations make for
	// the advisory lock.
	LockTimeout     int
	MaxSplitTables  int
	SplitPredicates []string
	// SplitThreshold is the triple count above which a predicate is split
	// automatically. Zero disables automatic candidates.
	SplitThreshold int64

	LabelProperties    []string
	IgnoreOptimization bool

	Logger *slog.Logger
}

// Store is a quad store living under one table prefix of a backend.
type Store struct {
	adapter backend.Adapter
	dialect backend.Dialect
	opts    Options
	logger  *slog.Logger

	// sleep waits between lock and queue polls.
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	name  string
	state State

	termMu    sync.Mutex
	termCache map[Role]map[string]int64
	hashCols  map[string]bool

	// writeMu serialises triple id allocation and table locks within the process.
	writeMu sync.Mutex
	// tableLockMu keeps backend table-lock sections of one connection apart.
	tableLockMu sync.Mutex

	labelMu    sync.Mutex
	labelCache map[string]string
}

// New returns a store over a connected adapter. It does not touch the backend.
func New(adapter backend.Adapter, opts Options) (*Store, error) {
	if adapter == nil {
		return nil, quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "store requires a backend adapter")
	}
	if err := validIdent(opts.Name); err != nil {
		return nil, quadrelerr.With(err, quadrelerr.Field("key", "store_name"))
	}
	if opts.TablePrefix != "" {
		if err := validIdent(opts.TablePrefix); err != nil {
			return nil, quadrelerr.With(err, quadrelerr.Field("key", "db_table_prefix"))
		}
	}
	if opts.QueuePoll <= 0 {
		opts.QueuePoll = DefaultQueuePoll
	}
	if opts.QueueWait <= 0 {
		opts.QueueWait = DefaultQueueWait
	}
	if opts.LockRetry <= 0 {
		opts.LockRetry = DefaultLockRetry
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.MaxSplitTables <= 0 {
		opts.MaxSplitTables = DefaultMaxSplitTables
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		adapter:    adapter,
		dialect:    adapter.Dialect(),
		opts:       opts,
		logger:     logger.With("store", opts.Name),
		sleep:      sleepContext,
		name:       opts.Name,
		state:      StateAbsent,
		termCache:  map[Role]map[string]int64{},
		hashCols:   map[string]bool{},
		labelCache: map[string]string{},
	}, nil
}

// Open returns a store and records whether its tables already exist.
func Open(ctx context.Context, adapter backend.Adapter, opts Options) (*Store, error) {
	s, err := New(adapter, opts)
	if err != nil {
		return nil, err
	}
	if s.IsSetUp(ctx) {
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
	}
	return s, nil
}

func validIdent(v string) error {
	if v == "" {
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput, "identifier is empty")
	}
	for _, r := range v {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return quadrelerr.New(quadrelerr.CodeStoreInvalidInput,
			"identifier may only contain letters, digits and underscores",
			quadrelerr.Field("value", v))
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetSleep replaces the poll wait used by GetLock and GetQueueTicket.
func (s *Store) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	s.sleep = fn
}

// Name returns the logical store name.
func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// TablePrefix returns "{db_table_prefix}_{store_name}_" or "{store_name}_".
func (s *Store) TablePrefix() string {
	return prefixFor(s.opts.TablePrefix, s.Name())
}

func prefixFor(dbPrefix, name string) string {
	if dbPrefix != "" {
		return dbPrefix + "_" + name + "_"
	}
	return name + "_"
}

func (s *Store) table(name string) string { return s.TablePrefix() + name }

// Adapter returns the backend the store runs on.
func (s *Store) Adapter() backend.Adapter { return s.adapter }

// DialectName returns the backend dialect, e.g. "sqlite" or "mysql".
func (s *Store) DialectName() string { return s.adapter.DialectName() }

// Options returns the effective options.
func (s *Store) Options() Options { return s.opts }

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger { return s.logger }

// QueueEnabled reports whether select queries take queue tickets.
func (s *Store) QueueEnabled() bool { return s.opts.QueueQueries }

// fixedTables lists the six fixed tables in creation order.
var fixedTables = []struct {
	name string
	kind backend.TableKind
}{
	{"triple", backend.KindTriple},
	{"g2t", backend.KindG2T},
	{"id2val", backend.KindID2Val},
	{"s2val", backend.KindS2Val},
	{"o2val", backend.KindO2Val},
	{"setting", backend.KindSetting},
}

// kindOf returns the shape of an unprefixed table name. Anything that is not
// a fixed table is a split triple table.
func kindOf(name string) backend.TableKind {
	for _, t := range fixedTables {
		if t.name == name {
			return t.kind
		}
	}
	return backend.KindTriple
}

// Tables returns the unprefixed names of the fixed tables.
func Tables() []string {
	names := make([]string, 0, len(fixedTables))
	for _, t := range fixedTables {
		names = append(names, t.name)
	}
	return names
}
