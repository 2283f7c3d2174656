// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/backend/sqlite"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
)

// testAdapter opens a connected SQLite adapter in a temp directory.
func testAdapter(t *testing.T) backend.Adapter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quadrel.db")
	return testAdapterAt(t, path)
}

func testAdapterAt(t *testing.T, path string) backend.Adapter {
	t.Helper()
	a, err := sqlite.New(backend.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background()))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// testStore returns a set-up store named "test" with a fast poll sleep.
func testStore(t *testing.T, mutate ...func(*store.Options)) *store.Store {
	t.Helper()
	return testStoreOn(t, testAdapter(t), "test", mutate...)
}

func testStoreOn(t *testing.T, a backend.Adapter, name string, mutate ...func(*store.Options)) *store.Store {
	t.Helper()
	opts := store.Options{Name: name}
	for _, m := range mutate {
		m(&opts)
	}
	st, err := store.New(a, opts)
	require.NoError(t, err)
	st.SetSleep(func(ctx context.Context, _ time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
			return nil
		}
	})
	require.NoError(t, st.SetUp(context.Background(), false))
	return st
}

func sampleQuad() rdf.Quad {
	return rdf.Quad{
		Subject:   rdf.IRI("http://s"),
		Predicate: "http://p1",
		Object:    rdf.Literal("baz"),
		Graph:     "http://example.com/",
	}
}

func quad(s, p string, o rdf.Term, g string) rdf.Quad {
	return rdf.Quad{Subject: rdf.IRI(s), Predicate: p, Object: o, Graph: g}
}
