// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/backend/sqlite"
	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func TestGetLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lock.db")
	first := testStoreOn(t, testAdapterAt(t, path), "locked")
	second := testStoreOn(t, testAdapterAt(t, path), "locked")

	var sleeps atomic.Int32
	second.SetSleep(func(context.Context, time.Duration) error {
		sleeps.Add(1)
		return nil
	})

	ok, err := first.GetLock(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.GetLock(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok, "lock is held by the first store")
	assert.Equal(t, int32(3), sleeps.Load(), "one wait per retry")

	require.NoError(t, first.ReleaseLock(ctx))
	ok, err = second.GetLock(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.ReleaseLock(ctx))
}

func TestGetLock_ScopedByPrefix(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)
	one := testStoreOn(t, a, "one")
	two := testStoreOn(t, a, "two")

	ok, err := one.GetLock(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = two.GetLock(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetLock_ContextCancelled(t *testing.T) {
	a := testAdapter(t)
	holder := testStoreOn(t, a, "busy")
	waiter := testStoreOn(t, a, "busy")

	ok, err := holder.GetLock(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = waiter.GetLock(ctx, 10)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestStructuralOps_LockTimeout(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)
	holder := testStoreOn(t, a, "busy")
	st := testStoreOn(t, a, "busy", func(o *store.Options) { o.SplitPredicates = []string{"http://p1"} })
	st.SetSleep(func(context.Context, time.Duration) error { return nil })

	ok, err := holder.GetLock(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = st.SplitTables(ctx)
	require.Error(t, err)
	assert.True(t, quadrelerr.IsTimeout(err))
	assert.Equal(t, store.StateReady, st.State())
}

func TestGetLock_HolderClosedWithoutRelease(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crash.db")

	holderAdapter, err := sqlite.New(backend.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, holderAdapter.Connect(ctx))
	holder := testStoreOn(t, holderAdapter, "crashed")
	ok, err := holder.GetLock(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, holderAdapter.Close())

	db, err := sql.Open("sqlite3", sqlite.DSN(path))
	require.NoError(t, err)
	later := sqlite.Dialect{Now: func() time.Time { return time.Now().Add(backend.DefaultLockLease) }}
	a := backend.NewDBWithConn(db, "main", later)
	t.Cleanup(func() { _ = a.Close() })

	st := testStoreOn(t, a, "crashed", func(o *store.Options) { o.SplitPredicates = []string{"http://p1"} })
	_, err = st.Insert(ctx, []rdf.Quad{sampleQuad()})
	require.NoError(t, err)

	split, err := st.SplitTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://p1"}, split)
	require.NoError(t, st.ExtendColumns(ctx))
}
