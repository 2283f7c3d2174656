// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/rdf"
	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func TestMaintenance(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	_, err := st.Insert(ctx, []rdf.Quad{sampleQuad()})
	require.NoError(t, err)

	for level := store.LevelTriples; level <= store.LevelAll; level++ {
		_, err := st.OptimizeTables(ctx, level)
		require.NoError(t, err)
		_, err = st.RepairTables(ctx, level)
		require.NoError(t, err)
	}

	report, err := st.CheckTables(ctx, store.LevelDictionaries)
	require.NoError(t, err)
	require.NotEmpty(t, report)
	assert.Equal(t, "ok", report[0].String("integrity_check"))

	_, err = st.OptimizeTables(ctx, 4)
	assert.True(t, quadrelerr.IsInvalidInput(err))
}

func TestOptimize_Ignored(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, func(o *store.Options) { o.IgnoreOptimization = true })

	report, err := st.OptimizeTables(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestCountProcesses_SQLite(t *testing.T) {
	n, err := testStore(t).CountProcesses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
