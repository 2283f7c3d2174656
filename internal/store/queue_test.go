// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadrel-dev/quadrel/internal/store"
)

func queued(o *store.Options) {
	o.QueueQueries = true
	o.QueuePoll = 5 * time.Millisecond
}

func TestQueueTicket_Disabled(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	ticket, err := st.GetQueueTicket(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.TicketUnqueued, ticket)
	assert.True(t, ticket.Held())
	require.NoError(t, st.RemoveQueueTicket(ctx, ticket))

	has, err := st.HasSetting(ctx, store.SettingQueryQueue)
	require.NoError(t, err)
	assert.False(t, has, "disabled queue never touches the backend")
}

func TestQueueTicket_HeadIsAdmitted(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, queued)

	ticket, err := st.GetQueueTicket(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(ticket), "ticket_"))

	n, err := st.QueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, st.RemoveQueueTicket(ctx, ticket))
	n, err = st.QueueLength(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueTicket_FIFO(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")
	a := testStoreOn(t, testAdapterAt(t, path), "q", queued)
	b := testStoreOn(t, testAdapterAt(t, path), "q", queued)

	t1, err := a.GetQueueTicket(ctx)
	require.NoError(t, err)
	require.True(t, t1.Held())

	admitted := make(chan store.Ticket, 1)
	go func() {
		t2, err := b.GetQueueTicket(ctx)
		if err != nil {
			admitted <- ""
			return
		}
		admitted <- t2
	}()

	select {
	case <-admitted:
		t.Fatal("second ticket passed the head of the queue")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, a.RemoveQueueTicket(ctx, t1))

	select {
	case t2 := <-admitted:
		require.True(t, t2.Held())
		assert.NotEqual(t, t1, t2)
		require.NoError(t, b.RemoveQueueTicket(ctx, t2))
	case <-time.After(5 * time.Second):
		t.Fatal("second ticket never admitted")
	}
}

func TestQueueTicket_TimeoutWithdraws(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, queued, func(o *store.Options) { o.QueueWait = 20 * time.Millisecond })

	head, err := st.GetQueueTicket(ctx)
	require.NoError(t, err)

	late, err := st.GetQueueTicket(ctx)
	require.NoError(t, err)
	assert.False(t, late.Held(), "timed out caller gets the empty ticket")

	queue, err := store.Setting[[]string](ctx, st, store.SettingQueryQueue, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{string(head)}, queue)
}

func TestRemoveQueueTicket_PopsThroughTicket(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, queued)
	require.NoError(t, st.SetSetting(ctx, store.SettingQueryQueue, []string{"ticket_a", "ticket_b", "ticket_c"}))

	require.NoError(t, st.RemoveQueueTicket(ctx, "ticket_b"))
	queue, err := store.Setting[[]string](ctx, st, store.SettingQueryQueue, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket_c"}, queue)

	// Unknown and empty tickets leave the queue alone.
	require.NoError(t, st.RemoveQueueTicket(ctx, "ticket_zzz"))
	require.NoError(t, st.RemoveQueueTicket(ctx, ""))
	queue, err = store.Setting[[]string](ctx, st, store.SettingQueryQueue, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket_c"}, queue)
}
