// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Ticket is a position in the query queue. The empty ticket means the
// caller was not admitted.
type Ticket string

// TicketUnqueued is handed out when queuing is disabled.
const TicketUnqueued Ticket = "unqueued"

// Held reports whether the ticket admits the caller.
func (t Ticket) Held() bool { return t != "" }

// GetQueueTicket appends a fresh ticket to the query queue and waits until
// it reaches the head. When the wait bound passes the ticket is withdrawn
// and the empty ticket is returned without error.
func (s *Store) GetQueueTicket(ctx context.Context) (Ticket, error) {
	if !s.opts.QueueQueries {
		return TicketUnqueued, nil
	}

	t := Ticket("ticket_" + uuid.NewString())
	err := s.updateQueue(ctx, func(q []string) []string { return append(q, string(t)) })
	if err != nil {
		return "", err
	}

	var waited time.Duration
	for {
		queue, err := Setting[[]string](ctx, s, SettingQueryQueue, nil)
		if err != nil {
			s.withdraw(ctx, t)
			return "", err
		}
		if len(queue) == 0 || queue[0] == string(t) {
			return t, nil
		}
		if waited >= s.opts.QueueWait {
			s.logger.Warn("query queue wait exceeded, proceeding unqueued",
				"ticket", string(t), "waited", waited, "position", slices.Index(queue, string(t)))
			s.withdraw(ctx, t)
			return "", nil
		}
		if err := s.sleep(ctx, s.opts.QueuePoll); err != nil {
			s.withdraw(ctx, t)
			return "", err
		}
		waited += s.opts.QueuePoll
	}
}

// RemoveQueueTicket pops every queue entry up to and including t.
func (s *Store) RemoveQueueTicket(ctx context.Context, t Ticket) error {
	if !s.opts.QueueQueries || !t.Held() || t == TicketUnqueued {
		return nil
	}
	return s.updateQueue(ctx, func(q []string) []string {
		pos := slices.Index(q, string(t))
		if pos < 0 {
			return q
		}
		return q[pos+1:]
	})
}

// withdraw drops t alone, leaving the tickets queued ahead of it in place.
func (s *Store) withdraw(ctx context.Context, t Ticket) {
	err := s.updateQueue(context.WithoutCancel(ctx), func(q []string) []string {
		return slices.DeleteFunc(q, func(v string) bool { return v == string(t) })
	})
	if err != nil {
		s.logger.Warn("withdrawing queue ticket", "ticket", string(t), "error", err)
	}
}

// updateQueue rewrites the queue inside the setting table's write lock.
func (s *Store) updateQueue(ctx context.Context, fn func([]string) []string) error {
	return s.withTableLock(ctx, quadrelerr.CodeStoreSettingFailure, []string{s.table("setting")}, func() error {
		queue, err := Setting[[]string](ctx, s, SettingQueryQueue, nil)
		if err != nil {
			return err
		}
		return s.SetSetting(ctx, SettingQueryQueue, fn(queue))
	})
}

// QueueLength returns the number of waiting tickets.
func (s *Store) QueueLength(ctx context.Context) (int, error) {
	queue, err := Setting[[]string](ctx, s, SettingQueryQueue, nil)
	return len(queue), err
}
