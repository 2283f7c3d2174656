// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// LockName returns the advisory lock name scoped to database and prefix.
func (s *Store) LockName() string {
	return s.adapter.DatabaseName() + "." + s.TablePrefix() + ".write_lock"
}

// GetLock tries to take the advisory write lock, retrying once per second
// for up to timeout further attempts. It returns false when the lock stays
// taken; that is not an error.
func (s *Store) GetLock(ctx context.Context, timeout int) (bool, error) {
	name := s.LockName()
	for attempt := 0; ; attempt++ {
		ok, err := s.dialect.AcquireLock(ctx, s.adapter, name)
		if err != nil {
			return false, quadrelerr.Wrap(err, quadrelerr.CodeStoreMaintenanceFailure, "acquiring advisory lock",
				quadrelerr.Field("lock", name))
		}
		if ok {
			return true, nil
		}
		if attempt >= timeout {
			s.logger.Warn("advisory lock not acquired", "lock", name, "attempts", attempt+1)
			return false, nil
		}
		if err := s.sleep(ctx, s.opts.LockRetry); err != nil {
			return false, err
		}
	}
}

// ReleaseLock releases the advisory write lock.
func (s *Store) ReleaseLock(ctx context.Context) error {
	if err := s.dialect.ReleaseLock(ctx, s.adapter, s.LockName()); err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreMaintenanceFailure, "releasing advisory lock",
			quadrelerr.Field("lock", s.LockName()))
	}
	return nil
}

// withLock runs fn while holding the advisory lock.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	ok, err := s.GetLock(ctx, s.opts.LockTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return quadrelerr.New(quadrelerr.CodeStoreLockTimeout, "advisory lock is held elsewhere",
			quadrelerr.Field("lock", s.LockName()))
	}
	defer func() {
		if err := s.ReleaseLock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("releasing advisory lock", "error", err)
		}
	}()
	return fn()
}

// withTableLock runs fn while the backend write-locks tables. Lock and
// unlock failures carry code.
func (s *Store) withTableLock(ctx context.Context, code quadrelerr.Code, tables []string, fn func() error) (err error) {
	s.tableLockMu.Lock()
	defer s.tableLockMu.Unlock()

	if _, err := s.adapter.Exec(ctx, s.dialect.LockTableWrite(tables...)); err != nil {
		return quadrelerr.Wrap(err, code, "locking tables", quadrelerr.Field("tables", tables))
	}
	defer func() {
		if _, uerr := s.adapter.Exec(context.WithoutCancel(ctx), s.dialect.UnlockTables()); uerr != nil && err == nil {
			err = quadrelerr.Wrap(uerr, code, "unlocking tables", quadrelerr.Field("tables", tables))
		}
	}()
	return fn()
}
