// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package store

import (
	"context"
	"crypto/md5" //nolint:gosec // setting keys are content digests, not secrets
	"encoding/hex"
	"encoding/json"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Setting names used by the store itself.
const (
	SettingSplitPredicates = "split_predicates"
	SettingQueryQueue      = "query_queue"
	SettingLabelProperties = "store_label_properties"
)

// SettingKey returns the stored form of a setting name.
func SettingKey(name string) string {
	sum := md5.Sum([]byte(name)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// GetSetting decodes the value stored under name into dest and reports
// whether it was present.
func (s *Store) GetSetting(ctx context.Context, name string, dest any) (bool, error) {
	row, err := s.adapter.FetchRow(ctx,
		"SELECT val FROM "+s.table("setting")+" WHERE k = ?", SettingKey(name))
	if err != nil {
		return false, quadrelerr.Wrap(err, quadrelerr.CodeStoreSettingFailure, "reading setting",
			quadrelerr.Field("setting", name))
	}
	if row == nil {
		return false, nil
	}
	if err := json.Unmarshal([]byte(row.String("val")), dest); err != nil {
		return true, quadrelerr.Wrap(err, quadrelerr.CodeStoreSettingInvalid, "decoding setting",
			quadrelerr.Field("setting", name))
	}
	return true, nil
}

// Setting returns the value stored under name, or def when absent.
func Setting[T any](ctx context.Context, s *Store, name string, def T) (T, error) {
	var v T
	found, err := s.GetSetting(ctx, name, &v)
	if err != nil || !found {
		return def, err
	}
	return v, nil
}

// HasSetting reports whether name has a stored value.
func (s *Store) HasSetting(ctx context.Context, name string) (bool, error) {
	row, err := s.adapter.FetchRow(ctx,
		"SELECT k FROM "+s.table("setting")+" WHERE k = ?", SettingKey(name))
	if err != nil {
		return false, quadrelerr.Wrap(err, quadrelerr.CodeStoreSettingFailure, "probing setting",
			quadrelerr.Field("setting", name))
	}
	return row != nil, nil
}

// SetSetting stores value under name, updating an existing row or inserting
// a new one. The check and the write are not atomic.
func (s *Store) SetSetting(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSettingInvalid, "encoding setting",
			quadrelerr.Field("setting", name))
	}

	exists, err := s.HasSetting(ctx, name)
	if err != nil {
		return err
	}

	tbl := s.table("setting")
	if exists {
		_, err = s.adapter.Exec(ctx, "UPDATE "+tbl+" SET val = ? WHERE k = ?", string(raw), SettingKey(name))
	} else {
		_, err = s.adapter.Exec(ctx, "INSERT INTO "+tbl+" (k, val) VALUES (?, ?)", SettingKey(name), string(raw))
	}
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSettingFailure, "writing setting",
			quadrelerr.Field("setting", name))
	}
	return nil
}

// RemoveSetting deletes the value stored under name.
func (s *Store) RemoveSetting(ctx context.Context, name string) error {
	_, err := s.adapter.Exec(ctx, "DELETE FROM "+s.table("setting")+" WHERE k = ?", SettingKey(name))
	if err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeStoreSettingFailure, "removing setting",
			quadrelerr.Field("setting", name))
	}
	return nil
}
