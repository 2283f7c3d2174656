// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when a config file holding a
// database password is readable by group or others. It never fails.
func WarnInsecurePermissions(path, password string) {
	if path == "" || password == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	mode := info.Mode()
	perm := mode.Perm()

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004

	if perm&(groupRead|otherRead) != 0 {
		slog.Warn(
			"config file holding db.pwd is readable by other users",
			"path", path,
			"mode", mode,
			"recommended", "0600",
		)
	}
}
