// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package config

import (
	_ "embed"
	"os"
	"path/filepath"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

//go:embed quadrel.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/quadrel/quadrel.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", quadrelerr.Errorf(quadrelerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "quadrel", "quadrel.yaml"), nil
}

// WriteDefault writes the commented default config to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return quadrelerr.New(quadrelerr.CodeCLIInputInvalid, "config file already exists",
				quadrelerr.Field("path", path))
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeConfigLoadReadFailure, "creating config directory",
			quadrelerr.Field("path", path))
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		return quadrelerr.Wrap(err, quadrelerr.CodeConfigLoadReadFailure, "writing config",
			quadrelerr.Field("path", path))
	}
	return nil
}
