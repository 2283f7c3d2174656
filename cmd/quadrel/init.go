// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quadrel-dev/quadrel/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: "Write the commented default configuration to --config, or to " +
			"~/.config/quadrel/quadrel.yaml when no path is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}
