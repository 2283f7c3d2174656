// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func (c *cli) newSettingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write store settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <name>",
			Short: "Print a setting as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, func(ctx context.Context, app *App) error {
					var raw json.RawMessage
					found, err := app.Store.GetSetting(ctx, args[0], &raw)
					if err != nil {
						return err
					}
					if !found {
						return quadrelerr.New(quadrelerr.CodeCLIInputInvalid, "setting not found",
							quadrelerr.Field("name", args[0]))
					}
					return printf(cmd.OutOrStdout(), "%s\n", raw)
				})
			},
		},
		&cobra.Command{
			Use:   "set <name> <value>",
			Short: "Store a setting; values that are not valid JSON are stored as strings",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var value any = args[1]
				if json.Valid([]byte(args[1])) {
					value = json.RawMessage(args[1])
				}
				return c.withApp(cmd, func(ctx context.Context, app *App) error {
					return app.Store.SetSetting(ctx, args[0], value)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Remove a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, func(ctx context.Context, app *App) error {
					return app.Store.RemoveSetting(ctx, args[0])
				})
			},
		},
	)

	return cmd
}
