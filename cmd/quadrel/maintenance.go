// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"context"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/query"
	"github.com/quadrel-dev/quadrel/internal/store"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

func (c *cli) newMaintenanceCmd(op, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op,
		Short: short,
		Long: short + ". --level selects the tables: 1 triple tables, " +
			"2 adds the dictionaries, 3 adds the setting table.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetInt("level")
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				var rows []backend.Row
				var err error
				switch op {
				case "optimize":
					rows, err = app.Store.OptimizeTables(ctx, level)
				case "check":
					rows, err = app.Store.CheckTables(ctx, level)
				default:
					rows, err = app.Store.RepairTables(ctx, level)
				}
				if err != nil {
					return err
				}
				if rows == nil {
					rows = []backend.Row{}
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().Int("level", store.LevelTriples, "table level (1-3)")
	return cmd
}

func (c *cli) newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label <iri>",
		Short: "Print the display label of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unnamed, _ := cmd.Flags().GetString("unnamed")
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				label, err := app.Store.ResourceLabel(ctx, args[0], unnamed)
				if err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "%s\n", label)
			})
		},
	}
	cmd.Flags().String("unnamed", "An unnamed resource", "label of blank nodes without one")
	return cmd
}

func (c *cli) newTriggersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triggers",
		Short: "List available triggers and the query types they are bound to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				if err := printf(out, "available: %s\n", strings.Join(app.Triggers.Names(), ", ")); err != nil {
					return err
				}
				types := make([]string, 0, len(app.Bindings))
				for t := range app.Bindings {
					types = append(types, string(t))
				}
				sort.Strings(types)
				for _, t := range types {
					names := app.Bindings.For(query.Type(t))
					for _, n := range names {
						if _, err := app.Triggers.Get(n); err != nil && quadrelerr.IsNotFound(err) {
							app.Logger.Warn("bound trigger is not registered", "trigger", n, "type", t)
						}
					}
					if err := printf(out, "%s: %s\n", t, strings.Join(names, ", ")); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
