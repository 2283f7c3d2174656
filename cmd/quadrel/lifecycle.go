// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the store tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.SetUp(ctx, force); err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "store %s ready\n", app.Store.Name())
			})
		},
	}
	cmd.Flags().Bool("force", false, "run the creation statements even if the tables exist")
	return cmd
}

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store state and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				st := app.Store
				version, err := st.DBVersion(ctx)
				if err != nil {
					return err
				}
				if err := printf(out, "store:     %s (%s)\nbackend:   %s %s\nstate:     %s\n",
					st.Name(), st.TablePrefix(), st.DialectName(), version, st.State()); err != nil {
					return err
				}
				if !st.IsSetUp(ctx) {
					return nil
				}

				triples, err := st.TripleCount(ctx)
				if err != nil {
					return err
				}
				split, err := st.SplitPredicates(ctx)
				if err != nil {
					return err
				}
				queued, err := st.QueueLength(ctx)
				if err != nil {
					return err
				}
				procs, err := st.CountProcesses(ctx)
				if err != nil {
					return err
				}
				colType, err := st.ColumnType(ctx)
				if err != nil {
					return err
				}
				return printf(out, "triples:   %d\nsplit:     %s\nqueue:     %d\nprocesses: %d\ncolumns:   %s\n",
					triples, strings.Join(split, ", "), queued, procs, colType)
			})
		},
	}
}

func (c *cli) newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty every store table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keep, _ := cmd.Flags().GetBool("keep-settings")
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.Reset(ctx, keep); err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "store %s reset\n", app.Store.Name())
			})
		},
	}
	cmd.Flags().Bool("keep-settings", false, "keep the setting table")
	return cmd
}

func (c *cli) newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop every store table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.Drop(ctx); err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "store %s dropped\n", app.Store.Name())
			})
		},
	}
}

func (c *cli) newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name>",
		Short: "Move the store tables to a new store name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				old := app.Store.Name()
				if err := app.Store.RenameTo(ctx, args[0]); err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "store %s renamed to %s\n", old, args[0])
			})
		},
	}
}

func (c *cli) newReplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replicate <name>",
		Short: "Copy the store into another store on the same backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				n, err := app.Store.ReplicateTo(ctx, args[0])
				if err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "replicated %d triples to %s\n", n, args[0])
			})
		},
	}
}

func (c *cli) newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Move heavily used predicates into tables of their own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				added, err := app.Store.SplitTables(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(added) == 0 {
					return printf(out, "no predicates split\n")
				}
				for _, p := range added {
					if err := printf(out, "split %s\n", p); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (c *cli) newExtendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extend",
		Short: "Widen the id columns of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.ExtendColumns(ctx); err != nil {
					return err
				}
				colType, err := app.Store.ColumnType(ctx)
				if err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "id columns: %s\n", colType)
			})
		},
	}
}

func printf(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
