// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadrel-dev/quadrel/internal/dump"
	"github.com/quadrel-dev/quadrel/internal/query"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// readInput returns arg, or stdin when arg is "-".
func readInput(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", quadrelerr.Wrap(err, quadrelerr.CodeCLIInputInvalid, "reading stdin")
	}
	return string(data), nil
}

// readDocument returns the contents of path, or stdin when path is "-".
func readDocument(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		return readInput(cmd, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", quadrelerr.Wrap(err, quadrelerr.CodeCLIInputInvalid, "reading document",
			quadrelerr.Field("path", path))
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query|->",
		Short: "Run a query",
		Long: "Run a SELECT, ASK, INSERT, DELETE or LOAD query, or the dump shortcut. " +
			"Results are printed as JSON, or as SPARQL XML with --xml.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			f := query.Format(format)
			switch f {
			case query.FormatEnvelope, query.FormatRaw, query.FormatRows, query.FormatRow, query.FormatInfos:
			default:
				return quadrelerr.New(quadrelerr.CodeCLIInputInvalid, "unknown result format",
					quadrelerr.Field("format", format))
			}
			asXML, _ := cmd.Flags().GetBool("xml")

			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				env, err := app.Pipeline.Query(ctx, text)
				if err != nil {
					return err
				}
				if asXML {
					return dump.WriteResult(cmd.OutOrStdout(), env.Raw())
				}
				return writeJSON(cmd.OutOrStdout(), env.Format(f))
			})
		},
	}
	cmd.Flags().String("format", "", "result format: raw, rows, row or infos (default: full envelope)")
	cmd.Flags().Bool("xml", false, "print result rows as SPARQL XML")
	return cmd
}

func (c *cli) newInsertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <graph> <file|->",
		Short: "Insert an N-Quads document into a graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				env, err := app.Pipeline.InsertNQuads(ctx, doc, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), env)
			})
		},
	}
}

func (c *cli) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <graph>",
		Short: "Delete every triple of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				env, err := app.Pipeline.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), env)
			})
		},
	}
}

func (c *cli) newReplaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replace <graph> <file|->",
		Short: "Replace the contents of a graph with an N-Quads document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				envs, err := app.Pipeline.Replace(ctx, args[0], doc)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), envs)
			})
		},
	}
}

func (c *cli) newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Write every quad to stdout as SPARQL XML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				return app.Pipeline.Dump(ctx, cmd.OutOrStdout())
			})
		},
	}
}

func (c *cli) newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <path>",
		Short: "Write the dump document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			return c.withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Pipeline.CreateBackup(ctx, path); err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "backup written to %s\n", path)
			})
		},
	}
}
