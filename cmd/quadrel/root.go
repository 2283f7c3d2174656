// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quadrel-dev/quadrel/internal/config"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// cli carries the state shared by the subcommands of one root command.
type cli struct {
	v *viper.Viper
}

// NewRootCmd creates the root quadrel command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "quadrel",
		Short:         "Quadrel, an RDF quad store on relational tables",
		Long:          "Quadrel stores RDF quads in SQLite or MySQL tables and answers a SPARQL subset over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initViper(cmd)
		},
	}

	// Global flags; initViper maps them to config keys.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("store", "", "store name (store.name)")
	root.PersistentFlags().String("db", "", "SQLite database file (db.path)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newVersionCmd(),
		c.newSetupCmd(),
		c.newStatusCmd(),
		c.newResetCmd(),
		c.newDropCmd(),
		c.newRenameCmd(),
		c.newReplicateCmd(),
		c.newSplitCmd(),
		c.newExtendCmd(),
		c.newQueryCmd(),
		c.newInsertCmd(),
		c.newDeleteCmd(),
		c.newReplaceCmd(),
		c.newDumpCmd(),
		c.newBackupCmd(),
		c.newSettingCmd(),
		c.newMaintenanceCmd("optimize", "Refresh table statistics"),
		c.newMaintenanceCmd("check", "Check table consistency"),
		c.newMaintenanceCmd("repair", "Rebuild table indexes"),
		c.newLabelCmd(),
		c.newTriggersCmd(),
	)

	return root
}

// initViper loads defaults, environment, the config file and flag bindings so
// the usual precedence (flag > env > file > defaults) applies.
func (c *cli) initViper(cmd *cobra.Command) error {
	v := c.v

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" && cmd.Name() != "init" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return quadrelerr.Errorf(quadrelerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else if cfgFile == "" {
		v.SetConfigName("quadrel")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/quadrel")
		v.AddConfigPath("/etc/quadrel")
		// No config file is fine: defaults and env vars still apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return quadrelerr.Errorf(quadrelerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{"store.name": "store", "db.path": "db", "verbose": "verbose"} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return quadrelerr.Errorf(quadrelerr.CodeCLISetupFailure, "binding %s flag: %w", flag, err)
		}
	}

	return nil
}
