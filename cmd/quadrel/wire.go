// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/quadrel-dev/quadrel/internal/backend"
	_ "github.com/quadrel-dev/quadrel/internal/backend/mysql"  // register mysql backend
	_ "github.com/quadrel-dev/quadrel/internal/backend/sqlite" // register sqlite backend
	"github.com/quadrel-dev/quadrel/internal/config"
	"github.com/quadrel-dev/quadrel/internal/metrics"
	"github.com/quadrel-dev/quadrel/internal/pipeline"
	"github.com/quadrel-dev/quadrel/internal/store"
	"github.com/quadrel-dev/quadrel/internal/trigger"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// App holds the wired subsystems of one command run.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Adapter  backend.Adapter
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Triggers *trigger.Registry
	Bindings trigger.Bindings
	Registry *prometheus.Registry
}

// WireApp connects the backend and builds the store and pipeline.
func WireApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	adapter, err := backend.Open(ctx, cfg.Backend())
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, adapter, cfg.StoreOptions(logger))
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}

	triggers := trigger.NewRegistry()
	trigger.RegisterBuiltins(triggers, trigger.BuiltinConfig{QueryLogPath: cfg.QueryLogPath()})

	bindings, err := cfg.Bindings()
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	p := pipeline.New(st, pipeline.Options{
		Triggers: triggers,
		Bindings: bindings,
		Metrics:  metrics.New(reg),
		Logger:   logger,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Adapter:  adapter,
		Store:    st,
		Pipeline: p,
		Triggers: triggers,
		Bindings: bindings,
		Registry: reg,
	}, nil
}

// Close writes the metrics textfile when one is configured and closes the
// backend connection.
func (a *App) Close() error {
	var errs []error
	if path := a.Config.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, a.Registry); err != nil {
			errs = append(errs, quadrelerr.Wrap(err, quadrelerr.CodeCLISetupFailure, "writing metrics textfile",
				quadrelerr.Field("path", path)))
		}
	}
	if err := a.Adapter.Close(); err != nil {
		errs = append(errs, err)
	}
	return quadrelerr.Join(errs...)
}

// withApp loads the configuration, wires the app, runs fn and closes the
// app again.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) (err error) {
	cfg, err := config.FromViper(c.v)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr(), c.v.GetBool("verbose"))
	config.WarnInsecurePermissions(c.v.ConfigFileUsed(), cfg.DB.Pwd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := WireApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(ctx, app)
}
