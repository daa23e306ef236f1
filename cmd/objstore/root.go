/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suparena/objectstore"
	"github.com/suparena/objectstore/config"
	"github.com/suparena/objectstore/datastore"
	"github.com/suparena/objectstore/logging"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	cfg      *config.Config
	settings config.Settings
	logData  *logging.LogData
	factory  *objectstore.Factory
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string][2]string{
	"backend":      {"database", "backend"},
	"connection":   {"database", "connection"},
	"schema":       {"database", "schema"},
	"union-schema": {"database", "union_schema"},
	"log-level":    {"log", "level"},
	"log-format":   {"log", "format"},
}

func newRootCmd() *cobra.Command {
	a := &app{factory: objectstore.NewFactory()}

	root := &cobra.Command{
		Use:     "objstore",
		Short:   "Generic object persistence over MongoDB, DynamoDB or memory",
		Version: objectstore.Version,
		Long: fmt.Sprintf(`objstore (v%s)

Reads and writes the partitions of an objectstore. Settings come from a YAML
file (--config), OBJECTSTORE_* environment variables and the flags below, in
increasing precedence.`, objectstore.Version),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logData != nil {
				return a.logData.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path of a YAML configuration file")
	flags.String("backend", "", "backend name (mongodb, dynamodb, memory)")
	flags.String("connection", "", "backend connection endpoint")
	flags.String("schema", "", "schema prefix of partition names")
	flags.Bool("union-schema", false, "store all record types in one partition per schema")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, console)")

	root.AddCommand(a.getCmd())
	root.AddCommand(a.putCmd())
	root.AddCommand(a.updateCmd())
	root.AddCommand(a.removeCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.configCmd())
	root.AddCommand(versionCmd())
	return root
}

// load reads the configuration and builds the logger.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		cfg.Set(key[0], key[1], flag.Value.String())
	}

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return err
	}
	build := logging.New().
		WithLevel(level).
		Console(settings.Log.Format == "console").
		FromWriter(cmd.ErrOrStderr())
	if settings.Log.Path != "" {
		build = build.FromPath(settings.Log.Path)
	}
	logData, err := build.Make()
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}

	a.cfg, a.settings, a.logData = cfg, settings, logData
	return nil
}

func (a *app) logger() zerolog.Logger {
	if a.logData == nil {
		return zerolog.Nop()
	}
	return a.logData.Logger
}

// open resolves the configured backend and wraps it in an orchestrator.
func (a *app) open(ctx context.Context) (*objectstore.ObjectStore, error) {
	db := a.settings.Database
	log := a.logger()

	backend, err := a.factory.Resolve(ctx, db.Backend, db.Connection,
		datastore.WithLogger(logging.Component(log, db.Backend)))
	if err != nil {
		return nil, err
	}

	opts := []objectstore.Option{objectstore.WithLogger(logging.Component(log, "objectstore"))}
	if db.UnionSchema {
		opts = append(opts, objectstore.WithUnionSchema())
	}
	return objectstore.New(backend, opts...), nil
}

// close releases the resolved backend.
func (a *app) close(ctx context.Context) {
	if backend := a.factory.Backend(); backend != nil {
		if err := backend.Close(ctx); err != nil {
			logger := a.logger()
			logger.Warn().Err(err).Msg("closing backend")
		}
	}
}
