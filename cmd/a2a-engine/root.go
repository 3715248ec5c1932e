// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"

	"github.com/go-a2a/a2a-engine/internal/config"
	"github.com/go-a2a/a2a-engine/internal/logging"
)

// app carries the global flags shared by every subcommand.
type app struct {
	cfgFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "a2a-engine",
		Short: "Operate an A2A task engine",
		Long: `a2a-engine manages the storage and agent cards of an A2A task engine.

Configuration is read from the file given with --config, A2A_ environment
variables (A2A_STORE_DRIVER, A2A_STORE_DSN, ...) and built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		a.newMigrateCmd(),
		a.newConfigCmd(),
		a.newCardCmd(),
		a.newTaskCmd(),
	)
	return root
}

// load returns the effective configuration and a logger writing to the
// command's error stream.
func (a *app) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if a.logLevel != "" {
		v.Set("log.level", a.logLevel)
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Prefix: "a2a-engine",
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.Marshal(v, jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
