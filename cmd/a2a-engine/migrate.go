// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/go-a2a/a2a-engine/internal/config"
	"github.com/go-a2a/a2a-engine/server"
)

func (a *app) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the task and push config tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.DriverMemory {
				logger.Info("memory store needs no migration")
				return nil
			}

			return withDatabase(cfg.Store, func(db *gorm.DB) error {
				if err := server.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				logger.Info("schema migrated",
					slog.String("driver", cfg.Store.Driver),
					slog.String("dsn", redactDSN(cfg.Store.DSN)),
				)
				return nil
			})
		},
	}
}

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			out := *cfg
			out.Store.DSN = redactDSN(out.Store.DSN)
			return printJSON(cmd, out)
		},
	}
}

// withDatabase opens the configured database, runs fn and closes it.
func withDatabase(cfg config.StoreConfig, fn func(*gorm.DB) error) (err error) {
	db, err := server.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(db)
}

// redactDSN hides the password of URL-style DSNs.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
