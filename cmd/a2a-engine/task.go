// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/config"
	"github.com/go-a2a/a2a-engine/internal/logging"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

func (a *app) newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect and delete stored tasks",
		Long: `Inspect and delete tasks held by a persistent store.

Tasks may be given by id or by resource name (tasks/{id}).`,
	}
	cmd.AddCommand(a.newTaskGetCmd(), a.newTaskDeleteCmd())
	return cmd
}

func (a *app) newTaskGetCmd() *cobra.Command {
	var historyLength int
	cmd := &cobra.Command{
		Use:   "get <task>",
		Short: "Print a stored task as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd, func(m *task.Manager, _ *slog.Logger) error {
				t, err := m.Get(cmd.Context(), taskID(args[0]))
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("history") {
					t = t.WithHistoryLength(historyLength)
				}
				return printJSON(cmd, t)
			})
		},
	}
	cmd.Flags().IntVar(&historyLength, "history", 0, "keep only the most recent n history messages")
	return cmd
}

func (a *app) newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task>",
		Short: "Delete a stored task and its push notification configs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd, func(m *task.Manager, logger *slog.Logger) error {
				id := taskID(args[0])
				if err := m.Delete(cmd.Context(), id); err != nil {
					return err
				}
				logger.Info("task deleted", slog.String("task_id", id))
				return nil
			})
		},
	}
}

// withManager runs fn with a task manager over the configured persistent store.
func (a *app) withManager(cmd *cobra.Command, fn func(*task.Manager, *slog.Logger) error) error {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return errors.New("task commands need a persistent store, set store.driver")
	}

	return withDatabase(cfg.Store, func(db *gorm.DB) error {
		tasks, err := task.NewDatabaseTaskStore(task.DatabaseTaskStoreConfig{DB: db})
		if err != nil {
			return err
		}
		pushConfigs, err := task.NewDatabasePushNotificationConfigStore(db, false)
		if err != nil {
			return err
		}
		m := task.NewManager(tasks, event.NewHub(),
			task.WithPushConfigStore(pushConfigs),
			task.WithManagerLogger(logging.Component(logger, "manager")),
		)
		if err := fn(m, logger); err != nil {
			return fmt.Errorf("%s: %w", cmd.CommandPath(), err)
		}
		return nil
	})
}

// taskID accepts a bare id or a tasks/{id} resource name.
func taskID(arg string) string {
	if id, err := a2a.ParseTaskName(arg); err == nil {
		return id
	}
	return arg
}
