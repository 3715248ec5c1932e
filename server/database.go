// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/go-json-experiment/json"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/config"
	"github.com/go-a2a/a2a-engine/server/task"
)

// OpenDatabase opens the SQL database selected by cfg.
// Postgres connections go through the lib/pq driver.
func OpenDatabase(cfg config.StoreConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("server: open postgres: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		return nil, fmt.Errorf("server: driver %q has no database", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("server: open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// Migrate creates or updates the task and push config tables in db.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tasks, pushConfigs, err := databaseStores(db)
	if err != nil {
		return err
	}
	return initialize(ctx, tasks, pushConfigs)
}

func databaseStores(db *gorm.DB) (*task.DatabaseTaskStore, *task.DatabasePushNotificationConfigStore, error) {
	tasks, err := task.NewDatabaseTaskStore(task.DatabaseTaskStoreConfig{DB: db, CreateTable: true})
	if err != nil {
		return nil, nil, fmt.Errorf("server: task store: %w", err)
	}
	pushConfigs, err := task.NewDatabasePushNotificationConfigStore(db, true)
	if err != nil {
		return nil, nil, fmt.Errorf("server: push config store: %w", err)
	}
	return tasks, pushConfigs, nil
}

func initialize(ctx context.Context, tasks task.TaskStore, pushConfigs task.PushNotificationConfigStore) error {
	if err := tasks.Initialize(ctx); err != nil {
		return fmt.Errorf("server: migrate tasks: %w", err)
	}
	if err := pushConfigs.Initialize(ctx); err != nil {
		return fmt.Errorf("server: migrate push configs: %w", err)
	}
	return nil
}

// LoadCard reads and validates an agent card JSON file.
func LoadCard(path string) (*a2a.AgentCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server: read agent card: %w", err)
	}
	return ParseCard(data)
}

// ParseCard decodes and validates an agent card.
func ParseCard(data []byte) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("server: decode agent card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("server: invalid agent card: %w", err)
	}
	return &card, nil
}
