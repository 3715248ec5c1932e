// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"

	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-engine"
)

// DatabaseTaskStore is a database implementation of TaskStore using GORM.
type DatabaseTaskStore struct {
	db          *gorm.DB
	createTable bool
}

var _ TaskStore = (*DatabaseTaskStore)(nil)

// DatabaseTaskStoreConfig holds configuration for DatabaseTaskStore.
type DatabaseTaskStoreConfig struct {
	DB          *gorm.DB
	CreateTable bool // Whether Initialize migrates the schema
}

// NewDatabaseTaskStore creates a new DatabaseTaskStore.
func NewDatabaseTaskStore(config DatabaseTaskStoreConfig) (*DatabaseTaskStore, error) {
	if config.DB == nil {
		return nil, errors.New("database connection cannot be nil")
	}

	return &DatabaseTaskStore{
		db:          config.DB,
		createTable: config.CreateTable,
	}, nil
}

// Create stores a new task.
func (s *DatabaseTaskStore) Create(ctx context.Context, task *a2a.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&TaskModel{}).Where("id = ?", task.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrTaskExists
		}
		return tx.Create(NewTaskModelFromTask(task)).Error
	})
	if err != nil {
		return NewTaskStoreError("create", task.ID, err)
	}
	return nil
}

// Get retrieves a task by its ID.
func (s *DatabaseTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	var model TaskModel
	if err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &a2a.TaskNotFoundError{TaskID: taskID}
		}
		return nil, NewTaskStoreError("get", taskID, err)
	}

	task, err := model.ToTask()
	if err != nil {
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return task, nil
}

// Update replaces the stored task if its version is still expectedVersion.
//
// The version check and the write are a single conditional UPDATE statement.
func (s *DatabaseTaskStore) Update(ctx context.Context, task *a2a.Task, expectedVersion int64) error {
	if err := task.Validate(); err != nil {
		return err
	}

	model := NewTaskModelFromTask(task)
	db := s.db.WithContext(ctx)
	result := db.Model(&TaskModel{}).
		Where("id = ? AND version = ?", task.ID, expectedVersion).
		Updates(map[string]any{
			"context_id":       model.ContextID,
			"state":            model.State,
			"version":          model.Version,
			"status":           model.Status,
			"artifacts":        model.Artifacts,
			"history":          model.History,
			"metadata":         model.Metadata,
			"sealed_artifacts": model.SealedArtifacts,
		})
	if result.Error != nil {
		return NewTaskStoreError("update", task.ID, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := db.Model(&TaskModel{}).Where("id = ?", task.ID).Count(&n).Error; err != nil {
		return NewTaskStoreError("update", task.ID, err)
	}
	if n == 0 {
		return &a2a.TaskNotFoundError{TaskID: task.ID}
	}
	return NewTaskStoreError("update", task.ID, a2a.ErrVersionConflict)
}

// ListByContext returns the tasks of a conversation in creation order.
func (s *DatabaseTaskStore) ListByContext(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	var models []TaskModel
	err := s.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, NewTaskStoreError("list", "", err)
	}

	tasks := make([]*a2a.Task, 0, len(models))
	for i := range models {
		task, err := models[i].ToTask()
		if err != nil {
			return nil, NewTaskStoreError("list", models[i].ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Delete removes a task.
func (s *DatabaseTaskStore) Delete(ctx context.Context, taskID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", taskID).Delete(&TaskModel{})
	if result.Error != nil {
		return NewTaskStoreError("delete", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &a2a.TaskNotFoundError{TaskID: taskID}
	}
	return nil
}

// Initialize creates the tasks table when the store was configured to.
func (s *DatabaseTaskStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&TaskModel{}); err != nil {
		return NewTaskStoreError("initialize", "", err)
	}
	return nil
}

// Close is a no-op: the connection pool belongs to whoever opened the *gorm.DB.
func (s *DatabaseTaskStore) Close(ctx context.Context) error {
	return nil
}
