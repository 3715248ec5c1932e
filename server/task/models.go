// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-engine"
)

// JSONColumn stores a value of type T as JSON in a single database column.
type JSONColumn[T any] struct {
	V T
}

// Value implements the driver.Valuer interface for database storage.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T: %w", c.V, err)
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (c *JSONColumn[T]) Scan(value any) error {
	var zero T
	if value == nil {
		c.V = zero
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, c)
	}

	v := zero
	if err := json.Unmarshal(bytes, &v); err != nil {
		return fmt.Errorf("cannot unmarshal %T: %w", zero, err)
	}
	c.V = v
	return nil
}

// TaskModel is the database row of a task.
type TaskModel struct {
	ID              string                      `gorm:"primaryKey;size:36"`
	ContextID       string                      `gorm:"size:64;not null;index"`
	State           string                      `gorm:"size:32;not null;index"`
	Version         int64                       `gorm:"not null"`
	Status          JSONColumn[a2a.TaskStatus]  `gorm:"type:json"`
	Artifacts       JSONColumn[[]*a2a.Artifact] `gorm:"type:json"`
	History         JSONColumn[[]*a2a.Message]  `gorm:"type:json"`
	Metadata        JSONColumn[map[string]any]  `gorm:"type:json"`
	SealedArtifacts JSONColumn[[]string]        `gorm:"type:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for the TaskModel.
func (TaskModel) TableName() string {
	return "tasks"
}

// NewTaskModelFromTask converts a task into its database row.
func NewTaskModelFromTask(task *a2a.Task) *TaskModel {
	return &TaskModel{
		ID:              task.ID,
		ContextID:       task.ContextID,
		State:           string(task.Status.State),
		Version:         task.Version,
		Status:          JSONColumn[a2a.TaskStatus]{V: task.Status},
		Artifacts:       JSONColumn[[]*a2a.Artifact]{V: task.Artifacts},
		History:         JSONColumn[[]*a2a.Message]{V: task.History},
		Metadata:        JSONColumn[map[string]any]{V: task.Metadata},
		SealedArtifacts: JSONColumn[[]string]{V: task.SealedArtifacts},
	}
}

// ToTask converts a TaskModel back into a task.
func (m *TaskModel) ToTask() (*a2a.Task, error) {
	task := &a2a.Task{
		ID:              m.ID,
		ContextID:       m.ContextID,
		Status:          m.Status.V,
		Artifacts:       m.Artifacts.V,
		History:         m.History.V,
		Metadata:        m.Metadata.V,
		Version:         m.Version,
		SealedArtifacts: m.SealedArtifacts.V,
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("task model is invalid: %w", err)
	}
	return task, nil
}

// PushConfigModel is the database row of a push notification config.
// Seq records creation order and backs list pagination.
type PushConfigModel struct {
	Seq            int64                               `gorm:"primaryKey;autoIncrement"`
	TaskID         string                              `gorm:"size:36;not null;uniqueIndex:idx_push_task_config"`
	ConfigID       string                              `gorm:"size:64;not null;uniqueIndex:idx_push_task_config"`
	URL            string                              `gorm:"not null"`
	Token          string
	Authentication JSONColumn[*a2a.AuthenticationInfo] `gorm:"type:json"`
	CreatedAt      time.Time
}

// TableName returns the table name for the PushConfigModel.
func (PushConfigModel) TableName() string {
	return "push_notification_configs"
}

func (m *PushConfigModel) toEntry() *PushConfigEntry {
	return &PushConfigEntry{
		Seq:    m.Seq,
		TaskID: m.TaskID,
		Config: &a2a.PushNotificationConfig{
			ID:             m.ConfigID,
			URL:            m.URL,
			Token:          m.Token,
			Authentication: m.Authentication.V,
		},
	}
}
