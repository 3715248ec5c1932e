// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"

	a2a "github.com/go-a2a/a2a-engine"
)

// TaskStore defines the interface for task persistence operations.
//
// Stores hold copies: a task passed in or returned may be modified by the
// caller without affecting the stored value. Writes after creation go through
// Update, which is a compare-and-swap on the task version.
type TaskStore interface {
	// Create stores a new task. It fails with ErrTaskExists if the ID is taken.
	Create(ctx context.Context, task *a2a.Task) error

	// Get retrieves a task by its ID.
	// Returns a2a.TaskNotFoundError if the task doesn't exist.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// Update replaces the stored task if its version is still expectedVersion.
	// A stale version fails with a2a.ErrVersionConflict.
	Update(ctx context.Context, task *a2a.Task, expectedVersion int64) error

	// ListByContext returns the tasks of a conversation in creation order.
	ListByContext(ctx context.Context, contextID string) ([]*a2a.Task, error)

	// Delete removes a task.
	// Returns a2a.TaskNotFoundError if the task doesn't exist.
	Delete(ctx context.Context, taskID string) error

	// Initialize prepares the storage backend for use.
	Initialize(ctx context.Context) error

	// Close cleanly shuts down the storage backend.
	Close(ctx context.Context) error
}
