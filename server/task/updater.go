// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"

	a2a "github.com/go-a2a/a2a-engine"
)

// TaskUpdater is handed to an agent executor to report progress on one task.
//
// Every call is a state machine transition applied through the [Manager], so
// an update the lifecycle does not allow is rejected with an error that wraps
// [a2a.ErrInvalidAgentResponse].
type TaskUpdater struct {
	manager   *Manager
	taskID    string
	contextID string
}

// NewTaskUpdater creates a TaskUpdater for task.
func NewTaskUpdater(manager *Manager, task *a2a.Task) *TaskUpdater {
	return &TaskUpdater{
		manager:   manager,
		taskID:    task.ID,
		contextID: task.ContextID,
	}
}

// TaskID returns the task ID this updater is associated with.
func (u *TaskUpdater) TaskID() string {
	return u.taskID
}

// ContextID returns the context ID this updater is associated with.
func (u *TaskUpdater) ContextID() string {
	return u.contextID
}

// NewAgentMessage returns an agent message for this task holding parts.
func (u *TaskUpdater) NewAgentMessage(parts ...a2a.Part) *a2a.Message {
	return a2a.NewAgentPartsMessage(parts, u.contextID, u.taskID)
}

// UpdateStatus moves the task to state with an optional message.
func (u *TaskUpdater) UpdateStatus(ctx context.Context, state a2a.TaskState, msg *a2a.Message) error {
	_, err := u.manager.UpdateStatus(ctx, u.taskID, state, msg)
	return err
}

func (u *TaskUpdater) updateText(ctx context.Context, state a2a.TaskState, text string) error {
	var msg *a2a.Message
	if text != "" {
		msg = a2a.NewAgentTextMessage(text, u.contextID, u.taskID)
	}
	return u.UpdateStatus(ctx, state, msg)
}

// StartWork marks the task as working. It may be called again to report progress.
func (u *TaskUpdater) StartWork(ctx context.Context, text string) error {
	return u.updateText(ctx, a2a.TaskStateWorking, text)
}

// Complete marks the task as completed.
func (u *TaskUpdater) Complete(ctx context.Context, text string) error {
	return u.updateText(ctx, a2a.TaskStateCompleted, text)
}

// Failed marks the task as failed.
func (u *TaskUpdater) Failed(ctx context.Context, text string) error {
	return u.updateText(ctx, a2a.TaskStateFailed, text)
}

// Reject marks the task as rejected.
func (u *TaskUpdater) Reject(ctx context.Context, text string) error {
	return u.updateText(ctx, a2a.TaskStateRejected, text)
}

// RequiresInput pauses the task until the caller sends a follow-up message.
func (u *TaskUpdater) RequiresInput(ctx context.Context, text string) error {
	return u.updateText(ctx, a2a.TaskStateInputRequired, text)
}

// RequiresAuth pauses the task until the caller authenticates.
func (u *TaskUpdater) RequiresAuth(ctx context.Context, text string) error {
	return u.updateText(ctx, a2a.TaskStateAuthRequired, text)
}

// AddArtifact delivers an artifact or one chunk of it.
func (u *TaskUpdater) AddArtifact(ctx context.Context, artifact *a2a.Artifact, append, lastChunk bool) error {
	_, err := u.manager.AddArtifact(ctx, &a2a.TaskArtifactUpdateEvent{
		TaskID:    u.taskID,
		ContextID: u.contextID,
		Artifact:  artifact,
		Append:    append,
		LastChunk: lastChunk,
	})
	return err
}

// AddMessage records an agent message in the task history and streams it.
func (u *TaskUpdater) AddMessage(ctx context.Context, msg *a2a.Message) error {
	_, err := u.manager.AddMessage(ctx, u.taskID, msg)
	return err
}
