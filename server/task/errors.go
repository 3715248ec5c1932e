// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
)

// ErrTaskExists is returned by [TaskStore.Create] for a task ID that is already stored.
var ErrTaskExists = errors.New("task already exists")

// TransitionError reports a status change the task lifecycle does not allow.
type TransitionError struct {
	TaskID string
	From   a2a.TaskState
	To     a2a.TaskState
	Err    error
}

// Error returns the error message.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s cannot move from %s to %s: %v", e.TaskID, e.From, e.To, e.Err)
}

// Unwrap returns the underlying error kind.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(taskID string, from, to a2a.TaskState, err error) *TransitionError {
	return &TransitionError{
		TaskID: taskID,
		From:   from,
		To:     to,
		Err:    err,
	}
}

// EventError reports an agent event that cannot be applied to a task.
type EventError struct {
	TaskID string
	Reason string
}

// Error returns the error message.
func (e *EventError) Error() string {
	return fmt.Sprintf("invalid event for task %s: %s", e.TaskID, e.Reason)
}

// Unwrap returns [a2a.ErrInvalidAgentResponse].
func (e *EventError) Unwrap() error {
	return a2a.ErrInvalidAgentResponse
}

// NewEventError creates a new EventError.
func NewEventError(taskID, format string, args ...any) *EventError {
	return &EventError{
		TaskID: taskID,
		Reason: fmt.Sprintf(format, args...),
	}
}

// TaskStoreError represents an error from the task store.
type TaskStoreError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e *TaskStoreError) Error() string {
	return fmt.Sprintf("task store %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e *TaskStoreError) Unwrap() error {
	return e.Err
}

// NewTaskStoreError creates a new TaskStoreError.
//
// Errors that carry no engine error kind are marked [a2a.ErrInternal].
func NewTaskStoreError(operation, taskID string, err error) *TaskStoreError {
	if !hasKind(err) {
		err = fmt.Errorf("%w: %w", a2a.ErrInternal, err)
	}
	return &TaskStoreError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}

// PushConfigError represents an error from the push notification config registry.
type PushConfigError struct {
	Operation string
	Name      string
	Err       error
}

// Error returns the error message.
func (e *PushConfigError) Error() string {
	return fmt.Sprintf("push notification config %s operation failed for %s: %v", e.Operation, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *PushConfigError) Unwrap() error {
	return e.Err
}

// NewPushConfigError creates a new PushConfigError.
func NewPushConfigError(operation, name string, err error) *PushConfigError {
	if !hasKind(err) {
		err = fmt.Errorf("%w: %w", a2a.ErrInternal, err)
	}
	return &PushConfigError{
		Operation: operation,
		Name:      name,
		Err:       err,
	}
}

var kinds = []error{
	a2a.ErrInvalidRequest,
	a2a.ErrInvalidParams,
	a2a.ErrTaskNotFound,
	a2a.ErrTaskNotCancelable,
	a2a.ErrPushNotificationNotSupported,
	a2a.ErrUnsupportedOperation,
	a2a.ErrContentTypeNotSupported,
	a2a.ErrInvalidAgentResponse,
	a2a.ErrAuthenticatedExtendedCardNotConfigured,
	a2a.ErrInternal,
	a2a.ErrVersionConflict,
	ErrTaskExists,
}

func hasKind(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
