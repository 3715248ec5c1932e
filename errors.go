// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
)

// Error kinds. Engine components wrap one of these so that the request handler
// can translate any failure into a protocol error with [errors.Is].
var (
	// ErrInvalidRequest reports a request that is structurally wrong: a missing
	// required field or a malformed resource name.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidParams reports method parameters that are well formed but not acceptable.
	ErrInvalidParams = errors.New("invalid params")

	// ErrTaskNotFound reports an unknown task or push notification config.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotCancelable reports a cancel or transition attempted on a task in a terminal state.
	ErrTaskNotCancelable = errors.New("task cannot be canceled")

	// ErrPushNotificationNotSupported reports push notification use on an agent that does not support it.
	ErrPushNotificationNotSupported = errors.New("push notification is not supported")

	// ErrUnsupportedOperation reports a feature that is not enabled on this agent.
	ErrUnsupportedOperation = errors.New("this operation is not supported")

	// ErrContentTypeNotSupported reports a part whose media type the agent does not accept.
	ErrContentTypeNotSupported = errors.New("incompatible content types")

	// ErrInvalidAgentResponse reports an agent event that violates the task state machine.
	ErrInvalidAgentResponse = errors.New("invalid agent response")

	// ErrAuthenticatedExtendedCardNotConfigured reports a request for an extended card the agent does not offer.
	ErrAuthenticatedExtendedCardNotConfigured = errors.New("authenticated extended card is not configured")

	// ErrInternal reports an infrastructure failure.
	ErrInternal = errors.New("internal error")

	// ErrVersionConflict reports a compare-and-swap write against a stale task
	// version. It is retried by the task manager and never reaches callers.
	ErrVersionConflict = errors.New("task version conflict")
)

// ValidationError reports an invalid field of a request or model value.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Unwrap returns [ErrInvalidRequest].
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NewValidationError creates a new [ValidationError].
func NewValidationError(field, message string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(message, args...),
	}
}

// NameError reports a malformed resource name.
type NameError struct {
	Name    string
	Pattern string
}

// Error implements the error interface.
func (e *NameError) Error() string {
	return fmt.Sprintf("malformed resource name %q, want %s", e.Name, e.Pattern)
}

// Unwrap returns [ErrInvalidRequest].
func (e *NameError) Unwrap() error {
	return ErrInvalidRequest
}

// TaskNotFoundError reports an unknown task.
type TaskNotFoundError struct {
	TaskID string
}

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// Unwrap returns [ErrTaskNotFound].
func (e *TaskNotFoundError) Unwrap() error {
	return ErrTaskNotFound
}

// PushConfigNotFoundError reports an unknown push notification config.
type PushConfigNotFoundError struct {
	TaskID   string
	ConfigID string
}

// Error implements the error interface.
func (e *PushConfigNotFoundError) Error() string {
	return fmt.Sprintf("push notification config not found: %s", PushConfigName(e.TaskID, e.ConfigID))
}

// Unwrap returns [ErrTaskNotFound].
func (e *PushConfigNotFoundError) Unwrap() error {
	return ErrTaskNotFound
}
