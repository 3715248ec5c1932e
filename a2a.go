// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the protocol model of the Agent-to-Agent (A2A) protocol for Go:
// tasks, messages, artifacts, streaming events, push notification configs and agent cards.
package a2a

import (
	"fmt"
	"strings"
)

// ProtocolVersion is the version of the A2A protocol implemented by this module.
const ProtocolVersion = "0.3.0"

// TaskState represents the lifecycle state of a [Task].
type TaskState string

const (
	// TaskStateUnspecified is the zero state and is never stored on a task.
	TaskStateUnspecified TaskState = "TASK_STATE_UNSPECIFIED"

	// TaskStateSubmitted indicates the task has been accepted but work has not started.
	TaskStateSubmitted TaskState = "TASK_STATE_SUBMITTED"

	// TaskStateWorking indicates the agent is actively working on the task.
	TaskStateWorking TaskState = "TASK_STATE_WORKING"

	// TaskStateCompleted indicates the task finished successfully.
	TaskStateCompleted TaskState = "TASK_STATE_COMPLETED"

	// TaskStateFailed indicates the task finished with an error.
	TaskStateFailed TaskState = "TASK_STATE_FAILED"

	// TaskStateCancelled indicates the task was cancelled.
	TaskStateCancelled TaskState = "TASK_STATE_CANCELLED"

	// TaskStateInputRequired indicates the agent needs more input from the caller.
	TaskStateInputRequired TaskState = "TASK_STATE_INPUT_REQUIRED"

	// TaskStateRejected indicates the agent declined the task.
	TaskStateRejected TaskState = "TASK_STATE_REJECTED"

	// TaskStateAuthRequired indicates the agent needs the caller to authenticate.
	TaskStateAuthRequired TaskState = "TASK_STATE_AUTH_REQUIRED"
)

// IsTerminal reports whether no further status transition is permitted from s.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled, TaskStateRejected:
		return true
	default:
		return false
	}
}

// IsInterrupted reports whether s pauses the task pending external input.
func (s TaskState) IsInterrupted() bool {
	return s == TaskStateInputRequired || s == TaskStateAuthRequired
}

// Valid reports whether s is one of the eight concrete task states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateCompleted, TaskStateFailed,
		TaskStateCancelled, TaskStateInputRequired, TaskStateRejected, TaskStateAuthRequired:
		return true
	default:
		return false
	}
}

// String implements [fmt.Stringer].
func (s TaskState) String() string {
	return string(s)
}

// ParseTaskState parses both the proto enum names and the short lower-case
// forms ("working", "input-required") used by older JSON-RPC clients.
func ParseTaskState(s string) (TaskState, error) {
	st := TaskState(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
	if !strings.HasPrefix(string(st), "TASK_STATE_") {
		st = "TASK_STATE_" + st
	}
	if st == "TASK_STATE_CANCELED" {
		st = TaskStateCancelled
	}
	if !st.Valid() {
		return TaskStateUnspecified, fmt.Errorf("unknown task state %q", s)
	}
	return st, nil
}

// Role identifies the sender of a [Message].
type Role string

const (
	// RoleUnspecified is the zero role and is rejected by validation.
	RoleUnspecified Role = "ROLE_UNSPECIFIED"

	// RoleUser marks messages sent by the client.
	RoleUser Role = "ROLE_USER"

	// RoleAgent marks messages produced by the agent.
	RoleAgent Role = "ROLE_AGENT"
)

// Valid reports whether r is either [RoleUser] or [RoleAgent].
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent
}
