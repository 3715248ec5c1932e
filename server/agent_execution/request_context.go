// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"slices"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/auth"
)

// RequestContext is what an [AgentExecutor] knows about the request it serves.
type RequestContext struct {
	// Task is the task snapshot taken when the message was accepted.
	Task *a2a.Task
	// Message is the incoming message.
	Message *a2a.Message
	// Configuration is the send configuration of the caller, if any.
	Configuration *a2a.SendMessageConfiguration
	// Metadata is the request metadata.
	Metadata map[string]any
	// RelatedTasks are the other tasks of the same conversation, oldest first.
	RelatedTasks []*a2a.Task
	// User is the caller.
	User auth.User
}

// TaskID returns the ID of the task being served.
func (r *RequestContext) TaskID() string {
	return r.Task.ID
}

// ContextID returns the conversation ID.
func (r *RequestContext) ContextID() string {
	return r.Task.ContextID
}

// UserInput returns the text parts of the incoming message joined with delimiter.
func (r *RequestContext) UserInput(delimiter string) string {
	return a2a.GetMessageText(r.Message, delimiter)
}

// AcceptsOutputMode reports whether the caller accepts replies of mediaType.
// A caller that lists no modes accepts everything.
func (r *RequestContext) AcceptsOutputMode(mediaType string) bool {
	if r.Configuration == nil || len(r.Configuration.AcceptedOutputModes) == 0 {
		return true
	}
	return slices.Contains(r.Configuration.AcceptedOutputModes, mediaType)
}

// AttachRelatedTask adds t to the related tasks unless it is the served task or already present.
func (r *RequestContext) AttachRelatedTask(t *a2a.Task) {
	if t == nil || t.ID == r.Task.ID {
		return
	}
	if slices.ContainsFunc(r.RelatedTasks, func(rt *a2a.Task) bool { return rt.ID == t.ID }) {
		return
	}
	r.RelatedTasks = append(r.RelatedTasks, t)
}

// Validate ensures the RequestContext is usable by an executor.
func (r *RequestContext) Validate() error {
	if err := r.Task.Validate(); err != nil {
		return err
	}
	if err := r.Message.Validate(); err != nil {
		return err
	}
	if r.Message.TaskID != "" && r.Message.TaskID != r.Task.ID {
		return a2a.NewValidationError("message.task_id", "message belongs to task %s, not %s", r.Message.TaskID, r.Task.ID)
	}
	if r.User == nil {
		return a2a.NewValidationError("user", "user cannot be nil")
	}
	return nil
}
