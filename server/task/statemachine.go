// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-engine"
)

// The functions in this file are the only code that changes a task. Each one
// leaves its input untouched and returns a new task whose Version is one
// greater, so that the result can be written with a compare-and-swap on the
// previous version.

// transitions lists, for every non-terminal state, the states it may move to.
// WORKING may move to itself so agents can report progress.
var transitions = map[a2a.TaskState][]a2a.TaskState{
	a2a.TaskStateSubmitted: {
		a2a.TaskStateWorking,
		a2a.TaskStateRejected,
	},
	a2a.TaskStateWorking: {
		a2a.TaskStateWorking,
		a2a.TaskStateInputRequired,
		a2a.TaskStateAuthRequired,
		a2a.TaskStateCompleted,
		a2a.TaskStateFailed,
		a2a.TaskStateCancelled,
		a2a.TaskStateRejected,
	},
	a2a.TaskStateInputRequired: {
		a2a.TaskStateWorking,
		a2a.TaskStateCompleted,
		a2a.TaskStateFailed,
		a2a.TaskStateCancelled,
		a2a.TaskStateRejected,
	},
	a2a.TaskStateAuthRequired: {
		a2a.TaskStateWorking,
		a2a.TaskStateCompleted,
		a2a.TaskStateFailed,
		a2a.TaskStateCancelled,
		a2a.TaskStateRejected,
	},
}

// CanTransition reports whether a task in state from may move to state to.
func CanTransition(from, to a2a.TaskState) bool {
	return slices.Contains(transitions[from], to)
}

var now = func() time.Time { return time.Now().UTC() }

// NewTask creates a SUBMITTED task for the first message of a conversation.
//
// The caller's context ID is kept when present, otherwise one is generated.
func NewTask(msg *a2a.Message) (*a2a.Task, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	t := &a2a.Task{
		ID:        uuid.NewString(),
		ContextID: msg.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateSubmitted,
			Timestamp: now(),
		},
		Version: 1,
	}
	if t.ContextID == "" {
		t.ContextID = uuid.NewString()
	}

	first := msg.Clone()
	first.TaskID = t.ID
	first.ContextID = t.ContextID
	t.History = []*a2a.Message{first}
	return t, nil
}

// ApplyStatus moves t to state, with an optional message explaining the change.
//
// Re-applying the terminal state a task already has is accepted and reported
// with changed == false. The message of the replaced status is kept in the
// history.
func ApplyStatus(t *a2a.Task, state a2a.TaskState, update *a2a.Message) (next *a2a.Task, changed bool, err error) {
	from := t.Status.State
	switch {
	case !state.Valid():
		return nil, false, NewTransitionError(t.ID, from, state, a2a.ErrInvalidAgentResponse)
	case from.IsTerminal() && state == from:
		return t, false, nil
	case from.IsTerminal() && state == a2a.TaskStateCancelled:
		return nil, false, NewTransitionError(t.ID, from, state, a2a.ErrTaskNotCancelable)
	case !CanTransition(from, state):
		return nil, false, NewTransitionError(t.ID, from, state, a2a.ErrInvalidAgentResponse)
	}

	msg, err := bindMessage(t, update)
	if err != nil {
		return nil, false, err
	}
	return setStatus(t, state, msg), true, nil
}

// Cancel moves a non-terminal task to CANCELLED.
func Cancel(t *a2a.Task, reason *a2a.Message) (*a2a.Task, error) {
	if t.Status.State.IsTerminal() {
		return nil, NewTransitionError(t.ID, t.Status.State, a2a.TaskStateCancelled, a2a.ErrTaskNotCancelable)
	}
	msg, err := bindMessage(t, reason)
	if err != nil {
		return nil, err
	}
	return setStatus(t, a2a.TaskStateCancelled, msg), nil
}

func setStatus(t *a2a.Task, state a2a.TaskState, update *a2a.Message) *a2a.Task {
	next := t.Clone()
	if prev := next.Status.Update; prev != nil {
		next.History = append(next.History, prev)
	}
	next.Status = a2a.TaskStatus{
		State:     state,
		Update:    update,
		Timestamp: now(),
	}
	next.Version++
	return next
}

// ApplyArtifact applies an artifact update to t.
//
// An event with Append unset creates the artifact or replaces an unfinished
// one with the same ID. Append extends an existing artifact. Once an event
// with LastChunk has been applied, further events for that artifact are rejected.
// The version is bumped but the status timestamp is left alone.
func ApplyArtifact(t *a2a.Task, ev *a2a.TaskArtifactUpdateEvent) (*a2a.Task, error) {
	if ev == nil {
		return nil, NewEventError(t.ID, "artifact update cannot be nil")
	}
	if ev.TaskID != "" && ev.TaskID != t.ID {
		return nil, NewEventError(t.ID, "artifact update addressed to task %s", ev.TaskID)
	}
	if t.Status.State.IsTerminal() {
		return nil, NewEventError(t.ID, "artifact update after terminal state %s", t.Status.State)
	}
	if err := ev.Artifact.Validate(); err != nil {
		return nil, NewEventError(t.ID, "%v", err)
	}

	id := ev.Artifact.ArtifactID
	if t.IsArtifactSealed(id) {
		return nil, NewEventError(t.ID, "artifact %s already received its last chunk", id)
	}

	next := t.Clone()
	idx := slices.IndexFunc(next.Artifacts, func(a *a2a.Artifact) bool { return a.ArtifactID == id })

	switch {
	case !ev.Append && idx < 0:
		next.Artifacts = append(next.Artifacts, ev.Artifact.Clone())
	case !ev.Append:
		next.Artifacts[idx] = ev.Artifact.Clone()
	case idx < 0:
		return nil, NewEventError(t.ID, "append to unknown artifact %s", id)
	default:
		extendArtifact(next.Artifacts[idx], ev.Artifact)
	}

	if ev.LastChunk {
		next.SealedArtifacts = append(next.SealedArtifacts, id)
	}
	next.Version++
	return next, nil
}

func extendArtifact(dst, chunk *a2a.Artifact) {
	dst.Parts = append(dst.Parts, chunk.Parts.Clone()...)
	if chunk.Name != "" {
		dst.Name = chunk.Name
	}
	if chunk.Description != "" {
		dst.Description = chunk.Description
	}
	if len(chunk.Metadata) > 0 {
		if dst.Metadata == nil {
			dst.Metadata = make(map[string]any, len(chunk.Metadata))
		}
		maps.Copy(dst.Metadata, chunk.Clone().Metadata)
	}
	for _, ext := range chunk.Extensions {
		if !slices.Contains(dst.Extensions, ext) {
			dst.Extensions = append(dst.Extensions, ext)
		}
	}
}

// AppendMessage adds msg to the history of a non-terminal task. Like
// [ApplyArtifact] it bumps the version without stamping the status.
func AppendMessage(t *a2a.Task, msg *a2a.Message) (*a2a.Task, error) {
	if t.Status.State.IsTerminal() {
		return nil, NewEventError(t.ID, "message after terminal state %s", t.Status.State)
	}
	bound, err := bindMessage(t, msg)
	if err != nil {
		return nil, err
	}
	if bound == nil {
		return nil, NewEventError(t.ID, "message cannot be nil")
	}

	next := t.Clone()
	next.History = append(next.History, bound)
	next.Version++
	return next, nil
}

// bindMessage validates msg and returns a copy that carries the task and context IDs of t.
func bindMessage(t *a2a.Task, msg *a2a.Message) (*a2a.Message, error) {
	if msg == nil {
		return nil, nil
	}
	if err := msg.Validate(); err != nil {
		return nil, NewEventError(t.ID, "%v", err)
	}
	if msg.TaskID != "" && msg.TaskID != t.ID {
		return nil, NewEventError(t.ID, "message %s belongs to task %s", msg.MessageID, msg.TaskID)
	}
	if msg.ContextID != "" && msg.ContextID != t.ContextID {
		return nil, NewEventError(t.ID, "message %s belongs to context %s", msg.MessageID, msg.ContextID)
	}

	cp := msg.Clone()
	cp.TaskID = t.ID
	cp.ContextID = t.ContextID
	return cp, nil
}
