// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
)

// Event is a payload that can travel in a [StreamResponse].
//
// Event is a closed sum type: the only implementations are [*Task], [*Message],
// [*TaskStatusUpdateEvent] and [*TaskArtifactUpdateEvent].
type Event interface {
	// EventTaskID returns the ID of the task the event belongs to, if any.
	EventTaskID() string

	isEvent()
}

var (
	_ Event = (*Task)(nil)
	_ Event = (*Message)(nil)
	_ Event = (*TaskStatusUpdateEvent)(nil)
	_ Event = (*TaskArtifactUpdateEvent)(nil)
)

func (*Task) isEvent()                    {}
func (*Message) isEvent()                 {}
func (*TaskStatusUpdateEvent) isEvent()   {}
func (*TaskArtifactUpdateEvent) isEvent() {}

// EventTaskID implements [Event].
func (t *Task) EventTaskID() string { return t.ID }

// EventTaskID implements [Event].
func (m *Message) EventTaskID() string { return m.TaskID }

// EventTaskID implements [Event].
func (e *TaskStatusUpdateEvent) EventTaskID() string { return e.TaskID }

// EventTaskID implements [Event].
func (e *TaskArtifactUpdateEvent) EventTaskID() string { return e.TaskID }

// TaskStatusUpdateEvent reports a change of a task's status. Final marks the
// last event of a stream.
type TaskStatusUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskArtifactUpdateEvent delivers a whole artifact or one chunk of it.
//
// Append extends the artifact with the same ID instead of starting a new one,
// and LastChunk marks the final chunk for that artifact.
type TaskArtifactUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Artifact  *Artifact      `json:"artifact"`
	Append    bool           `json:"append,omitempty"`
	LastChunk bool           `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// IsFinalEvent reports whether ev ends a stream: a terminal task snapshot or a final status update.
func IsFinalEvent(ev Event) bool {
	switch ev := ev.(type) {
	case *Task:
		return ev.Status.State.IsTerminal()
	case *TaskStatusUpdateEvent:
		return ev.Final || ev.Status.State.IsTerminal()
	default:
		return false
	}
}

// StreamResponse is one element of a streaming reply. Exactly one payload is present.
type StreamResponse struct {
	Event Event
}

type streamResponseJSON struct {
	Task           *Task                    `json:"task,omitzero"`
	Msg            *Message                 `json:"msg,omitzero"`
	StatusUpdate   *TaskStatusUpdateEvent   `json:"statusUpdate,omitzero"`
	ArtifactUpdate *TaskArtifactUpdateEvent `json:"artifactUpdate,omitzero"`
}

// MarshalJSON implements [json.Marshaler].
func (r StreamResponse) MarshalJSON() ([]byte, error) {
	var w streamResponseJSON
	switch ev := r.Event.(type) {
	case *Task:
		w.Task = ev
	case *Message:
		w.Msg = ev
	case *TaskStatusUpdateEvent:
		w.StatusUpdate = ev
	case *TaskArtifactUpdateEvent:
		w.ArtifactUpdate = ev
	default:
		return nil, fmt.Errorf("marshal stream response: unknown payload %T", ev)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *StreamResponse) UnmarshalJSON(data []byte) error {
	var w streamResponseJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var evs []Event
	if w.Task != nil {
		evs = append(evs, w.Task)
	}
	if w.Msg != nil {
		evs = append(evs, w.Msg)
	}
	if w.StatusUpdate != nil {
		evs = append(evs, w.StatusUpdate)
	}
	if w.ArtifactUpdate != nil {
		evs = append(evs, w.ArtifactUpdate)
	}
	if len(evs) != 1 {
		return fmt.Errorf("unmarshal stream response: exactly one payload must be set, got %d", len(evs))
	}
	r.Event = evs[0]
	return nil
}

// SendMessageResult is the payload of a [SendMessageResponse]: a [*Task] or a [*Message].
type SendMessageResult interface {
	Event
	isSendMessageResult()
}

func (*Task) isSendMessageResult()    {}
func (*Message) isSendMessageResult() {}

// SendMessageResponse is the reply to a non-streaming send. Exactly one payload is present.
type SendMessageResponse struct {
	Result SendMessageResult
}

type sendMessageResponseJSON struct {
	Task *Task    `json:"task,omitzero"`
	Msg  *Message `json:"msg,omitzero"`
}

// MarshalJSON implements [json.Marshaler].
func (r SendMessageResponse) MarshalJSON() ([]byte, error) {
	var w sendMessageResponseJSON
	switch res := r.Result.(type) {
	case *Task:
		w.Task = res
	case *Message:
		w.Msg = res
	default:
		return nil, fmt.Errorf("marshal send message response: unknown payload %T", res)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *SendMessageResponse) UnmarshalJSON(data []byte) error {
	var w sendMessageResponseJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Task != nil && w.Msg != nil:
		return errors.New("unmarshal send message response: both task and msg set")
	case w.Task != nil:
		r.Result = w.Task
	case w.Msg != nil:
		r.Result = w.Msg
	default:
		return errors.New("unmarshal send message response: no payload")
	}
	return nil
}
