// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TaskStatus is the current state of a [Task] together with the message that explains it.
type TaskStatus struct {
	State     TaskState
	Update    *Message
	Timestamp time.Time
}

type taskStatusJSON struct {
	State     TaskState `json:"state"`
	Update    *Message  `json:"update,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// MarshalJSON implements [json.Marshaler].
//
// The timestamp is written in the protobuf JSON mapping of google.protobuf.Timestamp.
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	w := taskStatusJSON{State: s.State, Update: s.Update}
	if !s.Timestamp.IsZero() {
		ts, err := formatTimestamp(s.Timestamp)
		if err != nil {
			return nil, err
		}
		w.Timestamp = ts
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var w taskStatusJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = TaskStatus{State: w.State, Update: w.Update}
	if w.Timestamp != "" {
		t, err := parseTimestamp(w.Timestamp)
		if err != nil {
			return err
		}
		s.Timestamp = t
	}
	return nil
}

func formatTimestamp(t time.Time) (string, error) {
	b, err := protojson.Marshal(timestamppb.New(t))
	if err != nil {
		return "", fmt.Errorf("format timestamp: %w", err)
	}
	return strconv.Unquote(string(b))
}

func parseTimestamp(s string) (time.Time, error) {
	var ts timestamppb.Timestamp
	if err := protojson.Unmarshal([]byte(strconv.Quote(s)), &ts); err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts.AsTime(), nil
}

// Task is the server-tracked unit of work spanning one or more messages.
type Task struct {
	// ID is the engine-assigned task identifier; the resource name is tasks/{ID}.
	ID string `json:"id"`
	// ContextID groups the task with related tasks and messages.
	ContextID string `json:"contextId"`
	// Status is the current status. Only the state machine mutates it.
	Status TaskStatus `json:"status"`
	// Artifacts are the outputs produced so far, unique by ArtifactID.
	Artifacts []*Artifact `json:"artifacts,omitempty"`
	// History holds the messages exchanged for this task, oldest first.
	History []*Message `json:"history,omitempty"`
	// Metadata is optional free-form data.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Version increases by one on every successful transition and backs
	// compare-and-swap writes in task stores. It is not part of the wire format.
	Version int64 `json:"-"`
	// SealedArtifacts lists artifact IDs whose last chunk has been delivered.
	SealedArtifacts []string `json:"-"`
}

// Name returns the resource name of t.
func (t *Task) Name() string {
	return TaskName(t.ID)
}

// Validate reports whether t is a well formed task.
func (t *Task) Validate() error {
	if t == nil {
		return NewValidationError("task", "task cannot be nil")
	}
	if t.ID == "" {
		return NewValidationError("id", "task ID cannot be empty")
	}
	if t.ContextID == "" {
		return NewValidationError("context_id", "context ID cannot be empty")
	}
	if !t.Status.State.Valid() {
		return NewValidationError("status.state", "invalid task state %q", t.Status.State)
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Status.Update = t.Status.Update.Clone()
	if t.Artifacts != nil {
		cp.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			cp.Artifacts[i] = a.Clone()
		}
	}
	if t.History != nil {
		cp.History = make([]*Message, len(t.History))
		for i, m := range t.History {
			cp.History[i] = m.Clone()
		}
	}
	cp.Metadata = cloneMap(t.Metadata)
	cp.SealedArtifacts = slices.Clone(t.SealedArtifacts)
	return &cp
}

// Artifact returns the artifact with the given ID, or nil.
func (t *Task) Artifact(id string) *Artifact {
	for _, a := range t.Artifacts {
		if a.ArtifactID == id {
			return a
		}
	}
	return nil
}

// IsArtifactSealed reports whether the last chunk of artifact id has been applied.
func (t *Task) IsArtifactSealed(id string) bool {
	return slices.Contains(t.SealedArtifacts, id)
}

// WithHistoryLength returns a copy of t whose history keeps only the most
// recent n messages. Zero or a negative n keeps the full history.
func (t *Task) WithHistoryLength(n int) *Task {
	cp := t.Clone()
	if n > 0 && len(cp.History) > n {
		cp.History = cp.History[len(cp.History)-n:]
	}
	return cp
}
