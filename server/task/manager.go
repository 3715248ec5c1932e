// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/logging"
	"github.com/go-a2a/a2a-engine/internal/retry"
	"github.com/go-a2a/a2a-engine/server/event"
)

// Manager is the single writer of tasks.
//
// Every change to a task goes through the state machine functions of this
// package while holding a per-task lock, is written back with a
// compare-and-swap on the task version, and is then published to the stream
// hub before the lock is released. Stale-version conflicts, which only occur
// when several processes share a store, are retried against the fresh task.
type Manager struct {
	store  TaskStore
	hub    *event.Hub
	push   PushNotificationConfigStore
	locks  keyedMutex
	retry  retry.Config
	logger *slog.Logger
}

// ManagerOption configures a [Manager].
type ManagerOption func(*Manager)

// WithPushConfigStore makes task deletion also remove the task's push notification configs.
func WithPushConfigStore(store PushNotificationConfigStore) ManagerOption {
	return func(m *Manager) {
		m.push = store
	}
}

// WithRetry sets how version conflicts are retried.
func WithRetry(cfg retry.Config) ManagerOption {
	return func(m *Manager) {
		m.retry = cfg
	}
}

// WithManagerLogger sets the manager logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager.
func NewManager(store TaskStore, hub *event.Hub, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		hub:   hub,
		retry: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.Component(m.logger, "task-manager")
	return m
}

// Store returns the task store.
func (m *Manager) Store() TaskStore {
	return m.store
}

// Create starts a new task for msg and opens it in the hub.
func (m *Manager) Create(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	t, err := NewTask(msg)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, t); err != nil {
		return nil, err
	}
	m.hub.Open(t)
	m.logger.DebugContext(ctx, "task created", "task_id", t.ID, "context_id", t.ContextID)
	return t.Clone(), nil
}

// Get returns the stored task.
func (m *Manager) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	return m.store.Get(ctx, taskID)
}

// UpdateStatus moves the task to state.
func (m *Manager) UpdateStatus(ctx context.Context, taskID string, state a2a.TaskState, update *a2a.Message) (*a2a.Task, error) {
	return m.mutate(ctx, taskID, func(cur *a2a.Task) (*a2a.Task, []change, error) {
		next, changed, err := ApplyStatus(cur, state, update)
		if err != nil || !changed {
			return cur, nil, err
		}
		return next, []change{{statusUpdate(next), next}}, nil
	})
}

// AddArtifact applies an artifact update.
func (m *Manager) AddArtifact(ctx context.Context, ev *a2a.TaskArtifactUpdateEvent) (*a2a.Task, error) {
	if ev == nil {
		return nil, a2a.NewValidationError("artifact_update", "artifact update cannot be nil")
	}
	return m.mutate(ctx, ev.TaskID, func(cur *a2a.Task) (*a2a.Task, []change, error) {
		next, err := ApplyArtifact(cur, ev)
		if err != nil {
			return nil, nil, err
		}
		out := &a2a.TaskArtifactUpdateEvent{
			TaskID:    next.ID,
			ContextID: next.ContextID,
			Artifact:  ev.Artifact.Clone(),
			Append:    ev.Append,
			LastChunk: ev.LastChunk,
			Metadata:  ev.Metadata,
		}
		return next, []change{{out, next}}, nil
	})
}

// AddMessage appends an agent message to the task history and streams it.
func (m *Manager) AddMessage(ctx context.Context, taskID string, msg *a2a.Message) (*a2a.Task, error) {
	return m.mutate(ctx, taskID, func(cur *a2a.Task) (*a2a.Task, []change, error) {
		next, err := AppendMessage(cur, msg)
		if err != nil {
			return nil, nil, err
		}
		return next, []change{{next.History[len(next.History)-1].Clone(), next}}, nil
	})
}

// Continue adds a follow-up message from the caller to the task named by
// msg.TaskID. A paused task goes back to WORKING.
//
// Terminal tasks and messages from another context are rejected with
// [a2a.ErrInvalidParams].
func (m *Manager) Continue(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return m.mutate(ctx, msg.TaskID, func(cur *a2a.Task) (*a2a.Task, []change, error) {
		if cur.Status.State.IsTerminal() {
			return nil, nil, fmt.Errorf("%w: task %s is in terminal state %s", a2a.ErrInvalidParams, cur.ID, cur.Status.State)
		}
		if msg.ContextID != "" && msg.ContextID != cur.ContextID {
			return nil, nil, fmt.Errorf("%w: task %s belongs to context %s, not %s", a2a.ErrInvalidParams, cur.ID, cur.ContextID, msg.ContextID)
		}

		next, err := AppendMessage(cur, msg)
		if err != nil {
			return nil, nil, err
		}
		if !cur.Status.State.IsInterrupted() {
			return next, nil, nil
		}
		next, _, err = ApplyStatus(next, a2a.TaskStateWorking, nil)
		if err != nil {
			return nil, nil, err
		}
		return next, []change{{statusUpdate(next), next}}, nil
	})
}

// Cancel moves a non-terminal task to CANCELLED.
func (m *Manager) Cancel(ctx context.Context, taskID string) (*a2a.Task, error) {
	return m.mutate(ctx, taskID, func(cur *a2a.Task) (*a2a.Task, []change, error) {
		next, err := Cancel(cur, nil)
		if err != nil {
			return nil, nil, err
		}
		return next, []change{{statusUpdate(next), next}}, nil
	})
}

// Fail moves a non-terminal task to FAILED with cause as the status message.
// A task that never started work passes through WORKING. Terminal tasks are left alone.
func (m *Manager) Fail(ctx context.Context, taskID string, cause error) (*a2a.Task, error) {
	return m.mutate(ctx, taskID, func(cur *a2a.Task) (*a2a.Task, []change, error) {
		if cur.Status.State.IsTerminal() {
			return cur, nil, nil
		}

		var changes []change
		next := cur
		if next.Status.State == a2a.TaskStateSubmitted {
			started, _, err := ApplyStatus(next, a2a.TaskStateWorking, nil)
			if err != nil {
				return nil, nil, err
			}
			next = started
			changes = append(changes, change{statusUpdate(started), started})
		}

		msg := a2a.NewAgentTextMessage(cause.Error(), cur.ContextID, cur.ID)
		failed, _, err := ApplyStatus(next, a2a.TaskStateFailed, msg)
		if err != nil {
			return nil, nil, err
		}
		return failed, append(changes, change{statusUpdate(failed), failed}), nil
	})
}

// Subscribe attaches to the live event flow of a task. A task that is not
// open in the hub is loaded from the store first; for a terminal task the
// subscription yields the stored snapshot once.
func (m *Manager) Subscribe(ctx context.Context, taskID string) (*event.Subscription, error) {
	unlock := m.locks.Lock(taskID)
	defer unlock()

	sub, err := m.hub.Subscribe(taskID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, a2a.ErrTaskNotFound) {
		return nil, err
	}

	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return m.hub.Attach(t), nil
}

// Delete removes a task, ends its subscriptions and deletes its push notification configs.
// The configs go first so a failed cascade leaves the task in place for a retry.
func (m *Manager) Delete(ctx context.Context, taskID string) error {
	unlock := m.locks.Lock(taskID)
	defer unlock()

	if _, err := m.store.Get(ctx, taskID); err != nil {
		return err
	}
	if m.push != nil {
		if err := m.push.DeleteAll(ctx, taskID); err != nil {
			return err
		}
	}
	if err := m.store.Delete(ctx, taskID); err != nil {
		return err
	}
	m.hub.Close(taskID)
	m.logger.DebugContext(ctx, "task deleted", "task_id", taskID)
	return nil
}

// change is one published event together with the task as it stood right after it.
type change struct {
	event a2a.Event
	task  *a2a.Task
}

// mutation computes the next task from cur. Returning cur itself means nothing changed.
type mutation func(cur *a2a.Task) (next *a2a.Task, changes []change, err error)

type mutationResult struct {
	task    *a2a.Task
	changes []change
}

func (m *Manager) mutate(ctx context.Context, taskID string, fn mutation) (*a2a.Task, error) {
	if taskID == "" {
		return nil, a2a.NewValidationError("task_id", "task ID cannot be empty")
	}

	unlock := m.locks.Lock(taskID)
	defer unlock()

	res, err := retry.Do(ctx, m.retry, isVersionConflict, func() (mutationResult, error) {
		cur, err := m.store.Get(ctx, taskID)
		if err != nil {
			return mutationResult{}, err
		}
		next, changes, err := fn(cur)
		if err != nil {
			return mutationResult{}, err
		}
		if next == cur {
			return mutationResult{task: cur}, nil
		}
		if err := m.store.Update(ctx, next, cur.Version); err != nil {
			if isVersionConflict(err) {
				m.logger.DebugContext(ctx, "task version conflict, retrying", "task_id", taskID, "version", cur.Version)
			}
			return mutationResult{}, err
		}
		return mutationResult{task: next, changes: changes}, nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range res.changes {
		if err := m.hub.Publish(taskID, c.event, c.task); err != nil {
			// Nobody can be attached to a task the hub does not hold.
			if !errors.Is(err, a2a.ErrTaskNotFound) {
				return nil, err
			}
		}
	}
	return res.task.Clone(), nil
}

func isVersionConflict(err error) bool {
	return errors.Is(err, a2a.ErrVersionConflict)
}

func statusUpdate(t *a2a.Task) *a2a.TaskStatusUpdateEvent {
	status := t.Status
	status.Update = status.Update.Clone()
	return &a2a.TaskStatusUpdateEvent{
		TaskID:    t.ID,
		ContextID: t.ContextID,
		Status:    status,
		Final:     status.State.IsTerminal() || status.State.IsInterrupted(),
	}
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Lock locks key and returns the function that unlocks it.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
