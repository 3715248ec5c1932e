// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event fans out the update events of live tasks to their subscribers.
package event

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/logging"
)

// DefaultBufferSize is the per-subscriber queue length used when none is configured.
const DefaultBufferSize = 64

// Hub routes the events of each live task to the subscribers attached to it.
//
// For every open task the hub keeps the latest task snapshot. A new subscriber
// first receives that snapshot, then every event published after it attached.
// Events published before attaching are not replayed. Subscriptions end after a
// final event, and the task is forgotten once its snapshot is terminal.
//
// Published events are shared between subscribers and must not be modified.
type Hub struct {
	mu         sync.Mutex
	topics     map[string]*topic
	bufferSize int
	logger     *slog.Logger
}

type topic struct {
	// pub serializes publishers so every subscriber sees the same order.
	pub sync.Mutex

	mu       sync.Mutex
	snapshot *a2a.Task
	subs     map[*Subscription]struct{}
	done     bool
}

// HubOption configures a [Hub].
type HubOption func(*Hub)

// WithBufferSize sets the per-subscriber queue length.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates a new Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		topics:     make(map[string]*topic),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.Component(h.logger, "stream-hub")
	return h
}

// Open registers a live task with its current snapshot. Terminal tasks and
// tasks that are already open are ignored.
func (h *Hub) Open(task *a2a.Task) {
	if task.Status.State.IsTerminal() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[task.ID]; !ok {
		h.topics[task.ID] = newTopic(task)
	}
}

func newTopic(task *a2a.Task) *topic {
	return &topic{
		snapshot: task.Clone(),
		subs:     make(map[*Subscription]struct{}),
	}
}

func (h *Hub) topic(taskID string) *topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.topics[taskID]
}

// Publish delivers ev to every subscriber of taskID and records snapshot as
// the task's latest state. It never waits for subscribers.
//
// It fails with [a2a.TaskNotFoundError] if the task is not open.
func (h *Hub) Publish(taskID string, ev a2a.Event, snapshot *a2a.Task) error {
	tp := h.topic(taskID)
	if tp == nil {
		return &a2a.TaskNotFoundError{TaskID: taskID}
	}

	tp.pub.Lock()
	defer tp.pub.Unlock()

	final := a2a.IsFinalEvent(ev)

	tp.mu.Lock()
	if tp.done {
		tp.mu.Unlock()
		return &a2a.TaskNotFoundError{TaskID: taskID}
	}
	if snapshot != nil {
		tp.snapshot = snapshot.Clone()
	}
	terminal := tp.snapshot.Status.State.IsTerminal()
	subs := slices.Collect(maps.Keys(tp.subs))
	if final || terminal {
		clear(tp.subs)
	}
	tp.done = terminal
	tp.mu.Unlock()

	if terminal {
		h.remove(taskID, tp)
	}

	for _, s := range subs {
		if s.push(ev) {
			h.logger.Debug("subscriber fell behind, dropped oldest event", "task_id", taskID, "dropped", s.Dropped())
		}
		if final || terminal {
			s.finish()
		}
	}
	return nil
}

// Subscribe attaches a subscriber to an open task.
//
// It fails with [a2a.TaskNotFoundError] if the task is not open.
func (h *Hub) Subscribe(taskID string) (*Subscription, error) {
	tp := h.topic(taskID)
	if tp == nil {
		return nil, &a2a.TaskNotFoundError{TaskID: taskID}
	}
	sub, ok := h.join(tp, taskID)
	if !ok {
		return nil, &a2a.TaskNotFoundError{TaskID: taskID}
	}
	return sub, nil
}

// Attach subscribes to task, opening it first if needed. For a terminal task
// the subscription yields the snapshot once and ends.
func (h *Hub) Attach(task *a2a.Task) *Subscription {
	if task.Status.State.IsTerminal() {
		return h.snapshotOnly(task)
	}

	h.mu.Lock()
	tp, ok := h.topics[task.ID]
	if !ok {
		tp = newTopic(task)
		h.topics[task.ID] = tp
	}
	h.mu.Unlock()

	sub, joined := h.join(tp, task.ID)
	if !joined {
		return h.snapshotOnly(task)
	}
	return sub
}

func (h *Hub) join(tp *topic, taskID string) (*Subscription, bool) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.done {
		return nil, false
	}
	sub := newSubscription(h, taskID, h.bufferSize)
	sub.push(tp.snapshot.Clone())
	tp.subs[sub] = struct{}{}
	h.logger.Debug("subscriber attached", "task_id", taskID, "subscribers", len(tp.subs))
	return sub, true
}

func (h *Hub) snapshotOnly(task *a2a.Task) *Subscription {
	sub := newSubscription(nil, task.ID, 1)
	sub.push(task.Clone())
	sub.finish()
	return sub
}

func (h *Hub) unsubscribe(s *Subscription) {
	tp := h.topic(s.taskID)
	if tp == nil {
		return
	}
	tp.mu.Lock()
	delete(tp.subs, s)
	tp.mu.Unlock()
}

func (h *Hub) remove(taskID string, tp *topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[taskID] == tp {
		delete(h.topics, taskID)
	}
}

// Close forgets taskID and ends all of its subscriptions.
func (h *Hub) Close(taskID string) {
	h.mu.Lock()
	tp, ok := h.topics[taskID]
	delete(h.topics, taskID)
	h.mu.Unlock()
	if !ok {
		return
	}

	tp.mu.Lock()
	tp.done = true
	subs := slices.Collect(maps.Keys(tp.subs))
	clear(tp.subs)
	tp.mu.Unlock()

	for _, s := range subs {
		s.finish()
	}
}

// Snapshot returns the latest snapshot of an open task.
func (h *Hub) Snapshot(taskID string) (*a2a.Task, bool) {
	tp := h.topic(taskID)
	if tp == nil {
		return nil, false
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.snapshot.Clone(), true
}

// Subscribers returns the number of subscribers attached to taskID.
func (h *Hub) Subscribers(taskID string) int {
	tp := h.topic(taskID)
	if tp == nil {
		return 0
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.subs)
}
