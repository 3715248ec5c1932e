// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"cmp"
	"context"
	"slices"
	"sync"

	a2a "github.com/go-a2a/a2a-engine"
)

// InMemoryTaskStore is an in-memory implementation of TaskStore.
// Task data is lost when the process stops.
type InMemoryTaskStore struct {
	mu      sync.RWMutex
	tasks   map[string]*a2a.Task
	created map[string]uint64
	seq     uint64
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates a new InMemoryTaskStore.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks:   make(map[string]*a2a.Task),
		created: make(map[string]uint64),
	}
}

// Create stores a new task.
func (s *InMemoryTaskStore) Create(ctx context.Context, task *a2a.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return NewTaskStoreError("create", task.ID, ErrTaskExists)
	}
	s.seq++
	s.tasks[task.ID] = task.Clone()
	s.created[task.ID] = s.seq
	return nil
}

// Get retrieves a task by its ID.
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, &a2a.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Update replaces the stored task if its version is still expectedVersion.
func (s *InMemoryTaskStore) Update(ctx context.Context, task *a2a.Task, expectedVersion int64) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.tasks[task.ID]
	if !exists {
		return &a2a.TaskNotFoundError{TaskID: task.ID}
	}
	if cur.Version != expectedVersion {
		return NewTaskStoreError("update", task.ID, a2a.ErrVersionConflict)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// ListByContext returns the tasks of a conversation in creation order.
func (s *InMemoryTaskStore) ListByContext(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*a2a.Task
	for _, task := range s.tasks {
		if task.ContextID == contextID {
			tasks = append(tasks, task.Clone())
		}
	}
	slices.SortFunc(tasks, func(a, b *a2a.Task) int {
		return cmp.Compare(s.created[a.ID], s.created[b.ID])
	})
	return tasks, nil
}

// Delete removes a task.
func (s *InMemoryTaskStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return &a2a.TaskNotFoundError{TaskID: taskID}
	}
	delete(s.tasks, taskID)
	delete(s.created, taskID)
	return nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryTaskStore) Initialize(ctx context.Context) error {
	return nil
}

// Close drops every stored task.
func (s *InMemoryTaskStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2a.Task)
	s.created = make(map[string]uint64)
	return nil
}

// Size returns the current number of stored tasks.
func (s *InMemoryTaskStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}
