// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"sync"
)

// execution is one running agent executor invocation.
type execution struct {
	cancel context.CancelFunc
}

// executions tracks the agent executions running for each task.
//
// An execution outlives the request that started it: its context keeps the
// request values but not the request cancellation, and ends only when the
// task is canceled, the executor returns, or the handler shuts down.
type executions struct {
	mu      sync.Mutex
	running map[string]map[*execution]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func newExecutions() *executions {
	return &executions{
		running: make(map[string]map[*execution]struct{}),
	}
}

// start runs fn in its own goroutine under a context detached from parent.
// It reports false, without running fn, once shutdown has begun.
func (e *executions) start(parent context.Context, taskID string, fn func(ctx context.Context)) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	ex := &execution{cancel: cancel}
	set, ok := e.running[taskID]
	if !ok {
		set = make(map[*execution]struct{})
		e.running[taskID] = set
	}
	set[ex] = struct{}{}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer e.remove(taskID, ex)
		defer cancel()
		fn(ctx)
	}()
	return true
}

func (e *executions) remove(taskID string, ex *execution) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.running[taskID]
	delete(set, ex)
	if len(set) == 0 {
		delete(e.running, taskID)
	}
}

// cancel cancels every execution of taskID and returns how many there were.
func (e *executions) cancel(taskID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.running[taskID]
	for ex := range set {
		ex.cancel()
	}
	return len(set)
}

// count returns the number of executions running for taskID.
func (e *executions) count(taskID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.running[taskID])
}

// shutdown cancels all executions and waits for them to return or for ctx to end.
func (e *executions) shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	for _, set := range e.running {
		for ex := range set {
			ex.cancel()
		}
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
