// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-engine"
)

func newTask(id string, state a2a.TaskState, version int64) *a2a.Task {
	return &a2a.Task{
		ID:        id,
		ContextID: "ctx-" + id,
		Status:    a2a.TaskStatus{State: state},
		Version:   version,
	}
}

func statusEvent(task *a2a.Task) *a2a.TaskStatusUpdateEvent {
	return &a2a.TaskStatusUpdateEvent{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Status:    task.Status,
		Final:     task.Status.State.IsTerminal() || task.Status.State.IsInterrupted(),
		Metadata:  map[string]any{"version": task.Version},
	}
}

// drain reads a subscription until it ends and returns the task versions it
// observed: the snapshot version followed by the version of every event.
func drain(t *testing.T, sub *Subscription) []int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	var versions []int64
	for {
		ev, err := sub.Next(ctx)
		if errors.Is(err, io.EOF) {
			return versions
		}
		if err != nil {
			t.Errorf("Next() error: %v", err)
			return versions
		}
		switch ev := ev.(type) {
		case *a2a.Task:
			versions = append(versions, ev.Version)
		case *a2a.TaskStatusUpdateEvent:
			versions = append(versions, ev.Metadata["version"].(int64))
		default:
			t.Errorf("unexpected event %T", ev)
		}
	}
}

func TestHubSnapshotThenEvents(t *testing.T) {
	hub := NewHub()
	task := newTask("t1", a2a.TaskStateSubmitted, 1)
	hub.Open(task)

	sub, err := hub.Subscribe("t1")
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	working := newTask("t1", a2a.TaskStateWorking, 2)
	if err := hub.Publish("t1", statusEvent(working), working); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	completed := newTask("t1", a2a.TaskStateCompleted, 3)
	if err := hub.Publish("t1", statusEvent(completed), completed); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	if diff := cmp.Diff([]int64{1, 2, 3}, drain(t, sub)); diff != "" {
		t.Errorf("observed versions mismatch (-want +got):\n%s", diff)
	}
	if _, ok := hub.Snapshot("t1"); ok {
		t.Errorf("terminal task is still open in the hub")
	}
	if err := hub.Publish("t1", statusEvent(completed), completed); err == nil {
		t.Errorf("Publish() after terminal state succeeded, want not found")
	}
}

func TestHubUnknownTask(t *testing.T) {
	hub := NewHub()

	err := hub.Publish("missing", statusEvent(newTask("missing", a2a.TaskStateWorking, 2)), nil)
	if !errors.Is(err, a2a.ErrTaskNotFound) {
		t.Errorf("Publish() error = %v, want ErrTaskNotFound", err)
	}
	if _, err := hub.Subscribe("missing"); !errors.Is(err, a2a.ErrTaskNotFound) {
		t.Errorf("Subscribe() error = %v, want ErrTaskNotFound", err)
	}
}

func TestHubAttachTerminalTask(t *testing.T) {
	hub := NewHub()
	sub := hub.Attach(newTask("done", a2a.TaskStateFailed, 4))

	if diff := cmp.Diff([]int64{4}, drain(t, sub)); diff != "" {
		t.Errorf("observed versions mismatch (-want +got):\n%s", diff)
	}
	if n := hub.Subscribers("done"); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestHubInterruptedEndsStreamsButKeepsTask(t *testing.T) {
	hub := NewHub()
	hub.Open(newTask("t1", a2a.TaskStateWorking, 2))

	first, err := hub.Subscribe("t1")
	if err != nil {
		t.Fatal(err)
	}
	paused := newTask("t1", a2a.TaskStateInputRequired, 3)
	if err := hub.Publish("t1", statusEvent(paused), paused); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{2, 3}, drain(t, first)); diff != "" {
		t.Errorf("first subscriber mismatch (-want +got):\n%s", diff)
	}

	// A resubscription to the paused task stays attached for future events.
	second, err := hub.Subscribe("t1")
	if err != nil {
		t.Fatalf("Subscribe() after interruption error: %v", err)
	}
	resumed := newTask("t1", a2a.TaskStateWorking, 4)
	done := newTask("t1", a2a.TaskStateCompleted, 5)
	for _, s := range []*a2a.Task{resumed, done} {
		if err := hub.Publish("t1", statusEvent(s), s); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]int64{3, 4, 5}, drain(t, second)); diff != "" {
		t.Errorf("second subscriber mismatch (-want +got):\n%s", diff)
	}
}

func TestHubFanOutIsPrefixConsistent(t *testing.T) {
	const (
		subscribers = 8
		updates     = 200
	)
	hub := NewHub(WithBufferSize(updates + 2))
	hub.Open(newTask("t1", a2a.TaskStateWorking, 1))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results [][]int64
	)
	attached := make(chan struct{}, subscribers)
	for i := range subscribers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Stagger attachment so subscribers join at different points.
			time.Sleep(time.Duration(i) * 200 * time.Microsecond)
			sub, err := hub.Subscribe("t1")
			attached <- struct{}{}
			if err != nil {
				// The task may already have completed.
				return
			}
			got := drain(t, sub)
			mu.Lock()
			results = append(results, got)
			mu.Unlock()
		}()
	}

	<-attached
	for v := int64(2); v <= updates; v++ {
		state := a2a.TaskStateWorking
		if v == updates {
			state = a2a.TaskStateCompleted
		}
		snap := newTask("t1", state, v)
		if err := hub.Publish("t1", statusEvent(snap), snap); err != nil {
			t.Fatalf("Publish(%d) error: %v", v, err)
		}
	}
	wg.Wait()

	if len(results) == 0 {
		t.Fatal("no subscriber observed the task")
	}
	for _, got := range results {
		if got[len(got)-1] != updates {
			t.Errorf("sequence ends at %d, want %d", got[len(got)-1], updates)
		}
		for i := 1; i < len(got); i++ {
			if got[i] != got[i-1]+1 {
				t.Errorf("sequence has a gap or reordering at %d: %v", i, got[i-1:i+1])
				break
			}
		}
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(WithBufferSize(4))
	hub.Open(newTask("t1", a2a.TaskStateWorking, 1))

	slow, err := hub.Subscribe("t1")
	if err != nil {
		t.Fatal(err)
	}

	published := make(chan struct{})
	go func() {
		defer close(published)
		for v := int64(2); v <= 101; v++ {
			snap := newTask("t1", a2a.TaskStateWorking, v)
			_ = hub.Publish("t1", statusEvent(snap), snap)
		}
	}()

	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher blocked on a subscriber that never reads")
	}

	if got := slow.Dropped(); got != 97 {
		t.Errorf("Dropped() = %d, want 97", got)
	}
	ev, err := slow.Next(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got := ev.(*a2a.TaskStatusUpdateEvent).Metadata["version"]; got != int64(98) {
		t.Errorf("oldest retained event version = %v, want 98", got)
	}
}

func TestSubscriptionCancel(t *testing.T) {
	hub := NewHub()
	hub.Open(newTask("t1", a2a.TaskStateWorking, 1))

	sub, err := hub.Subscribe("t1")
	if err != nil {
		t.Fatal(err)
	}
	if n := hub.Subscribers("t1"); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}

	sub.Cancel()
	sub.Cancel()

	if n := hub.Subscribers("t1"); n != 0 {
		t.Errorf("Subscribers() after Cancel = %d, want 0", n)
	}
	if _, err := sub.Next(t.Context()); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after Cancel error = %v, want io.EOF", err)
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	hub.Open(newTask("t1", a2a.TaskStateWorking, 1))
	sub, err := hub.Subscribe("t1")
	if err != nil {
		t.Fatal(err)
	}

	hub.Close("t1")

	if diff := cmp.Diff([]int64{1}, drain(t, sub)); diff != "" {
		t.Errorf("observed versions mismatch (-want +got):\n%s", diff)
	}
	if _, err := hub.Subscribe("t1"); err == nil {
		t.Errorf("Subscribe() after Close succeeded")
	}
}
