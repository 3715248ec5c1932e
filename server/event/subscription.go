// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"io"
	"sync"

	a2a "github.com/go-a2a/a2a-engine"
)

// Subscription is one subscriber's view of a task's event flow.
//
// Events are queued in a bounded ring buffer owned by the subscription; when
// the buffer is full the oldest queued event is dropped, so a slow reader never
// blocks the publisher. A Subscription has a single reader.
type Subscription struct {
	taskID string
	hub    *Hub

	mu      sync.Mutex
	ring    []a2a.Event
	head    int
	count   int
	closed  bool
	dropped uint64

	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSubscription(hub *Hub, taskID string, size int) *Subscription {
	return &Subscription{
		taskID: taskID,
		hub:    hub,
		ring:   make([]a2a.Event, max(size, 1)),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// TaskID returns the ID of the task the subscription follows.
func (s *Subscription) TaskID() string {
	return s.taskID
}

// push queues ev and reports whether an older event had to be dropped.
func (s *Subscription) push(ev a2a.Event) (dropped bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.count == len(s.ring) {
		s.ring[s.head] = nil
		s.head = (s.head + 1) % len(s.ring)
		s.count--
		s.dropped++
		dropped = true
	}
	s.ring[(s.head+s.count)%len(s.ring)] = ev
	s.count++
	s.mu.Unlock()

	s.wake()
	return dropped
}

// finish marks the end of the flow. Queued events are still delivered.
func (s *Subscription) finish() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next event. It returns [io.EOF] once the flow has ended and
// every queued event was read, or after [Subscription.Cancel].
func (s *Subscription) Next(ctx context.Context) (a2a.Event, error) {
	for {
		select {
		case <-s.done:
			return nil, io.EOF
		default:
		}

		s.mu.Lock()
		if s.count > 0 {
			ev := s.ring[s.head]
			s.ring[s.head] = nil
			s.head = (s.head + 1) % len(s.ring)
			s.count--
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, io.EOF
		}

		select {
		case <-s.notify:
		case <-s.done:
			return nil, io.EOF
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Dropped returns how many events were discarded because the reader fell behind.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Cancel detaches the subscription from the hub. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.hub != nil {
			s.hub.unsubscribe(s)
		}
		s.finish()
	})
}
