// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"fmt"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/auth"
	"github.com/go-a2a/a2a-engine/server/task"
)

// SimpleRequestContextBuilder is the default [RequestContextBuilder].
//
// It can be configured to populate related tasks, the other tasks sharing the
// served task's context ID.
type SimpleRequestContextBuilder struct {
	store                task.TaskStore
	populateRelatedTasks bool
}

var _ RequestContextBuilder = (*SimpleRequestContextBuilder)(nil)

// NewSimpleRequestContextBuilder creates a new SimpleRequestContextBuilder.
// store is only consulted when populateRelatedTasks is set.
func NewSimpleRequestContextBuilder(store task.TaskStore, populateRelatedTasks bool) *SimpleRequestContextBuilder {
	return &SimpleRequestContextBuilder{
		store:                store,
		populateRelatedTasks: populateRelatedTasks && store != nil,
	}
}

// Build creates a RequestContext from the provided parameters.
func (b *SimpleRequestContextBuilder) Build(ctx context.Context, req *a2a.SendMessageRequest, current *a2a.Task) (*RequestContext, error) {
	if req == nil {
		return nil, a2a.NewValidationError("request", "send message request cannot be nil")
	}

	reqCtx := &RequestContext{
		Task:          current.Clone(),
		Message:       req.Request.Clone(),
		Configuration: req.Configuration,
		Metadata:      req.Metadata,
		User:          auth.UserFromContext(ctx),
	}
	if err := reqCtx.Validate(); err != nil {
		return nil, fmt.Errorf("build request context: %w", err)
	}

	if b.populateRelatedTasks {
		related, err := b.store.ListByContext(ctx, current.ContextID)
		if err != nil {
			return nil, fmt.Errorf("populate related tasks: %w", err)
		}
		for _, t := range related {
			reqCtx.AttachRelatedTask(t)
		}
	}
	return reqCtx, nil
}

// PopulateRelatedTasks returns whether related tasks are populated during building.
func (b *SimpleRequestContextBuilder) PopulateRelatedTasks() bool {
	return b.populateRelatedTasks
}
