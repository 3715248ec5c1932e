// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution defines the contract between the engine and the
// agent logic it runs for every incoming message.
package agent_execution

import (
	"context"

	"github.com/go-a2a/a2a-engine/server/task"
)

// AgentExecutor runs the agent for one incoming message.
//
// Execute reports progress only through updater; the engine owns the task and
// rejects updates the lifecycle does not allow. ctx is detached from the
// caller's request and is cancelled when the task is cancelled. Returning an
// error while the task is still active fails the task with that error.
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, updater *task.TaskUpdater) error
}

// AgentExecutorFunc adapts an ordinary function to [AgentExecutor].
type AgentExecutorFunc func(ctx context.Context, reqCtx *RequestContext, updater *task.TaskUpdater) error

var _ AgentExecutor = AgentExecutorFunc(nil)

// Execute calls f.
func (f AgentExecutorFunc) Execute(ctx context.Context, reqCtx *RequestContext, updater *task.TaskUpdater) error {
	return f(ctx, reqCtx, updater)
}
