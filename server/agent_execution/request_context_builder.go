// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"

	a2a "github.com/go-a2a/a2a-engine"
)

// RequestContextBuilder builds the [RequestContext] supplied to an [AgentExecutor].
type RequestContextBuilder interface {
	// Build creates the context for req, which was accepted as current.
	// The caller identity is taken from ctx.
	Build(ctx context.Context, req *a2a.SendMessageRequest, current *a2a.Task) (*RequestContext, error)
}
