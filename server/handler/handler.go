// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler provides request handlers for the A2A protocol server.
// This package implements the core request handling logic, including
// task management, message processing, and protocol-specific adapters.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/logging"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

// DefaultBlockingTimeout bounds how long a blocking send waits for the task
// to stop working.
const DefaultBlockingTimeout = 60 * time.Second

// RequestHandler defines the interface for handling A2A protocol requests.
// This interface abstracts the core request processing logic from protocol-specific
// concerns, allowing the same handler to work with different transport protocols
// (JSON-RPC, gRPC, etc.).
type RequestHandler interface {
	// OnMessageSend handles requests to send a message and process it.
	OnMessageSend(ctx context.Context, req *a2a.SendMessageRequest) (*a2a.SendMessageResponse, error)

	// OnMessageSendStream sends a message and streams the task events. The
	// first element is the task snapshot; the sequence ends after the final event.
	OnMessageSendStream(ctx context.Context, req *a2a.SendMessageRequest) iter.Seq2[a2a.Event, error]

	// OnGetTask returns the current state of a task.
	OnGetTask(ctx context.Context, req *a2a.GetTaskRequest) (*a2a.Task, error)

	// OnCancelTask cancels a task and stops its executions.
	OnCancelTask(ctx context.Context, req *a2a.CancelTaskRequest) (*a2a.Task, error)

	// OnResubscribeToTask streams the events of an existing task, starting
	// with its current snapshot.
	OnResubscribeToTask(ctx context.Context, req *a2a.TaskSubscriptionRequest) iter.Seq2[a2a.Event, error]

	OnCreateTaskPushNotificationConfig(ctx context.Context, req *a2a.CreateTaskPushNotificationConfigRequest) (*a2a.TaskPushNotificationConfig, error)
	OnGetTaskPushNotificationConfig(ctx context.Context, req *a2a.GetTaskPushNotificationConfigRequest) (*a2a.TaskPushNotificationConfig, error)
	OnListTaskPushNotificationConfig(ctx context.Context, req *a2a.ListTaskPushNotificationConfigRequest) (*a2a.ListTaskPushNotificationConfigResponse, error)
	OnDeleteTaskPushNotificationConfig(ctx context.Context, req *a2a.DeleteTaskPushNotificationConfigRequest) error

	// OnGetAgentCard returns the public agent card.
	OnGetAgentCard(ctx context.Context) (*a2a.AgentCard, error)

	// OnGetAuthenticatedExtendedCard returns the card served to authenticated callers.
	OnGetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error)
}

// DefaultRequestHandler serves A2A requests with a [task.Manager] and an
// [agent_execution.AgentExecutor].
type DefaultRequestHandler struct {
	card            *a2a.AgentCard
	extendedCard    *a2a.AgentCard
	executor        agent_execution.AgentExecutor
	manager         *task.Manager
	registry        *task.PushConfigRegistry
	builder         agent_execution.RequestContextBuilder
	blockingTimeout time.Duration
	running         *executions
	logger          *slog.Logger
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// Option configures a [DefaultRequestHandler].
type Option func(*DefaultRequestHandler)

// WithExtendedCard sets the card returned to authenticated callers. It is
// only served when the public card advertises supportsAuthenticatedExtendedCard.
func WithExtendedCard(card *a2a.AgentCard) Option {
	return func(h *DefaultRequestHandler) {
		h.extendedCard = card
	}
}

// WithPushConfigRegistry enables the push notification config operations.
func WithPushConfigRegistry(registry *task.PushConfigRegistry) Option {
	return func(h *DefaultRequestHandler) {
		h.registry = registry
	}
}

// WithRequestContextBuilder sets how executor request contexts are built.
func WithRequestContextBuilder(builder agent_execution.RequestContextBuilder) Option {
	return func(h *DefaultRequestHandler) {
		h.builder = builder
	}
}

// WithBlockingTimeout bounds the wait of blocking sends. Zero or less waits
// for as long as the caller's context allows.
func WithBlockingTimeout(d time.Duration) Option {
	return func(h *DefaultRequestHandler) {
		h.blockingTimeout = d
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *DefaultRequestHandler) {
		h.logger = logger
	}
}

// NewDefaultRequestHandler creates a new DefaultRequestHandler.
func NewDefaultRequestHandler(card *a2a.AgentCard, executor agent_execution.AgentExecutor, manager *task.Manager, opts ...Option) (*DefaultRequestHandler, error) {
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("handler: %w", err)
	}
	if executor == nil {
		return nil, errors.New("handler: agent executor cannot be nil")
	}
	if manager == nil {
		return nil, errors.New("handler: task manager cannot be nil")
	}

	h := &DefaultRequestHandler{
		card:            card.Clone(),
		executor:        executor,
		manager:         manager,
		blockingTimeout: DefaultBlockingTimeout,
		running:         newExecutions(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.builder == nil {
		h.builder = agent_execution.NewSimpleRequestContextBuilder(manager.Store(), false)
	}
	h.logger = logging.Component(h.logger, "request-handler")
	return h, nil
}

// OnMessageSend creates or continues a task for the message and starts the
// agent executor on it.
//
// A non-blocking send returns the task as it was accepted. A blocking send
// waits until the task is terminal or interrupted; when the blocking timeout
// elapses first it returns the task in its current state and the execution
// carries on.
func (h *DefaultRequestHandler) OnMessageSend(ctx context.Context, req *a2a.SendMessageRequest) (*a2a.SendMessageResponse, error) {
	blocking := req != nil && req.Configuration != nil && req.Configuration.Blocking

	t, sub, err := h.start(ctx, req, blocking)
	if err != nil {
		return nil, err
	}
	if blocking {
		defer sub.Cancel()
		if err := h.wait(ctx, sub); err != nil {
			return nil, err
		}
		if t, err = h.manager.Get(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return &a2a.SendMessageResponse{Result: t.WithHistoryLength(historyLength(req))}, nil
}

// OnMessageSendStream creates or continues a task for the message and yields
// its events until the task is terminal or interrupted.
func (h *DefaultRequestHandler) OnMessageSendStream(ctx context.Context, req *a2a.SendMessageRequest) iter.Seq2[a2a.Event, error] {
	return func(yield func(a2a.Event, error) bool) {
		if err := h.requireStreaming(); err != nil {
			yield(nil, err)
			return
		}
		_, sub, err := h.start(ctx, req, true)
		if err != nil {
			yield(nil, err)
			return
		}
		h.stream(ctx, sub, historyLength(req), yield)
	}
}

// OnResubscribeToTask yields the current snapshot of the task followed by
// its live events. A task that already stopped yields only its snapshot.
func (h *DefaultRequestHandler) OnResubscribeToTask(ctx context.Context, req *a2a.TaskSubscriptionRequest) iter.Seq2[a2a.Event, error] {
	return func(yield func(a2a.Event, error) bool) {
		if err := h.requireStreaming(); err != nil {
			yield(nil, err)
			return
		}
		if req == nil {
			yield(nil, a2a.NewValidationError("request", "task subscription request cannot be nil"))
			return
		}
		taskID, err := a2a.ParseTaskName(req.Name)
		if err != nil {
			yield(nil, err)
			return
		}
		sub, err := h.manager.Subscribe(ctx, taskID)
		if err != nil {
			yield(nil, err)
			return
		}
		h.stream(ctx, sub, 0, yield)
	}
}

// OnGetTask returns the task, with its history cut to the requested length.
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, req *a2a.GetTaskRequest) (*a2a.Task, error) {
	if req == nil {
		return nil, a2a.NewValidationError("request", "get task request cannot be nil")
	}
	taskID, err := a2a.ParseTaskName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.HistoryLength < 0 {
		return nil, fmt.Errorf("%w: history length must not be negative, got %d", a2a.ErrInvalidParams, req.HistoryLength)
	}

	t, err := h.manager.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return t.WithHistoryLength(int(req.HistoryLength)), nil
}

// OnCancelTask moves the task to CANCELLED and cancels its running executions.
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, req *a2a.CancelTaskRequest) (*a2a.Task, error) {
	if req == nil {
		return nil, a2a.NewValidationError("request", "cancel task request cannot be nil")
	}
	taskID, err := a2a.ParseTaskName(req.Name)
	if err != nil {
		return nil, err
	}

	t, err := h.manager.Cancel(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if n := h.running.cancel(taskID); n > 0 {
		h.logger.DebugContext(ctx, "canceled executions", "task_id", taskID, "count", n)
	}
	return t, nil
}

// OnCreateTaskPushNotificationConfig registers a webhook for a task.
func (h *DefaultRequestHandler) OnCreateTaskPushNotificationConfig(ctx context.Context, req *a2a.CreateTaskPushNotificationConfigRequest) (*a2a.TaskPushNotificationConfig, error) {
	if err := h.requirePush(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, a2a.NewValidationError("request", "create push notification config request cannot be nil")
	}
	return h.registry.Create(ctx, req.Parent, req.ConfigID, req.Config)
}

// OnGetTaskPushNotificationConfig returns one webhook registration.
func (h *DefaultRequestHandler) OnGetTaskPushNotificationConfig(ctx context.Context, req *a2a.GetTaskPushNotificationConfigRequest) (*a2a.TaskPushNotificationConfig, error) {
	if err := h.requirePush(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, a2a.NewValidationError("request", "get push notification config request cannot be nil")
	}
	return h.registry.Get(ctx, req.Name)
}

// OnListTaskPushNotificationConfig returns one page of the webhooks of a task.
func (h *DefaultRequestHandler) OnListTaskPushNotificationConfig(ctx context.Context, req *a2a.ListTaskPushNotificationConfigRequest) (*a2a.ListTaskPushNotificationConfigResponse, error) {
	if err := h.requirePush(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, a2a.NewValidationError("request", "list push notification config request cannot be nil")
	}
	return h.registry.List(ctx, req.Parent, req.PageSize, req.PageToken)
}

// OnDeleteTaskPushNotificationConfig removes one webhook registration.
func (h *DefaultRequestHandler) OnDeleteTaskPushNotificationConfig(ctx context.Context, req *a2a.DeleteTaskPushNotificationConfigRequest) error {
	if err := h.requirePush(); err != nil {
		return err
	}
	if req == nil {
		return a2a.NewValidationError("request", "delete push notification config request cannot be nil")
	}
	return h.registry.Delete(ctx, req.Name)
}

// OnGetAgentCard returns a copy of the public agent card.
func (h *DefaultRequestHandler) OnGetAgentCard(context.Context) (*a2a.AgentCard, error) {
	return h.card.Clone(), nil
}

// OnGetAuthenticatedExtendedCard returns a copy of the extended agent card.
func (h *DefaultRequestHandler) OnGetAuthenticatedExtendedCard(context.Context) (*a2a.AgentCard, error) {
	if !h.card.SupportsAuthenticatedExtendedCard || h.extendedCard == nil {
		return nil, a2a.ErrAuthenticatedExtendedCardNotConfigured
	}
	return h.extendedCard.Clone(), nil
}

// Shutdown cancels every running execution and waits for them to return or
// for ctx to end. Sends accepted afterwards fail their task.
func (h *DefaultRequestHandler) Shutdown(ctx context.Context) error {
	return h.running.shutdown(ctx)
}

// start validates req, creates or continues its task and starts an execution
// on it. With subscribe set the returned subscription is attached before the
// execution starts, so it observes every event the execution produces.
func (h *DefaultRequestHandler) start(ctx context.Context, req *a2a.SendMessageRequest, subscribe bool) (*a2a.Task, *event.Subscription, error) {
	if req == nil || req.Request == nil {
		return nil, nil, a2a.NewValidationError("request", "message cannot be empty")
	}
	msg := req.Request
	if err := msg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := h.negotiate(msg); err != nil {
		return nil, nil, err
	}

	cfg := req.Configuration
	var push *a2a.PushNotificationConfig
	if cfg != nil {
		if cfg.HistoryLength < 0 {
			return nil, nil, fmt.Errorf("%w: history length must not be negative, got %d", a2a.ErrInvalidParams, cfg.HistoryLength)
		}
		push = cfg.PushNotification
	}
	if push != nil {
		if err := h.requirePush(); err != nil {
			return nil, nil, err
		}
		if err := push.Validate(); err != nil {
			return nil, nil, err
		}
	}

	var (
		t   *a2a.Task
		err error
	)
	if msg.TaskID != "" {
		t, err = h.manager.Continue(ctx, msg)
	} else {
		t, err = h.manager.Create(ctx, msg)
	}
	if err != nil {
		return nil, nil, err
	}
	if push != nil {
		if _, err := h.registry.Register(ctx, t.ID, push); err != nil {
			return nil, nil, err
		}
	}

	var sub *event.Subscription
	if subscribe {
		if sub, err = h.manager.Subscribe(ctx, t.ID); err != nil {
			return nil, nil, err
		}
	}

	bound := *req
	bound.Request = msg.Clone()
	bound.Request.TaskID = t.ID
	bound.Request.ContextID = t.ContextID
	reqCtx, err := h.builder.Build(ctx, &bound, t)
	if err != nil {
		h.abort(ctx, t.ID, sub, err)
		return nil, nil, err
	}

	if !h.running.start(ctx, t.ID, func(ctx context.Context) { h.execute(ctx, reqCtx) }) {
		err := fmt.Errorf("%w: request handler is shut down", a2a.ErrUnsupportedOperation)
		h.abort(ctx, t.ID, sub, err)
		return nil, nil, err
	}
	h.logger.DebugContext(ctx, "execution started", "task_id", t.ID, "context_id", t.ContextID)
	return t, sub, nil
}

// abort fails a task whose execution could not be started.
func (h *DefaultRequestHandler) abort(ctx context.Context, taskID string, sub *event.Subscription, cause error) {
	if sub != nil {
		sub.Cancel()
	}
	if _, err := h.manager.Fail(context.WithoutCancel(ctx), taskID, cause); err != nil {
		h.logger.ErrorContext(ctx, "fail task", "task_id", taskID, "error", err)
	}
}

// execute runs the agent executor. An error or a panic fails the task unless
// it already reached a terminal state.
func (h *DefaultRequestHandler) execute(ctx context.Context, reqCtx *agent_execution.RequestContext) {
	taskID := reqCtx.TaskID()
	updater := task.NewTaskUpdater(h.manager, reqCtx.Task)

	err := h.invoke(ctx, reqCtx, updater)
	if err == nil {
		t, gerr := h.manager.Get(context.WithoutCancel(ctx), taskID)
		if gerr == nil && !t.Status.State.IsTerminal() && !t.Status.State.IsInterrupted() {
			h.logger.WarnContext(ctx, "executor returned before the task stopped working", "task_id", taskID, "state", t.Status.State)
		}
		return
	}

	h.logger.InfoContext(ctx, "executor failed", "task_id", taskID, "error", err)
	if _, ferr := h.manager.Fail(context.WithoutCancel(ctx), taskID, err); ferr != nil && !errors.Is(ferr, a2a.ErrTaskNotFound) {
		h.logger.ErrorContext(ctx, "fail task", "task_id", taskID, "error", ferr)
	}
}

func (h *DefaultRequestHandler) invoke(ctx context.Context, reqCtx *agent_execution.RequestContext, updater *task.TaskUpdater) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: agent executor panicked: %v", a2a.ErrInternal, r)
		}
	}()
	return h.executor.Execute(ctx, reqCtx, updater)
}

// wait reads sub until the task stops working or the blocking timeout elapses.
func (h *DefaultRequestHandler) wait(ctx context.Context, sub *event.Subscription) error {
	waitCtx := ctx
	if h.blockingTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, h.blockingTimeout)
		defer cancel()
	}

	for {
		_, err := sub.Next(waitCtx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			h.logger.DebugContext(ctx, "blocking send timed out", "task_id", sub.TaskID(), "timeout", h.blockingTimeout)
			return nil
		}
	}
}

// stream yields the events of sub until it ends, the consumer stops or ctx ends.
func (h *DefaultRequestHandler) stream(ctx context.Context, sub *event.Subscription, historyLength int, yield func(a2a.Event, error) bool) {
	defer func() {
		sub.Cancel()
		if n := sub.Dropped(); n > 0 {
			h.logger.WarnContext(ctx, "slow subscriber dropped events", "task_id", sub.TaskID(), "dropped", n)
		}
	}()

	for {
		ev, err := sub.Next(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, err)
			return
		}
		if t, ok := ev.(*a2a.Task); ok {
			ev = t.WithHistoryLength(historyLength)
		}
		if !yield(ev, nil) {
			return
		}
	}
}

// negotiate checks every part of msg against the input modes of the agent card.
func (h *DefaultRequestHandler) negotiate(msg *a2a.Message) error {
	for i, p := range msg.Content {
		if mt := p.MIMEType(); !h.card.AcceptsInputMode(mt) {
			return fmt.Errorf("%w: part %d has media type %s, agent accepts %v", a2a.ErrContentTypeNotSupported, i, mt, h.card.DefaultInputModes)
		}
	}
	return nil
}

func (h *DefaultRequestHandler) requireStreaming() error {
	if !h.card.Capabilities.Streaming {
		return fmt.Errorf("%w: agent does not support streaming", a2a.ErrUnsupportedOperation)
	}
	return nil
}

func (h *DefaultRequestHandler) requirePush() error {
	if h.registry == nil || !h.registry.Enabled() {
		return a2a.ErrPushNotificationNotSupported
	}
	return nil
}

func historyLength(req *a2a.SendMessageRequest) int {
	if req == nil || req.Configuration == nil {
		return 0
	}
	return int(req.Configuration.HistoryLength)
}
