// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"iter"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/jsonrpc2"
	"github.com/go-a2a/a2a-engine/internal/logging"
)

// StreamServer is the server side of a server-streaming A2A call.
type StreamServer interface {
	Send(*a2a.StreamResponse) error
	Context() context.Context
}

// GRPCHandler provides gRPC protocol adaptation for request handlers.
// It translates gRPC requests into handler calls and reports failures as
// gRPC statuses carrying the A2A error code.
type GRPCHandler struct {
	handler RequestHandler
	logger  *slog.Logger
}

// GRPCHandlerOption defines a function type for configuring GRPCHandler.
type GRPCHandlerOption func(*GRPCHandler)

// WithGRPCLogger sets the gRPC handler logger.
func WithGRPCLogger(logger *slog.Logger) GRPCHandlerOption {
	return func(h *GRPCHandler) {
		h.logger = logger
	}
}

// NewGRPCHandler creates a new GRPCHandler with the provided request handler.
func NewGRPCHandler(handler RequestHandler, opts ...GRPCHandlerOption) *GRPCHandler {
	if handler == nil {
		panic("request handler cannot be nil")
	}

	h := &GRPCHandler{handler: handler}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.Component(h.logger, "grpc")
	return h
}

// SendMessage handles gRPC SendMessage requests.
func (h *GRPCHandler) SendMessage(ctx context.Context, req *a2a.SendMessageRequest) (*a2a.SendMessageResponse, error) {
	resp, err := h.handler.OnMessageSend(ctx, req)
	return resp, h.status(ctx, "SendMessage", err)
}

// SendStreamingMessage handles gRPC SendStreamingMessage requests.
func (h *GRPCHandler) SendStreamingMessage(req *a2a.SendMessageRequest, srv StreamServer) error {
	ctx := srv.Context()
	return h.status(ctx, "SendStreamingMessage", h.send(srv, h.handler.OnMessageSendStream(ctx, req)))
}

// GetTask handles gRPC GetTask requests.
func (h *GRPCHandler) GetTask(ctx context.Context, req *a2a.GetTaskRequest) (*a2a.Task, error) {
	t, err := h.handler.OnGetTask(ctx, req)
	return t, h.status(ctx, "GetTask", err)
}

// CancelTask handles gRPC CancelTask requests.
func (h *GRPCHandler) CancelTask(ctx context.Context, req *a2a.CancelTaskRequest) (*a2a.Task, error) {
	t, err := h.handler.OnCancelTask(ctx, req)
	return t, h.status(ctx, "CancelTask", err)
}

// TaskSubscription handles gRPC TaskSubscription requests.
func (h *GRPCHandler) TaskSubscription(req *a2a.TaskSubscriptionRequest, srv StreamServer) error {
	ctx := srv.Context()
	return h.status(ctx, "TaskSubscription", h.send(srv, h.handler.OnResubscribeToTask(ctx, req)))
}

// CreateTaskPushNotificationConfig handles gRPC CreateTaskPushNotificationConfig requests.
func (h *GRPCHandler) CreateTaskPushNotificationConfig(ctx context.Context, req *a2a.CreateTaskPushNotificationConfigRequest) (*a2a.TaskPushNotificationConfig, error) {
	cfg, err := h.handler.OnCreateTaskPushNotificationConfig(ctx, req)
	return cfg, h.status(ctx, "CreateTaskPushNotificationConfig", err)
}

// GetTaskPushNotificationConfig handles gRPC GetTaskPushNotificationConfig requests.
func (h *GRPCHandler) GetTaskPushNotificationConfig(ctx context.Context, req *a2a.GetTaskPushNotificationConfigRequest) (*a2a.TaskPushNotificationConfig, error) {
	cfg, err := h.handler.OnGetTaskPushNotificationConfig(ctx, req)
	return cfg, h.status(ctx, "GetTaskPushNotificationConfig", err)
}

// ListTaskPushNotificationConfig handles gRPC ListTaskPushNotificationConfig requests.
func (h *GRPCHandler) ListTaskPushNotificationConfig(ctx context.Context, req *a2a.ListTaskPushNotificationConfigRequest) (*a2a.ListTaskPushNotificationConfigResponse, error) {
	resp, err := h.handler.OnListTaskPushNotificationConfig(ctx, req)
	return resp, h.status(ctx, "ListTaskPushNotificationConfig", err)
}

// DeleteTaskPushNotificationConfig handles gRPC DeleteTaskPushNotificationConfig requests.
func (h *GRPCHandler) DeleteTaskPushNotificationConfig(ctx context.Context, req *a2a.DeleteTaskPushNotificationConfigRequest) (*emptypb.Empty, error) {
	if err := h.handler.OnDeleteTaskPushNotificationConfig(ctx, req); err != nil {
		return nil, h.status(ctx, "DeleteTaskPushNotificationConfig", err)
	}
	return &emptypb.Empty{}, nil
}

// GetAgentCard handles gRPC GetAgentCard requests.
func (h *GRPCHandler) GetAgentCard(ctx context.Context, _ *a2a.GetAgentCardRequest) (*a2a.AgentCard, error) {
	card, err := h.handler.OnGetAgentCard(ctx)
	return card, h.status(ctx, "GetAgentCard", err)
}

func (h *GRPCHandler) send(srv StreamServer, events iter.Seq2[a2a.Event, error]) error {
	for ev, err := range events {
		if err != nil {
			return err
		}
		if err := srv.Send(&a2a.StreamResponse{Event: ev}); err != nil {
			return err
		}
	}
	return nil
}

func (h *GRPCHandler) status(ctx context.Context, method string, err error) error {
	if err == nil {
		return nil
	}
	st := GRPCStatus(err)
	level := slog.LevelDebug
	if Code(err) == jsonrpc2.CodeInternalError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "request failed", "method", method, "code", st.Code(), "error", err)
	return st.Err()
}

// UnaryServerInterceptor records call metrics for unary A2A methods and
// converts errors that are not gRPC statuses with [GRPCStatus].
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		done := jsonrpc2.StartCall(ctx, info.FullMethod)
		resp, err := handler(ctx, req)
		done(Code(err))
		if err != nil {
			return nil, GRPCStatus(err).Err()
		}
		return resp, nil
	}
}

// StreamServerInterceptor is the streaming counterpart of [UnaryServerInterceptor].
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		done := jsonrpc2.StartCall(ss.Context(), info.FullMethod)
		err := handler(srv, ss)
		done(Code(err))
		if err != nil {
			return GRPCStatus(err).Err()
		}
		return nil
	}
}
