// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/jsonrpc2"
	"github.com/go-a2a/a2a-engine/internal/logging"
)

// JSONRPCHandler provides JSON-RPC protocol adaptation for request handlers.
// It translates JSON-RPC requests into handler calls and formats responses
// according to the JSON-RPC specification.
type JSONRPCHandler struct {
	handler RequestHandler
	unary   map[a2a.Method]unaryMethod
	streams map[a2a.Method]streamMethod
	logger  *slog.Logger
}

type (
	unaryMethod  func(ctx context.Context, req *jsonrpc2.Request) (any, error)
	streamMethod func(ctx context.Context, req *jsonrpc2.Request) (iter.Seq2[a2a.Event, error], error)
)

// JSONRPCHandlerOption defines a function type for configuring JSONRPCHandler.
type JSONRPCHandlerOption func(*JSONRPCHandler)

// WithJSONRPCLogger sets the JSON-RPC handler logger.
func WithJSONRPCLogger(logger *slog.Logger) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.logger = logger
	}
}

// NewJSONRPCHandler creates a new JSONRPCHandler with the provided request handler.
func NewJSONRPCHandler(handler RequestHandler, opts ...JSONRPCHandlerOption) *JSONRPCHandler {
	if handler == nil {
		panic("request handler cannot be nil")
	}

	h := &JSONRPCHandler{handler: handler}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.Component(h.logger, "jsonrpc")
	h.registerMethods()
	return h
}

// registerMethods registers all JSON-RPC method handlers.
func (h *JSONRPCHandler) registerMethods() {
	h.unary = map[a2a.Method]unaryMethod{
		a2a.MethodMessageSend:                       unary(h.handler.OnMessageSend),
		a2a.MethodTasksGet:                          unary(h.handler.OnGetTask),
		a2a.MethodTasksCancel:                       unary(h.handler.OnCancelTask),
		a2a.MethodTasksPushNotificationConfigCreate: unary(h.handler.OnCreateTaskPushNotificationConfig),
		a2a.MethodTasksPushNotificationConfigGet:    unary(h.handler.OnGetTaskPushNotificationConfig),
		a2a.MethodTasksPushNotificationConfigList:   unary(h.handler.OnListTaskPushNotificationConfig),
		a2a.MethodTasksPushNotificationConfigDelete: unary(func(ctx context.Context, req *a2a.DeleteTaskPushNotificationConfigRequest) (any, error) {
			return nil, h.handler.OnDeleteTaskPushNotificationConfig(ctx, req)
		}),
		a2a.MethodAgentGetAuthenticatedExtendedCard: func(ctx context.Context, _ *jsonrpc2.Request) (any, error) {
			return h.handler.OnGetAuthenticatedExtendedCard(ctx)
		},
	}
	h.streams = map[a2a.Method]streamMethod{
		a2a.MethodMessageStream:    stream(h.handler.OnMessageSendStream),
		a2a.MethodTasksResubscribe: stream(h.handler.OnResubscribeToTask),
	}
}

// unary adapts a typed handler method to the method table.
func unary[P, R any](fn func(context.Context, *P) (R, error)) unaryMethod {
	return func(ctx context.Context, req *jsonrpc2.Request) (any, error) {
		params, err := decodeParams[P](req)
		if err != nil {
			return nil, err
		}
		return fn(ctx, params)
	}
}

// stream adapts a typed streaming handler method to the method table.
func stream[P any](fn func(context.Context, *P) iter.Seq2[a2a.Event, error]) streamMethod {
	return func(ctx context.Context, req *jsonrpc2.Request) (iter.Seq2[a2a.Event, error], error) {
		params, err := decodeParams[P](req)
		if err != nil {
			return nil, err
		}
		return fn(ctx, params), nil
	}
}

func decodeParams[P any](req *jsonrpc2.Request) (*P, error) {
	params := new(P)
	if err := jsonrpc2.UnmarshalParams(req, params); err != nil {
		rpcErr := jsonrpc2.NewError(jsonrpc2.CodeInvalidParams, "Invalid parameters")
		rpcErr.Data = err.Error()
		return nil, rpcErr
	}
	return params, nil
}

// Handle processes one JSON-RPC payload and writes its responses with send.
//
// A single unary request or a batch produces at most one write. A streaming
// request produces one write per event, each a response carrying the request
// ID, and ends after the final event. Notifications produce no response.
// Streaming methods are not allowed inside a batch.
//
// The returned error is a failure of send or of encoding; protocol errors are
// reported to the caller as error responses.
func (h *JSONRPCHandler) Handle(ctx context.Context, data []byte, send func([]byte) error) error {
	reqs, batch, err := jsonrpc2.DecodeRequests(data)
	if err != nil {
		return h.write(send, &jsonrpc2.Response{Error: JSONRPCError(err)})
	}

	if !batch {
		req := reqs[0]
		if a2a.Method(req.Method).IsStreaming() {
			return h.serveStream(ctx, req, send)
		}
		resp := h.call(ctx, req)
		if resp == nil {
			return nil
		}
		return h.write(send, resp)
	}

	resps := make([]*jsonrpc2.Response, 0, len(reqs))
	for _, req := range reqs {
		switch {
		case req == nil:
			resps = append(resps, &jsonrpc2.Response{Error: jsonrpc2.NewError(jsonrpc2.CodeInvalidRequest, "invalid request object")})
		case a2a.Method(req.Method).IsStreaming():
			if !req.IsNotification() {
				resps = append(resps, &jsonrpc2.Response{
					ID:    req.ID,
					Error: jsonrpc2.NewError(jsonrpc2.CodeInvalidRequest, fmt.Sprintf("streaming method %s cannot be batched", req.Method)),
				})
			}
		default:
			if resp := h.call(ctx, req); resp != nil {
				resps = append(resps, resp)
			}
		}
	}
	if len(resps) == 0 {
		return nil
	}

	out, err := jsonrpc2.EncodeBatch(resps)
	if err != nil {
		return err
	}
	return send(out)
}

// call runs a unary request. It returns nil for notifications.
func (h *JSONRPCHandler) call(ctx context.Context, req *jsonrpc2.Request) *jsonrpc2.Response {
	done := jsonrpc2.StartCall(ctx, req.Method)

	var (
		result any
		err    error
	)
	if m, ok := h.unary[a2a.Method(req.Method)]; ok {
		result, err = m(ctx, req)
	} else {
		err = jsonrpc2.NewError(jsonrpc2.CodeMethodNotFound, "Method not found: "+req.Method)
	}
	h.logResult(ctx, req, err)

	rpcErr := JSONRPCError(err)
	var resp *jsonrpc2.Response
	if !req.IsNotification() {
		var merr error
		resp, merr = jsonrpc2.NewResponse(req.ID, result, rpcErr)
		if merr != nil {
			h.logger.ErrorContext(ctx, "encode result", "method", req.Method, "error", merr)
			rpcErr = jsonrpc2.NewError(jsonrpc2.CodeInternalError, "Internal error")
			resp = &jsonrpc2.Response{ID: req.ID, Error: rpcErr}
		}
	}
	done(codeOf(rpcErr))
	return resp
}

// serveStream writes one response per event of a streaming request.
func (h *JSONRPCHandler) serveStream(ctx context.Context, req *jsonrpc2.Request, send func([]byte) error) error {
	done := jsonrpc2.StartCall(ctx, req.Method)
	var rpcErr *jsonrpc2.Error
	defer func() {
		done(codeOf(rpcErr))
	}()

	if req.IsNotification() {
		rpcErr = jsonrpc2.NewError(jsonrpc2.CodeInvalidRequest, "streaming request needs an id")
		return nil
	}
	id := req.ID

	events, serr := h.streams[a2a.Method(req.Method)](ctx, req)
	if serr != nil {
		h.logResult(ctx, req, serr)
		rpcErr = JSONRPCError(serr)
		return h.write(send, &jsonrpc2.Response{ID: id, Error: rpcErr})
	}

	for ev, everr := range events {
		if everr != nil {
			h.logResult(ctx, req, everr)
			rpcErr = JSONRPCError(everr)
			return h.write(send, &jsonrpc2.Response{ID: id, Error: rpcErr})
		}
		resp, merr := jsonrpc2.NewResponse(id, a2a.StreamResponse{Event: ev}, nil)
		if merr != nil {
			h.logger.ErrorContext(ctx, "encode event", "method", req.Method, "error", merr)
			rpcErr = jsonrpc2.NewError(jsonrpc2.CodeInternalError, "Internal error")
			return h.write(send, &jsonrpc2.Response{ID: id, Error: rpcErr})
		}
		if err := h.write(send, resp); err != nil {
			rpcErr = jsonrpc2.NewError(jsonrpc2.CodeInternalError, "Internal error")
			return err
		}
	}
	return nil
}

func (h *JSONRPCHandler) write(send func([]byte) error, resp *jsonrpc2.Response) error {
	out, err := jsonrpc2.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return send(out)
}

func (h *JSONRPCHandler) logResult(ctx context.Context, req *jsonrpc2.Request, err error) {
	if err == nil {
		return
	}
	level := slog.LevelDebug
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) && Code(err) == jsonrpc2.CodeInternalError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "request failed", "method", req.Method, "error", err)
}

func codeOf(err *jsonrpc2.Error) int64 {
	if err == nil {
		return 0
	}
	return err.Code
}
