// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/jsonrpc2"
)

// A2A protocol error codes, in the JSON-RPC server error range.
const (
	CodeTaskNotFound                           int64 = -32001
	CodeTaskNotCancelable                      int64 = -32002
	CodePushNotificationNotSupported           int64 = -32003
	CodeUnsupportedOperation                   int64 = -32004
	CodeContentTypeNotSupported                int64 = -32005
	CodeInvalidAgentResponse                   int64 = -32006
	CodeAuthenticatedExtendedCardNotConfigured int64 = -32007
)

// errorDomain is the domain of the google.rpc.ErrorInfo attached to gRPC errors.
const errorDomain = "a2a-protocol.org"

type errorKind struct {
	err     error
	code    int64
	grpc    codes.Code
	reason  string
	message string
}

// kinds maps every error kind to its protocol representation. Order matters:
// the first kind an error matches wins.
var kinds = []errorKind{
	{a2a.ErrInvalidRequest, jsonrpc2.CodeInvalidRequest, codes.InvalidArgument, "INVALID_REQUEST", "Request payload validation error"},
	{a2a.ErrInvalidParams, jsonrpc2.CodeInvalidParams, codes.InvalidArgument, "INVALID_PARAMS", "Invalid parameters"},
	{a2a.ErrTaskNotFound, CodeTaskNotFound, codes.NotFound, "TASK_NOT_FOUND", "Task not found"},
	{a2a.ErrTaskNotCancelable, CodeTaskNotCancelable, codes.FailedPrecondition, "TASK_NOT_CANCELABLE", "Task cannot be canceled"},
	{a2a.ErrPushNotificationNotSupported, CodePushNotificationNotSupported, codes.Unimplemented, "PUSH_NOTIFICATION_NOT_SUPPORTED", "Push Notification is not supported"},
	{a2a.ErrUnsupportedOperation, CodeUnsupportedOperation, codes.Unimplemented, "UNSUPPORTED_OPERATION", "This operation is not supported"},
	{a2a.ErrContentTypeNotSupported, CodeContentTypeNotSupported, codes.InvalidArgument, "CONTENT_TYPE_NOT_SUPPORTED", "Incompatible content types"},
	{a2a.ErrInvalidAgentResponse, CodeInvalidAgentResponse, codes.Internal, "INVALID_AGENT_RESPONSE", "Invalid agent response"},
	{a2a.ErrAuthenticatedExtendedCardNotConfigured, CodeAuthenticatedExtendedCardNotConfigured, codes.FailedPrecondition, "AUTHENTICATED_EXTENDED_CARD_NOT_CONFIGURED", "Authenticated Extended Card is not configured"},
}

var internalKind = errorKind{a2a.ErrInternal, jsonrpc2.CodeInternalError, codes.Internal, "INTERNAL", "Internal error"}

func classify(err error) errorKind {
	// Internal failures may wrap a more specific kind from a lower layer;
	// they are still reported as internal.
	if errors.Is(err, a2a.ErrInternal) {
		return internalKind
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k
		}
	}
	return internalKind
}

// Code returns the A2A protocol code of err. A nil error has code zero.
func Code(err error) int64 {
	if err == nil {
		return 0
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	if st, ok := status.FromError(err); ok {
		return statusCode(st)
	}
	return classify(err).code
}

// statusCode reads the A2A code from the ErrorInfo of st.
func statusCode(st *status.Status) int64 {
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		if code, err := strconv.ParseInt(info.GetMetadata()["code"], 10, 64); err == nil {
			return code
		}
	}
	if st.Code() == codes.OK {
		return 0
	}
	return jsonrpc2.CodeInternalError
}

// JSONRPCError converts err into a JSON-RPC error object.
//
// The message is the fixed text of the error kind and the data carries the
// error itself, except for internal errors whose details are not exposed.
func JSONRPCError(err error) *jsonrpc2.Error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	k := classify(err)
	out := jsonrpc2.NewError(k.code, k.message)
	if k.code != jsonrpc2.CodeInternalError {
		out.Data = err.Error()
	}
	return out
}

// GRPCStatus converts err into a gRPC status carrying a google.rpc.ErrorInfo
// whose metadata holds the A2A protocol code.
func GRPCStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	if st, ok := status.FromError(err); ok {
		return st
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	}

	k := classify(err)
	msg := k.message
	if k.code != jsonrpc2.CodeInternalError {
		msg = err.Error()
	}
	st := status.New(k.grpc, msg)
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   k.reason,
		Domain:   errorDomain,
		Metadata: map[string]string{"code": strconv.FormatInt(k.code, 10)},
	})
	if derr != nil {
		return st
	}
	return detailed
}
