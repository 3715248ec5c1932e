// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package jsonrpc2 implements the JSON-RPC 2.0 envelope used by the A2A protocol:
// request and response messages, identifiers and wire errors.
package jsonrpc2

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/go-a2a/a2a-engine/internal/pool"
)

// Version is the only JSON-RPC version accepted.
const Version = "2.0"

// Standard JSON-RPC error codes.
const (
	CodeParseError     int64 = -32700
	CodeInvalidRequest int64 = -32600
	CodeMethodNotFound int64 = -32601
	CodeInvalidParams  int64 = -32602
	CodeInternalError  int64 = -32603
)

// Error is a JSON-RPC error object. It implements the error interface so that
// handlers can return it directly.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc2 error %d: %s", e.Code, e.Message)
}

// NewError returns a new [Error] with the given code and message.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ID is a JSON-RPC request identifier: a string, an integer, or absent.
type ID struct {
	value any
}

// StringID returns a string identifier.
func StringID(s string) ID { return ID{value: s} }

// Int64ID returns an integer identifier.
func Int64ID(i int64) ID { return ID{value: i} }

// IsValid reports whether the identifier is set.
func (id ID) IsValid() bool { return id.value != nil }

// Raw returns the underlying string, int64 or nil.
func (id ID) Raw() any { return id.value }

// String implements [fmt.Stringer].
func (id ID) String() string {
	switch v := id.value.(type) {
	case string:
		return v
	case int64:
		return fmt.Sprint(v)
	default:
		return "<nil>"
	}
}

// MarshalJSON implements [json.Marshaler].
func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (id *ID) UnmarshalJSON(data []byte) error {
	switch jsontext.Value(data).Kind() {
	case 'n':
		*id = ID{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
	case '0':
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return fmt.Errorf("jsonrpc2: non-integer id %s", data)
		}
		*id = Int64ID(int64(f))
	default:
		return fmt.Errorf("jsonrpc2: invalid id %s", data)
	}
	return nil
}

// Request is a JSON-RPC request. A request without an "id" member is a
// notification; an explicit null id still expects a response.
type Request struct {
	JSONRPC string
	ID      ID
	Method  string
	Params  jsontext.Value

	hasID bool
}

type requestJSON struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      jsontext.Value `json:"id,omitzero"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// NewRequest returns a request with the given id.
func NewRequest(id ID, method string, params jsontext.Value) *Request {
	return &Request{JSONRPC: Version, ID: id, Method: method, Params: params, hasID: true}
}

// NewNotification returns a request that expects no response.
func NewNotification(method string, params jsontext.Value) *Request {
	return &Request{JSONRPC: Version, Method: method, Params: params}
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return !r.hasID
}

// MarshalJSON implements [json.Marshaler].
func (r *Request) MarshalJSON() ([]byte, error) {
	w := requestJSON{JSONRPC: r.JSONRPC, Method: r.Method, Params: r.Params}
	if r.hasID {
		id, err := r.ID.MarshalJSON()
		if err != nil {
			return nil, err
		}
		w.ID = id
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *Request) UnmarshalJSON(data []byte) error {
	var w requestJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Request{JSONRPC: w.JSONRPC, Method: w.Method, Params: w.Params}
	if len(w.ID) > 0 {
		if err := r.ID.UnmarshalJSON(w.ID); err != nil {
			return err
		}
	}
	r.hasID = len(w.ID) > 0 || hasMember(data, "id")
	return nil
}

// hasMember reports whether the JSON object data has a top-level member name.
func hasMember(data []byte, name string) bool {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.ReadToken(); err != nil || tok.Kind() != '{' {
		return false
	}
	for dec.PeekKind() == '"' {
		tok, err := dec.ReadToken()
		if err != nil {
			return false
		}
		if tok.String() == name {
			return true
		}
		if err := dec.SkipValue(); err != nil {
			return false
		}
	}
	return false
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	ID     ID
	Result jsontext.Value
	Error  *Error
}

type responseJSON struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      ID             `json:"id"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *Error         `json:"error,omitzero"`
}

// MarshalJSON implements [json.Marshaler].
func (r *Response) MarshalJSON() ([]byte, error) {
	w := responseJSON{JSONRPC: Version, ID: r.ID, Error: r.Error}
	if r.Error == nil {
		w.Result = r.Result
		if len(w.Result) == 0 {
			w.Result = jsontext.Value("null")
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *Response) UnmarshalJSON(data []byte) error {
	var w responseJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.JSONRPC != Version {
		return fmt.Errorf("jsonrpc2: unsupported version %q", w.JSONRPC)
	}
	if w.Error != nil && len(w.Result) > 0 {
		return errors.New("jsonrpc2: response has both result and error")
	}
	*r = Response{ID: w.ID, Result: w.Result, Error: w.Error}
	return nil
}

// NewResponse builds a response for id. A non-nil err must be an [*Error];
// otherwise result is marshaled into the response.
func NewResponse(id ID, result any, err *Error) (*Response, error) {
	if err != nil {
		return &Response{ID: id, Error: err}, nil
	}
	data, merr := json.Marshal(result)
	if merr != nil {
		return nil, fmt.Errorf("jsonrpc2: marshal result: %w", merr)
	}
	return &Response{ID: id, Result: data}, nil
}

// DecodeRequests parses one request or a batch of requests.
//
// Syntactically invalid JSON yields an [*Error] with [CodeParseError]. A well
// formed payload that is not a request object yields [CodeInvalidRequest].
func DecodeRequests(data []byte) (reqs []*Request, batch bool, err error) {
	v := jsontext.Value(bytes.TrimSpace(data))
	if !v.IsValid() {
		return nil, false, NewError(CodeParseError, "parse error")
	}

	switch v.Kind() {
	case '[':
		var raws []jsontext.Value
		if err := json.Unmarshal(v, &raws); err != nil {
			return nil, true, NewError(CodeParseError, "parse error")
		}
		if len(raws) == 0 {
			return nil, true, NewError(CodeInvalidRequest, "empty batch")
		}
		reqs = make([]*Request, len(raws))
		for i, raw := range raws {
			// Invalid members are reported per element by the caller.
			reqs[i], _ = decodeRequest(raw)
		}
		return reqs, true, nil
	case '{':
		req, err := decodeRequest(v)
		if err != nil {
			return nil, false, err
		}
		return []*Request{req}, false, nil
	default:
		return nil, false, NewError(CodeInvalidRequest, "request must be an object or an array")
	}
}

func decodeRequest(data jsontext.Value) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewError(CodeInvalidRequest, "invalid request object")
	}
	if req.JSONRPC != Version {
		return nil, NewError(CodeInvalidRequest, fmt.Sprintf("jsonrpc must be %q", Version))
	}
	if req.Method == "" {
		return nil, NewError(CodeInvalidRequest, "method cannot be empty")
	}
	if len(req.Params) > 0 {
		if k := req.Params.Kind(); k != '{' && k != '[' && k != 'n' {
			return nil, NewError(CodeInvalidRequest, "params must be an object or an array")
		}
	}
	return &req, nil
}

// EncodeResponse marshals resp into a newly allocated slice.
func EncodeResponse(resp *Response) ([]byte, error) {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, resp); err != nil {
		return nil, fmt.Errorf("jsonrpc2: encode response: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// EncodeBatch marshals a batch of responses into a JSON array.
func EncodeBatch(resps []*Response) ([]byte, error) {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, resps); err != nil {
		return nil, fmt.Errorf("jsonrpc2: encode batch: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// UnmarshalParams decodes the request params into v. Absent params leave v untouched.
func UnmarshalParams(req *Request, v any) error {
	if len(req.Params) == 0 || req.Params.Kind() == 'n' {
		return nil
	}
	return json.Unmarshal(req.Params, v)
}
