package mcp

import "encoding/json"

// JSONRPCVersion is the protocol version stamped on every response.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP protocol revision advertised by initialize.
const ProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes. No custom codes are introduced.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Request is the wire-level JSON-RPC request. ID is kept raw so it can be
// echoed back byte-exact, including null.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is the wire-level JSON-RPC response. Exactly one of Result and
// Error is set. A nil ID marshals as null, which also covers requests that
// carried no id at all.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

func resultResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}
