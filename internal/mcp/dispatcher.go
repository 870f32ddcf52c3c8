package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"linkedinmcp/internal/auth"
)

// Dispatcher validates and routes JSON-RPC payloads to the fixed MCP method
// set: initialize, tools/list, tools/call. It is transport-agnostic; the HTTP
// and test shells feed it raw bodies and honor the status hint it returns.
// Dispatches are stateless and safe to run concurrently.
type Dispatcher struct {
	registry      *Registry
	serverName    string
	serverVersion string
	logger        *slog.Logger
}

// Reply couples a JSON-RPC response with an HTTP status hint for transports
// where a status is meaningful. Malformed requests (unparseable body, missing
// jsonrpc member) carry 400; everything else, including application-level
// tool failures, carries 200.
type Reply struct {
	Response *Response
	Status   int
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, serverName, serverVersion string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:      registry,
		serverName:    serverName,
		serverVersion: serverVersion,
		logger:        logger,
	}
}

// Dispatch processes one raw JSON-RPC request body. It never panics and
// never returns nil; every malformed input maps to a JSON-RPC error object.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) *Reply {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &Reply{
			Response: errorResponse(nil, CodeParseError, "Parse error: invalid JSON in request body"),
			Status:   http.StatusBadRequest,
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return &Reply{
			Response: errorResponse(nil, CodeInvalidRequest, "Invalid Request: not a JSON-RPC request object"),
			Status:   http.StatusBadRequest,
		}
	}
	if _, ok := obj["jsonrpc"]; !ok {
		return &Reply{
			Response: errorResponse(nil, CodeInvalidRequest, "Invalid Request: missing jsonrpc member"),
			Status:   http.StatusBadRequest,
		}
	}

	// The body is known to be a valid JSON object at this point.
	var req Request
	_ = json.Unmarshal(body, &req)

	switch req.Method {
	case "initialize":
		return &Reply{Response: d.handleInitialize(req), Status: http.StatusOK}
	case "tools/list":
		return &Reply{Response: d.handleToolsList(req), Status: http.StatusOK}
	case "tools/call":
		return &Reply{Response: d.handleToolsCall(ctx, req), Status: http.StatusOK}
	default:
		return &Reply{
			Response: errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method)),
			Status:   http.StatusOK,
		}
	}
}

func (d *Dispatcher) handleInitialize(req Request) *Response {
	return resultResponse(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":   map[string]any{},
			"logging": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    d.serverName,
			"version": d.serverVersion,
		},
	})
}

func (d *Dispatcher) handleToolsList(req Request) *Response {
	return resultResponse(req.ID, map[string]any{
		"tools": d.registry.List(),
	})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req Request) *Response {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidRequest, "Invalid Request: malformed tools/call params")
		}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	tool, ok := d.registry.Get(params.Name)
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Tool not found: %s", params.Name))
	}

	result, err := Execute(ctx, d.logger, tool, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %v", err))
	}
	return resultResponse(req.ID, result)
}

// Execute runs a tool handler, converting typed argument, auth, and API
// failures into application-level error payloads and containing panics. Only untyped
// failures surface as an error, which the dispatcher maps to -32603 and the
// stdio shell maps to an error result. Shared by both transports so a tool
// fails identically everywhere.
func Execute(ctx context.Context, logger *slog.Logger, tool Tool, name string, args map[string]any) (result *mcpgo.CallToolResult, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "tool handler panicked", "tool", name, "panic", r)
			result = nil
			err = fmt.Errorf("tool %s panicked: %v", name, r)
		}
	}()

	payload, err := tool.Handler(ctx, args)
	if err != nil {
		var argErr *ArgumentError
		var authErr *auth.AuthError
		var apiErr *auth.APIError
		switch {
		case errors.As(err, &argErr):
			return errResult("Invalid arguments", argErr.Error()), nil
		case errors.As(err, &authErr):
			return errResult("Authentication required", authErr.Error()), nil
		case errors.As(err, &apiErr):
			return errResult("API request failed", apiErr.Error()), nil
		default:
			return nil, err
		}
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding result of tool %s: %w", name, err)
	}
	return mcpgo.NewToolResultText(string(text)), nil
}

// errResult wraps a typed failure as a successful dispatch-level result with
// an application-level error marker, never a raw stack trace.
func errResult(kind, message string) *mcpgo.CallToolResult {
	payload, _ := json.Marshal(map[string]string{
		"error":   kind,
		"message": message,
	})
	return &mcpgo.CallToolResult{
		Content: []mcpgo.Content{mcpgo.NewTextContent(string(payload))},
		IsError: true,
	}
}
