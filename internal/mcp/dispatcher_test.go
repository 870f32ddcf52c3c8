package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"linkedinmcp/internal/auth"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	reg := NewRegistry()
	reg.Register(
		mcpgo.NewTool("echo", mcpgo.WithDescription("Echo the arguments back")),
		func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"echoed": args}, nil
		},
	)
	reg.Register(
		mcpgo.NewTool("needs_auth", mcpgo.WithDescription("Always requires authentication")),
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, &auth.AuthError{Reason: "no access token available"}
		},
	)
	reg.Register(
		mcpgo.NewTool("api_fails", mcpgo.WithDescription("Always fails upstream")),
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, &auth.APIError{Status: 403, Resource: "/me"}
		},
	)
	reg.Register(
		mcpgo.NewTool("bad_args", mcpgo.WithDescription("Always rejects its arguments")),
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, &ArgumentError{Reason: "widget_urn is required"}
		},
	)
	reg.Register(
		mcpgo.NewTool("panics", mcpgo.WithDescription("Always panics")),
		func(ctx context.Context, args map[string]any) (any, error) {
			panic("boom")
		},
	)

	return NewDispatcher(reg, "test-server", "0.0.1", nil)
}

// encode marshals a reply's response for wire-level assertions.
func encode(t *testing.T, resp *Response) string {
	t.Helper()
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshaling response: %v", err)
	}
	return string(raw)
}

func TestDispatchMalformedRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantStatus int
	}{
		{
			name:       "invalid json",
			body:       `{not json`,
			wantCode:   CodeParseError,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "array instead of object",
			body:       `[1, 2, 3]`,
			wantCode:   CodeInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing jsonrpc member",
			body:       `{"id": 1, "method": "initialize"}`,
			wantCode:   CodeInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
	}

	d := newTestDispatcher(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := d.Dispatch(context.Background(), []byte(tt.body))
			if reply.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", reply.Status, tt.wantStatus)
			}
			if reply.Response.Error == nil {
				t.Fatal("Response.Error is nil, want error object")
			}
			if reply.Response.Error.Code != tt.wantCode {
				t.Errorf("Error.Code = %d, want %d", reply.Response.Error.Code, tt.wantCode)
			}
			// Malformed requests have no usable id; the response carries null
			if wire := encode(t, reply.Response); !strings.Contains(wire, `"id":null`) {
				t.Errorf("response %s does not carry a null id", wire)
			}
		})
	}
}

func TestDispatchEchoesRequestID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		wired string
	}{
		{name: "integer id", id: `42`, wired: `"id":42`},
		{name: "string id", id: `"abc"`, wired: `"id":"abc"`},
		{name: "explicit null id", id: `null`, wired: `"id":null`},
	}

	d := newTestDispatcher(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"jsonrpc": "2.0", "id": ` + tt.id + `, "method": "tools/list"}`
			reply := d.Dispatch(context.Background(), []byte(body))
			if wire := encode(t, reply.Response); !strings.Contains(wire, tt.wired) {
				t.Errorf("response %s does not echo %s", wire, tt.wired)
			}
		})
	}
}

func TestDispatchInitialize(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Dispatch(context.Background(), []byte(`{"jsonrpc": "2.0", "id": 1, "method": "initialize"}`))

	if reply.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", reply.Status)
	}
	result, ok := reply.Response.Result.(map[string]any)
	if !ok {
		t.Fatalf("Result type = %T, want map", reply.Response.Result)
	}
	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("protocolVersion = %v, want %s", result["protocolVersion"], ProtocolVersion)
	}
	info, ok := result["serverInfo"].(map[string]any)
	if !ok || info["name"] != "test-server" {
		t.Errorf("serverInfo = %v, want name test-server", result["serverInfo"])
	}
}

func TestDispatchToolsList(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Dispatch(context.Background(), []byte(`{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`))

	result, ok := reply.Response.Result.(map[string]any)
	if !ok {
		t.Fatalf("Result type = %T, want map", reply.Response.Result)
	}
	tools, ok := result["tools"].([]mcpgo.Tool)
	if !ok {
		t.Fatalf("tools type = %T, want []mcpgo.Tool", result["tools"])
	}
	want := []string{"echo", "needs_auth", "api_fails", "panics"}
	if len(tools) != len(want) {
		t.Fatalf("len(tools) = %d, want %d", len(tools), len(want))
	}
	for i, name := range want {
		if tools[i].Name != name {
			t.Errorf("tools[%d].Name = %q, want %q", i, tools[i].Name, name)
		}
	}
}

func TestDispatchMethodNotFound(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Dispatch(context.Background(), []byte(`{"jsonrpc": "2.0", "id": 1, "method": "resources/list"}`))

	if reply.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200 for unknown method", reply.Status)
	}
	if reply.Response.Error == nil || reply.Response.Error.Code != CodeMethodNotFound {
		t.Fatalf("Error = %+v, want code %d", reply.Response.Error, CodeMethodNotFound)
	}
	if !strings.Contains(reply.Response.Error.Message, "resources/list") {
		t.Errorf("Error.Message = %q, want it to name the method", reply.Response.Error.Message)
	}
}

func TestDispatchToolNotFound(t *testing.T) {
	d := newTestDispatcher(t)
	body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "missing_tool"}}`
	reply := d.Dispatch(context.Background(), []byte(body))

	if reply.Response.Error == nil || reply.Response.Error.Code != CodeMethodNotFound {
		t.Fatalf("Error = %+v, want code %d", reply.Response.Error, CodeMethodNotFound)
	}
	if !strings.Contains(reply.Response.Error.Message, "missing_tool") {
		t.Errorf("Error.Message = %q, want it to name the tool", reply.Response.Error.Message)
	}
}

func TestDispatchToolSuccess(t *testing.T) {
	d := newTestDispatcher(t)
	body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "echo", "arguments": {"key": "value"}}}`
	reply := d.Dispatch(context.Background(), []byte(body))

	if reply.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", reply.Status)
	}
	result, ok := reply.Response.Result.(*mcpgo.CallToolResult)
	if !ok {
		t.Fatalf("Result type = %T, want *mcpgo.CallToolResult", reply.Response.Result)
	}
	if result.IsError {
		t.Error("IsError = true, want false")
	}
	text := textContent(t, result)
	if !strings.Contains(text, `"key":"value"`) {
		t.Errorf("content %q does not carry echoed arguments", text)
	}
}

func TestDispatchTypedErrorsBecomeResults(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		wantKind string
	}{
		{name: "argument error", tool: "bad_args", wantKind: "Invalid arguments"},
		{name: "auth error", tool: "needs_auth", wantKind: "Authentication required"},
		{name: "api error", tool: "api_fails", wantKind: "API request failed"},
	}

	d := newTestDispatcher(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "` + tt.tool + `"}}`
			reply := d.Dispatch(context.Background(), []byte(body))

			if reply.Status != http.StatusOK {
				t.Errorf("Status = %d, want 200 for typed tool failure", reply.Status)
			}
			if reply.Response.Error != nil {
				t.Fatalf("Error = %+v, want typed failure as result", reply.Response.Error)
			}
			result, ok := reply.Response.Result.(*mcpgo.CallToolResult)
			if !ok {
				t.Fatalf("Result type = %T, want *mcpgo.CallToolResult", reply.Response.Result)
			}
			if !result.IsError {
				t.Error("IsError = false, want true")
			}
			if text := textContent(t, result); !strings.Contains(text, tt.wantKind) {
				t.Errorf("content %q does not carry %q", text, tt.wantKind)
			}
		})
	}
}

func TestDispatchPanicBecomesInternalError(t *testing.T) {
	d := newTestDispatcher(t)
	body := `{"jsonrpc": "2.0", "id": 7, "method": "tools/call", "params": {"name": "panics"}}`
	reply := d.Dispatch(context.Background(), []byte(body))

	if reply.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", reply.Status)
	}
	if reply.Response.Error == nil || reply.Response.Error.Code != CodeInternalError {
		t.Fatalf("Error = %+v, want code %d", reply.Response.Error, CodeInternalError)
	}
	if wire := encode(t, reply.Response); !strings.Contains(wire, `"id":7`) {
		t.Errorf("response %s does not echo id 7", wire)
	}
}

func TestRegistryRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() did not panic")
		}
	}()

	reg := NewRegistry()
	def := mcpgo.NewTool("dup")
	handler := func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }
	reg.Register(def, handler)
	reg.Register(def, handler)
}

func TestExecuteWrapsUntypedError(t *testing.T) {
	tool := Tool{
		Def: mcpgo.NewTool("broken"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("wire snapped")
		},
	}

	_, err := Execute(context.Background(), nil, tool, "broken", nil)
	if err == nil || !strings.Contains(err.Error(), "wire snapped") {
		t.Fatalf("Execute() error = %v, want wrapped untyped error", err)
	}
}

func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	return tc.Text
}
