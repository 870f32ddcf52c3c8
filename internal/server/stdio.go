package server

import (
	"context"
	"log/slog"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"linkedinmcp/internal/mcp"
)

// StdioServer serves the tool registry over stdin/stdout for MCP clients
// that spawn the server as a subprocess.
type StdioServer struct {
	mcpServer *mcpserver.MCPServer
}

// NewStdio builds a stdio MCP server exposing every registered tool. Tool
// semantics are identical to the HTTP transport: typed argument, auth, and
// API failures become error-marked results, anything else an MCP-level error.
func NewStdio(registry *mcp.Registry, info Info, logger *slog.Logger) *StdioServer {
	if logger == nil {
		logger = slog.Default()
	}

	srv := mcpserver.NewMCPServer(
		info.Name,
		info.Version,
		mcpserver.WithToolCapabilities(false),
	)

	for _, name := range registry.Names() {
		tool, ok := registry.Get(name)
		if !ok {
			continue
		}
		srv.AddTool(tool.Def, stdioHandler(logger, tool, name))
	}

	return &StdioServer{mcpServer: srv}
}

// Serve blocks, handling MCP protocol traffic over stdin/stdout until the
// client closes the connection.
func (s *StdioServer) Serve() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

func stdioHandler(logger *slog.Logger, tool mcp.Tool, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		result, err := mcp.Execute(ctx, logger, tool, name, request.GetArguments())
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}
