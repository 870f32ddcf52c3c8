package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
)

// maxRequestBytes bounds the size of an inbound JSON-RPC body.
const maxRequestBytes = 1 << 20

// Info identifies the server to MCP clients.
type Info struct {
	Name    string
	Version string
}

// Server is the HTTP transport shell. It owns routing and status codes and
// delegates all JSON-RPC semantics to the dispatcher.
type Server struct {
	mux        *http.ServeMux
	server     *http.Server
	dispatcher *mcp.Dispatcher
	registry   *mcp.Registry
	manager    *auth.Manager
	info       Info
	logger     *slog.Logger
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates the HTTP server and wires its routes.
func New(dispatcher *mcp.Dispatcher, registry *mcp.Registry, manager *auth.Manager, info Info, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		dispatcher: dispatcher,
		registry:   registry,
		manager:    manager,
		info:       info,
		logger:     logger,
	}

	mux := http.NewServeMux()

	wrap := func(h http.HandlerFunc) http.Handler {
		return applyMiddlewares(h,
			Logging(logger),
			Recovery,
		)
	}

	mux.Handle("POST /mcp", wrap(s.handleDispatch))
	mux.Handle("GET /mcp", wrap(s.handleCapabilities))
	mux.Handle("GET /healthz", wrap(s.handleHealth))
	mux.Handle("GET /auth/status", wrap(s.handleAuthStatus))
	mux.Handle("GET /auth/callback", wrap(s.handleAuthCallback))

	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleDispatch feeds one JSON-RPC body to the dispatcher and honors its
// status hint. Transport-level failures (unreadable body) are the only errors
// produced here; everything else is a JSON-RPC response.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSONError(r.Context(), w, "failed to read request body", http.StatusBadRequest)
		return
	}

	reply := s.dispatcher.Dispatch(r.Context(), body)
	writeJSON(r.Context(), w, reply.Response, reply.Status)
}

// handleCapabilities reports server identity and the registered tool names.
// Lets operators and clients probe the endpoint without speaking JSON-RPC.
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]any{
		"status":    "ready",
		"server":    s.info.Name,
		"version":   s.info.Version,
		"transport": "http",
		"tools":     s.registry.Names(),
		"endpoints": map[string]string{
			"mcp":    "/mcp",
			"health": "/healthz",
		},
	}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// handleAuthStatus reports whether the held token is currently usable.
// Probe semantics: failures collapse to authenticated=false, never an error.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authenticated := s.manager.IsAuthenticated(ctx)
	payload := map[string]any{
		"status":        "ready",
		"authenticated": authenticated,
	}
	if authenticated {
		if info, err := s.manager.Introspect(ctx); err == nil {
			payload["token_info"] = info
		}
	}

	writeJSON(ctx, w, payload, http.StatusOK)
}

// handleAuthCallback completes the authorization-code flow when LinkedIn
// redirects the user back. Intended for interactive setups where the
// redirect URL points at this server.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		desc := r.URL.Query().Get("error_description")
		writeJSONError(ctx, w, fmt.Sprintf("authorization denied: %s: %s", errCode, desc), http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSONError(ctx, w, "missing code parameter", http.StatusBadRequest)
		return
	}

	if _, err := s.manager.ExchangeCode(ctx, code); err != nil {
		s.logger.ErrorContext(ctx, "authorization code exchange failed", "error", err)
		writeJSONError(ctx, w, "code exchange failed", http.StatusBadGateway)
		return
	}

	writeJSON(ctx, w, map[string]any{
		"status":  "authenticated",
		"message": "authorization complete, tokens stored",
	}, http.StatusOK)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second, // Inbound: Read entire client request (DoS protection against slow clients)
		WriteTimeout: 2 * time.Minute,  // Inbound: Write entire response (covers slow upstream API calls, still bounded)
		IdleTimeout:  90 * time.Second, // Inbound: Keep-alive wait for next request from client
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
