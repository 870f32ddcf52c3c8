package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
	"linkedinmcp/internal/restli"
	"linkedinmcp/internal/server"
	"linkedinmcp/internal/tools"
)

// ServerName and ServerVersion identify this server to MCP clients.
const (
	ServerName    = "linkedin-mcp-server"
	ServerVersion = "1.0.0"
)

// App orchestrates the token manager, tool registry and transport shells.
type App struct {
	cfg      *Config
	manager  *auth.Manager
	registry *mcp.Registry
	server   *server.Server
}

// New creates a new App instance. Fails fast on invalid configuration or a
// manager that has neither credentials nor a seeded or stored token to work
// with.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	logger := slog.Default()

	manager, err := auth.New(auth.Credentials{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  cfg.Auth.RedirectURL,
	},
		auth.WithSeedToken(cfg.Auth.AccessToken),
		auth.WithStore(store),
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	registry := mcp.NewRegistry()
	tools.RegisterAll(registry, tools.Deps{
		Manager: manager,
		Guard:   auth.NewGuard(manager, logger),
		API:     restli.New(restli.WithBaseURL(cfg.API.BaseURL), restli.WithLogger(logger)),
		Logger:  logger,
	})

	dispatcher := mcp.NewDispatcher(registry, ServerName, ServerVersion, logger)
	info := server.Info{Name: ServerName, Version: ServerVersion}

	return &App{
		cfg:      cfg,
		manager:  manager,
		registry: registry,
		server:   server.New(dispatcher, registry, manager, info, logger),
	}, nil
}

// Manager exposes the token manager for diagnostic commands.
func (a *App) Manager() *auth.Manager {
	return a.manager
}

// Start starts the HTTP server and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting mcp server", "address", address, "tools", len(a.registry.Names()))
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// ServeStdio serves the tool registry over stdin/stdout and blocks until the
// client disconnects. Used when an MCP client spawns this binary directly.
func (a *App) ServeStdio(ctx context.Context) error {
	slog.InfoContext(ctx, "starting stdio transport", "tools", len(a.registry.Names()))

	stdio := server.NewStdio(a.registry, server.Info{Name: ServerName, Version: ServerVersion}, slog.Default())
	return stdio.Serve()
}
