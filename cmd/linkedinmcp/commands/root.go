package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"linkedinmcp/internal/app"
	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "linkedinmcp",
		Usage: "LinkedIn MCP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			stdioCommand(),
			checkCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the MCP server over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otlp)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "server--host",
				Usage: "server host",
				Value: app.DefaultConfigServerHost,
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "server port",
				Value: int(app.DefaultConfigServerPort),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "LinkedIn API base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "token storage backend (file|env|keyring)",
				Value: string(app.DefaultConfigAuthStorage),
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	application, err := buildApp(cmd)
	if err != nil {
		return err
	}

	// Banner for interactive runs only; never on pipes or under supervisors
	if term.IsTerminal(int(os.Stdout.Fd())) {
		figure.NewFigure("linkedinmcp", "cybermedium", true).Print()
		fmt.Println()
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

func stdioCommand() *cli.Command {
	return &cli.Command{
		Name:  "stdio",
		Usage: "run the MCP server over stdin/stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "token storage backend (file|env|keyring)",
				Value: string(app.DefaultConfigAuthStorage),
			},
		},
		Action: stdioAction,
	}
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	application, err := buildApp(cmd)
	if err != nil {
		return err
	}

	return application.ServeStdio(ctx)
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "report authentication status and exit",
		Action: checkAction,
	}
}

// checkAction verifies the stored token against LinkedIn's introspection
// endpoint and prints the result as JSON, for use in setup scripts.
func checkAction(ctx context.Context, cmd *cli.Command) error {
	application, err := buildApp(cmd)
	if err != nil {
		return err
	}

	manager := application.Manager()
	out := map[string]any{
		"authenticated": manager.IsAuthenticated(ctx),
	}
	if info, err := manager.Introspect(ctx); err == nil {
		out["token_info"] = info
	} else {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			out["error"] = authErr.Error()
		} else {
			out["error"] = err.Error()
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// buildApp loads configuration, instruments logging and constructs the app.
// Shared by all subcommands so precedence rules apply uniformly.
func buildApp(cmd *cli.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	return application, nil
}
