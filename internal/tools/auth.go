package tools

import (
	"context"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"linkedinmcp/internal/mcp"
)

type authTools struct {
	deps Deps
}

func registerAuthTools(reg *mcp.Registry, deps Deps) {
	t := &authTools{deps: deps}

	reg.Register(mcpgo.NewTool("get_authentication_status",
		mcpgo.WithDescription("Report the current LinkedIn API authentication status, including token introspection when authenticated."),
	), t.getAuthenticationStatus)

	reg.Register(mcpgo.NewTool("refresh_access_token",
		mcpgo.WithDescription("Refresh the current access token using the stored refresh token."),
	), t.refreshAccessToken)
}

func (t *authTools) getAuthenticationStatus(ctx context.Context, args map[string]any) (any, error) {
	if !t.deps.Manager.IsAuthenticated(ctx) {
		return map[string]any{
			"status":  "not_authenticated",
			"message": "Not authenticated with the LinkedIn API",
			"help":    "Use get_oauth_authorization_url to begin the authentication flow",
		}, nil
	}

	info, err := t.deps.Manager.Introspect(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"status":     "authenticated",
		"token_info": info,
		"message":    "Successfully authenticated with the LinkedIn API",
	}, nil
}

func (t *authTools) refreshAccessToken(ctx context.Context, args map[string]any) (any, error) {
	tokenData, err := t.deps.Manager.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status":     "success",
		"message":    "Access token refreshed successfully",
		"token_data": tokenData,
	}, nil
}
