package tools

import (
	"context"
	"net/url"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
	"linkedinmcp/internal/restli"
)

// defaultProfileFields is requested when the caller specifies none.
const defaultProfileFields = "id,firstName,lastName,headline,summary"

type personTools struct {
	deps Deps
}

func registerPersonTools(reg *mcp.Registry, deps Deps) {
	t := &personTools{deps: deps}

	reg.Register(mcpgo.NewTool("get_current_user_profile",
		mcpgo.WithDescription("Get the authenticated user's LinkedIn profile. The official API only exposes the caller's own profile, not arbitrary public profiles."),
		mcpgo.WithString("fields",
			mcpgo.Description("Comma-separated fields to retrieve, e.g. id,firstName,lastName,profilePicture"),
		),
	), t.getCurrentUserProfile)

	reg.Register(mcpgo.NewTool("get_user_profile_with_openid",
		mcpgo.WithDescription("Get basic profile information via the OpenID Connect userinfo endpoint. Requires the openid and profile scopes."),
		mcpgo.WithString("projection",
			mcpgo.Description("Field projection for the response, e.g. (id,firstName,lastName,picture)"),
		),
	), t.getUserProfileWithOpenID)

	reg.Register(mcpgo.NewTool("get_oauth_authorization_url",
		mcpgo.WithDescription("Generate the LinkedIn OAuth authorization URL to which users should be redirected to authorize this application."),
		mcpgo.WithArray("scopes",
			mcpgo.Description("OAuth scopes to request; defaults to openid, profile, email"),
		),
		mcpgo.WithString("state",
			mcpgo.Description("State parameter for CSRF protection; generated when omitted"),
		),
	), t.getOAuthAuthorizationURL)

	reg.Register(mcpgo.NewTool("exchange_oauth_code",
		mcpgo.WithDescription("Exchange the OAuth authorization code received on the redirect URI for an access token."),
		mcpgo.WithString("authorization_code",
			mcpgo.Required(),
			mcpgo.Description("Authorization code from the OAuth callback"),
		),
	), t.exchangeOAuthCode)

	reg.Register(mcpgo.NewTool("get_token_info",
		mcpgo.WithDescription("Introspect the current access token and report its status, scopes, and expiry."),
	), t.getTokenInfo)
}

func (t *personTools) getCurrentUserProfile(ctx context.Context, args map[string]any) (any, error) {
	fields := stringArg(args, "fields", defaultProfileFields)
	query := url.Values{"fields": {fields}}

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/me", func(ctx context.Context, token string) (*restli.Response, error) {
		return t.deps.API.Get(ctx, token, "/me", query)
	})
	if err != nil {
		return nil, err
	}

	profile := resp.Entity
	firstName, _ := restli.LocalizedString(profile["firstName"])
	lastName, _ := restli.LocalizedString(profile["lastName"])

	return map[string]any{
		"id":              profile["id"],
		"first_name":      firstName,
		"last_name":       lastName,
		"headline":        profile["headline"],
		"summary":         profile["summary"],
		"profile_picture": profile["profilePicture"],
		"raw_data":        profile,
	}, nil
}

func (t *personTools) getUserProfileWithOpenID(ctx context.Context, args map[string]any) (any, error) {
	query := url.Values{}
	if projection := stringArg(args, "projection", ""); projection != "" {
		query.Set("projection", projection)
	}

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/userinfo", func(ctx context.Context, token string) (*restli.Response, error) {
		return t.deps.API.Get(ctx, token, "/userinfo", query)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"profile": resp.Entity,
		"source":  "openid_connect",
	}, nil
}

func (t *personTools) getOAuthAuthorizationURL(ctx context.Context, args map[string]any) (any, error) {
	scopes := stringsArg(args, "scopes")
	if len(scopes) == 0 {
		scopes = auth.DefaultScopes
	}
	state := stringArg(args, "state", "")

	authURL, err := t.deps.Manager.AuthorizationURL(scopes, state)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"authorization_url": authURL,
		"scopes":            scopes,
		"state":             state,
		"instructions":      "Redirect users to this URL to begin the OAuth flow",
	}, nil
}

func (t *personTools) exchangeOAuthCode(ctx context.Context, args map[string]any) (any, error) {
	code := stringArg(args, "authorization_code", "")
	if code == "" {
		return nil, &mcp.ArgumentError{Reason: "authorization_code is required"}
	}

	tokenData, err := t.deps.Manager.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":    true,
		"token_data": tokenData,
		"message":    "Successfully obtained access token",
	}, nil
}

func (t *personTools) getTokenInfo(ctx context.Context, args map[string]any) (any, error) {
	info, err := t.deps.Manager.Introspect(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"token_info":    info,
		"authenticated": t.deps.Manager.IsAuthenticated(ctx),
	}, nil
}
