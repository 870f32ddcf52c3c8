package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// TokenData is the provider's answer to a code exchange or refresh.
// RefreshToken and ExpiresIn are optional: LinkedIn only issues refresh
// tokens to applications enrolled in programmatic refresh.
type TokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenInfo is the provider's introspection response for an access token.
type TokenInfo struct {
	Active    bool   `json:"active"`
	AuthType  string `json:"auth_type,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	Scope     string `json:"scope,omitempty"`
	Status    string `json:"status,omitempty"`
}

// ProviderClient is the identity-provider surface the Manager depends on.
// The production implementation talks to LinkedIn; tests substitute stubs.
type ProviderClient interface {
	// AuthCodeURL builds the member authorization redirect URL.
	AuthCodeURL(scopes []string, state string) (string, error)

	// ExchangeCode trades an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (TokenData, error)

	// RefreshToken trades a refresh token for a new access token, and
	// possibly a rotated refresh token.
	RefreshToken(ctx context.Context, refreshToken string) (TokenData, error)

	// Introspect reports the provider-side status of an access token.
	Introspect(ctx context.Context, accessToken string) (TokenInfo, error)
}

// linkedinProvider implements ProviderClient against LinkedIn's OAuth 2.0
// endpoints using the oauth2 package for the standard flows and a plain HTTP
// call for introspection.
type linkedinProvider struct {
	conf          *oauth2.Config
	clientID      string
	clientSecret  string
	introspectURL string
	httpClient    *http.Client
}

// Compile-time check to ensure linkedinProvider implements ProviderClient
var _ ProviderClient = (*linkedinProvider)(nil)

// ProviderOption configures the LinkedIn provider client.
type ProviderOption func(*linkedinProvider)

// WithHTTPClient sets a custom HTTP client for token and introspection
// requests. If not provided, a client with a 30s timeout is used.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *linkedinProvider) {
		p.httpClient = c
	}
}

// WithEndpoints overrides the provider endpoints. Used by tests and for
// pointing at mock identity providers.
func WithEndpoints(endpoint oauth2.Endpoint, introspectURL string) ProviderOption {
	return func(p *linkedinProvider) {
		p.conf.Endpoint = endpoint
		p.introspectURL = introspectURL
	}
}

// NewLinkedInProvider creates the production ProviderClient for the given
// application credentials.
func NewLinkedInProvider(creds Credentials, opts ...ProviderOption) ProviderClient {
	p := &linkedinProvider{
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     Endpoint,
		},
		clientID:      creds.ClientID,
		clientSecret:  creds.ClientSecret,
		introspectURL: IntrospectURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *linkedinProvider) AuthCodeURL(scopes []string, state string) (string, error) {
	conf := *p.conf
	conf.Scopes = scopes
	return conf.AuthCodeURL(state), nil
}

func (p *linkedinProvider) ExchangeCode(ctx context.Context, code string) (TokenData, error) {
	tok, err := p.conf.Exchange(p.oauthContext(ctx), code)
	if err != nil {
		return TokenData{}, err
	}
	return tokenData(tok), nil
}

func (p *linkedinProvider) RefreshToken(ctx context.Context, refreshToken string) (TokenData, error) {
	// Expiry in the past forces the TokenSource to hit the token endpoint
	// instead of returning the seed token.
	seed := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	tok, err := p.conf.TokenSource(p.oauthContext(ctx), seed).Token()
	if err != nil {
		return TokenData{}, err
	}
	td := tokenData(tok)
	if td.RefreshToken == refreshToken {
		// oauth2 carries the old refresh token forward when the provider
		// does not rotate. The Manager keys rotation off an empty field.
		td.RefreshToken = ""
	}
	return td, nil
}

func (p *linkedinProvider) Introspect(ctx context.Context, accessToken string) (TokenInfo, error) {
	form := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"token":         {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.introspectURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenInfo{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return TokenInfo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return TokenInfo{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return TokenInfo{}, fmt.Errorf("introspection endpoint returned status %d", resp.StatusCode)
	}

	var info TokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return TokenInfo{}, fmt.Errorf("decoding introspection response: %w", err)
	}
	return info, nil
}

// oauthContext injects the provider's HTTP client into the oauth2 package,
// which looks it up via the oauth2.HTTPClient context key.
func (p *linkedinProvider) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func tokenData(tok *oauth2.Token) TokenData {
	td := TokenData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		if d := time.Until(tok.Expiry); d > 0 {
			td.ExpiresIn = int64(d / time.Second)
		}
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		td.Scope = scope
	}
	return td
}
