package auth

import (
	"golang.org/x/oauth2"
)

// Endpoint defines the OAuth2 endpoints for LinkedIn member authorization.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL:  "https://www.linkedin.com/oauth/v2/accessToken",
	AuthStyle: oauth2.AuthStyleInParams,
}

// IntrospectURL is LinkedIn's token introspection endpoint. Introspection is
// not part of RFC 6749 and is not covered by the oauth2 package, so the
// provider client calls it directly.
const IntrospectURL = "https://www.linkedin.com/oauth/v2/introspectToken"

// DefaultScopes are the scopes requested when a caller supplies none.
var DefaultScopes = []string{"openid", "profile", "email"}
